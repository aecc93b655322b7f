package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/contaflux/contaflux/internal/cli"
	"github.com/contaflux/contaflux/internal/dedup"
)

func duplicatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "duplicates",
		Short: "Detect probable duplicate pending payables",
		Long: `Duplicates scans all pending payable entries and groups the ones that
are probably the same obligation recorded more than once: equal amounts due
the same day, or close dates with overlapping descriptions.

Groups are recomputed live on every run; dismissing a group only silences it
for the current session.`,
		RunE: runDuplicates,
	}

	cmd.Flags().Bool("exact", false, "use transitive-closure grouping instead of the greedy heuristic")
	cmd.Flags().Bool("interactive", false, "step through groups and dismiss alerts")

	return cmd
}

func runDuplicates(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	exact, _ := cmd.Flags().GetBool("exact")
	interactive, _ := cmd.Flags().GetBool("interactive")

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	pending, err := store.GetPendingEntries(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pending entries: %w", err)
	}

	strategy := dedup.Heuristic
	if exact {
		strategy = dedup.Exact
	}
	groups := dedup.NewDetector(strategy).Detect(pending)

	out := cmd.OutOrStdout()
	if len(groups) == 0 {
		fmt.Fprintln(out, cli.FormatSuccess("Nenhuma duplicidade provável encontrada."))
		return nil
	}

	if !interactive {
		for i, group := range groups {
			fmt.Fprintf(out, "%s\n", cli.TitleStyle.Render(
				fmt.Sprintf("Grupo %d (%d lançamentos)", i+1, len(group.Entries))))
			for _, e := range group.Entries {
				fmt.Fprintf(out, "  %s  R$ %s  venc. %s\n",
					e.Description, e.AmountText, formatDate(e.DueDate))
			}
		}
		fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d grupos de possíveis duplicidades", len(groups))))
		return nil
	}

	// Dismissals are session state, keyed by group identity; a dismissed key
	// stays silent even if the group is recomputed within this run.
	prompter := cli.NewPrompter(cmd.InOrStdin(), out)
	dismissed := make(map[string]bool)

	for i := range groups {
		group := groups[i]
		if dismissed[group.Key()] {
			continue
		}

		drop, err := prompter.ConfirmDuplicateGroup(ctx, &group)
		if err != nil {
			return err
		}
		if drop {
			dismissed[group.Key()] = true
			fmt.Fprintln(out, cli.SubtleStyle.Render("Alerta descartado para esta sessão."))
		}
	}

	return nil
}
