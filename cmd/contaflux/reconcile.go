package main

import (
	"context"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/contaflux/contaflux/internal/cli"
	"github.com/contaflux/contaflux/internal/engine"
	"github.com/contaflux/contaflux/internal/service"
)

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile [statement file]",
		Short: "Reconcile a bank statement against the pending ledger",
		Long: `Reconcile reads a free-text bank statement, extracts transactions in
batches through the extraction service and matches them against pending
ledger entries. Unmatched movements are classified by learned patterns and
fuzzy supplier matching; payables that cannot be classified go to the manual
review queue.

Examples:
  contaflux reconcile extrato-marco.txt --period 03/2025
  contaflux reconcile extrato.txt --period 03/2025 --review`,
		Args: cobra.ExactArgs(1),
		RunE: runReconcile,
	}

	cmd.Flags().StringP("period", "p", "", "statement month/year context, e.g. 03/2025")
	cmd.Flags().BoolP("review", "r", false, "review queued candidates interactively after the import")
	_ = cmd.MarkFlagRequired("period")

	return cmd
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	period, _ := cmd.Flags().GetString("period")
	review, _ := cmd.Flags().GetBool("review")

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read statement: %w", err)
	}

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	extractor, err := newExtractor()
	if err != nil {
		return err
	}

	sess, err := loadSession(ctx, store)
	if err != nil {
		return err
	}

	eng := engine.New(extractor, engineConfig())

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Extraindo lotes"),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionShowCount())
		}
		_ = bar.Set(done)
	}

	result, err := eng.ImportStatement(ctx, string(raw), period, sess, progress)
	if err != nil {
		return err
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(cmd.ErrOrStderr())
	}

	if err := persistImport(ctx, store, sess, result); err != nil {
		return err
	}

	printImportSummary(cmd, result)

	if review && len(result.ForReview) > 0 {
		if err := reviewQueue(ctx, cmd, store, sess, eng, result); err != nil {
			return err
		}
	}

	return nil
}

func printImportSummary(cmd *cobra.Command, result *engine.ImportResult) {
	out := cmd.OutOrStdout()

	if result.NothingFound {
		fmt.Fprintln(out, cli.FormatWarning("Nenhum lançamento encontrado no extrato."))
		return
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("%d lançamentos conciliados", len(result.Reconciled))))
	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("%d lançamentos novos classificados", len(result.Created))))
	if len(result.ForReview) > 0 {
		fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d lançamentos aguardando revisão manual", len(result.ForReview))))
	}
	if result.Failure != nil {
		fmt.Fprintln(out, cli.FormatError(result.Failure.UserMessage()))
		fmt.Fprintln(out, cli.SubtleStyle.Render(
			fmt.Sprintf("Lotes processados: %d de %d", result.BatchesRun, result.BatchesTotal)))
	}
}

// reviewQueue walks the manual review queue, filing each candidate per the
// reviewer's decision and persisting entries, learned patterns and supplier
// nature updates.
func reviewQueue(ctx context.Context, cmd *cobra.Command, store service.Storage, sess *engine.Session, eng *engine.Engine, result *engine.ImportResult) error {
	prompter := cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())

	for i := range result.ForReview {
		candidate := result.ForReview[i]

		decision, skip, err := prompter.ReviewCandidate(ctx, &candidate, sess.Suppliers)
		if err != nil {
			return err
		}
		if skip {
			continue
		}

		outcome, err := eng.ResolveReview(&candidate, decision, sess)
		if err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatError(err.Error()))
			continue
		}

		if err := store.SaveEntry(ctx, &outcome.Entry); err != nil {
			return fmt.Errorf("failed to save reviewed entry: %w", err)
		}
		if outcome.PatternRecorded {
			if err := store.AppendPatternMappings(ctx, sess.Patterns.Appended()); err != nil {
				return fmt.Errorf("failed to persist learned pattern: %w", err)
			}
		}
		if outcome.NatureUpdate != nil {
			if err := store.UpdateSupplierDefaultNature(ctx, outcome.NatureUpdate.SupplierID, outcome.NatureUpdate.Nature); err != nil {
				return fmt.Errorf("failed to update supplier nature: %w", err)
			}
		}

		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Lançamento registrado."))
	}

	return nil
}
