package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/contaflux/contaflux/internal/cli"
	"github.com/contaflux/contaflux/internal/model"
	"github.com/contaflux/contaflux/internal/service"
)

func entriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "List ledger entries",
		RunE:  runEntries,
	}

	cmd.Flags().Bool("pending", false, "show only unpaid entries")
	cmd.Flags().String("kind", "", "filter by kind (payable, receivable, intercompany, deposit, withdrawal, card)")
	cmd.Flags().Int("limit", 0, "cap the number of entries shown")

	return cmd
}

func runEntries(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	pending, _ := cmd.Flags().GetBool("pending")
	kind, _ := cmd.Flags().GetString("kind")
	limit, _ := cmd.Flags().GetInt("limit")

	filter := service.EntryFilter{PendingOnly: pending, Limit: limit}
	if kind != "" {
		k := model.EntryKind(kind)
		if !k.Valid() {
			return fmt.Errorf("invalid kind %q", kind)
		}
		filter.Kind = k
	}

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	entries, err := store.GetEntries(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to load entries: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, e := range entries {
		status := " "
		switch {
		case e.Reconciled:
			status = cli.SuccessStyle.Render("✓")
		case e.Paid:
			status = cli.SubtleStyle.Render("•")
		}
		fmt.Fprintf(out, "%s %-10s %s  R$ %s  venc. %s\n",
			status, e.Kind, e.Description, e.AmountText, formatDate(e.DueDate))
	}
	fmt.Fprintln(out, cli.SubtleStyle.Render(fmt.Sprintf("%d lançamentos", len(entries))))
	return nil
}
