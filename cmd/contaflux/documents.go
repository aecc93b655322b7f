package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/contaflux/contaflux/internal/cli"
	"github.com/contaflux/contaflux/internal/common"
	"github.com/contaflux/contaflux/internal/engine"
	"github.com/contaflux/contaflux/internal/model"
)

func documentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "documents [files...]",
		Short: "Extract ledger entries from document images",
		Long: `Documents sends uploaded invoice/receipt images to the extraction
service and files the extracted transactions as pending ledger entries.
Files are processed concurrently and joined before aggregation.

Examples:
  contaflux documents nota-fiscal.jpg
  contaflux documents boletos/*.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: runDocuments,
	}
}

func runDocuments(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	images := make([]string, 0, len(args))
	for _, path := range args {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		images = append(images, base64.StdEncoding.EncodeToString(raw))
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

	eng := engine.New(extractor, engineConfig())
	candidates, err := eng.ImportDocuments(ctx, images)
	if errors.Is(err, common.ErrNothingFound) {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("Nenhum lançamento encontrado nos documentos."))
		return nil
	}
	if err != nil {
		return err
	}

	// Document extraction creates obligations still to be settled, unlike a
	// statement import.
	entries := make([]model.LedgerEntry, 0, len(candidates))
	for _, c := range candidates {
		entries = append(entries, model.LedgerEntry{
			ID:          uuid.NewString(),
			Kind:        c.Kind,
			Description: c.Description,
			AmountText:  c.AmountText,
			DueDate:     c.DueDate,
		})
	}

	if err := store.SaveEntries(ctx, entries); err != nil {
		return fmt.Errorf("failed to save extracted entries: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
		fmt.Sprintf("%d lançamentos criados a partir de %d documentos", len(entries), len(args))))
	return nil
}
