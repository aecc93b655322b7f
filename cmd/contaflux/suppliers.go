package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/contaflux/contaflux/internal/cli"
	"github.com/contaflux/contaflux/internal/common"
	"github.com/contaflux/contaflux/internal/model"
	"github.com/contaflux/contaflux/internal/textutil"
)

func suppliersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suppliers",
		Short: "Manage the supplier registry",
	}
	cmd.AddCommand(suppliersListCmd())
	cmd.AddCommand(suppliersAddCmd())
	return cmd
}

func suppliersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered suppliers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			suppliers, err := store.GetAllSuppliers(ctx)
			if err != nil {
				return fmt.Errorf("failed to load suppliers: %w", err)
			}

			out := cmd.OutOrStdout()
			for _, s := range suppliers {
				line := s.Name
				if s.Category != "" {
					line += "  " + cli.SubtleStyle.Render(s.Category)
				}
				if s.DefaultNature != "" {
					line += "  " + cli.SubtleStyle.Render(string(s.DefaultNature))
				}
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, cli.SubtleStyle.Render(fmt.Sprintf("%d fornecedores", len(suppliers))))
			return nil
		},
	}
}

func suppliersAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Register a supplier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			existing, err := store.GetAllSuppliers(ctx)
			if err != nil {
				return fmt.Errorf("failed to load suppliers: %w", err)
			}
			for _, s := range existing {
				if textutil.Normalize(s.Name) == textutil.Normalize(args[0]) {
					return common.NewUserError("Fornecedor já cadastrado: "+s.Name, common.ErrDuplicateEntry)
				}
			}

			modality, _ := cmd.Flags().GetString("modality")
			group, _ := cmd.Flags().GetString("group")
			category, _ := cmd.Flags().GetString("category")
			aliases, _ := cmd.Flags().GetStringSlice("alias")

			supplier := &model.Supplier{
				ID:       uuid.NewString(),
				Name:     args[0],
				Modality: modality,
				Group:    group,
				Category: category,
				Aliases:  aliases,
			}

			if err := store.SaveSupplier(ctx, supplier); err != nil {
				return fmt.Errorf("failed to save supplier: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Fornecedor registrado: "+supplier.Name))
			return nil
		},
	}

	cmd.Flags().String("modality", "", "supplier modality (e.g. financiamento, servico)")
	cmd.Flags().String("group", "", "supplier group")
	cmd.Flags().String("category", "", "default category for entries under this supplier")
	cmd.Flags().StringSlice("alias", nil, "alternate names used on statements (repeatable)")

	return cmd
}
