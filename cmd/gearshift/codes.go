package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/halverson/gearshift/internal/cli"
	"github.com/halverson/gearshift/internal/classify"
	"github.com/halverson/gearshift/internal/model"
)

func codesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codes",
		Short: "Manage the labour code registry",
		Long:  `List, add, deactivate, and bulk-import the labour codes used to classify invoice line items.`,
	}

	cmd.AddCommand(listCodesCmd())
	cmd.AddCommand(addCodeCmd())
	cmd.AddCommand(deactivateCodeCmd())
	cmd.AddCommand(importCodesCmd())

	return cmd
}

func listCodesCmd() *cobra.Command {
	var includeInactive bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List labour codes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			codes, err := store.GetLabourCodes(ctx, !includeInactive)
			if err != nil {
				return fmt.Errorf("failed to get labour codes: %w", err)
			}

			if len(codes) == 0 {
				fmt.Println(cli.InfoStyle.Render("No labour codes found. Use 'gearshift codes add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("Code"),
				cli.HeaderStyle.Render("Category"),
				cli.HeaderStyle.Render("Maps To"),
				cli.HeaderStyle.Render("Description"),
				cli.HeaderStyle.Render("Active"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 8),
				strings.Repeat("-", 14),
				strings.Repeat("-", 12),
				strings.Repeat("-", 40),
				strings.Repeat("-", 6))

			for _, code := range codes {
				active := "yes"
				if !code.IsActive {
					active = cli.SubtleStyle.Render("no")
				}
				desc := code.Description
				if desc == "" {
					desc = cli.SubtleStyle.Render("(no description)")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					code.Code, code.Category,
					classify.NormalizeCategory(code.Category).Display(),
					desc, active)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&includeInactive, "all", false, "Include deactivated codes")

	return cmd
}

func addCodeCmd() *cobra.Command {
	var (
		category    string
		description string
	)

	cmd := &cobra.Command{
		Use:   "add <code>",
		Short: "Add or update a labour code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if category == "" {
				return fmt.Errorf("must specify --category")
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			code := &model.LabourCode{
				Code:        strings.TrimSpace(args[0]),
				Category:    category,
				Description: description,
				IsActive:    true,
			}
			if err := store.UpsertLabourCode(ctx, code); err != nil {
				return fmt.Errorf("failed to save labour code: %w", err)
			}

			fmt.Println(cli.StyleSuccess(fmt.Sprintf("✓ Saved code %q (category %q, classifies as %s)",
				code.Code, code.Category, classify.NormalizeCategory(code.Category).Display())))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Registry category (e.g. labour, service, tyre service)")
	cmd.Flags().StringVar(&description, "description", "", "Human-readable description")

	return cmd
}

func deactivateCodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <code>",
		Short: "Deactivate a labour code",
		Long:  `Deactivated codes are ignored during classification; items using them fall through to sales.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeactivateLabourCode(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to deactivate labour code: %w", err)
			}

			fmt.Println(cli.StyleSuccess(fmt.Sprintf("✓ Deactivated code %q", args[0])))
			return nil
		},
	}
}

func importCodesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Bulk-import labour codes from CSV",
		Long: `Import labour codes from a CSV file with columns code,category,description.
Existing codes are updated in place and marked active.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			count, err := importCodesCSV(ctx, store, f)
			if err != nil {
				return err
			}

			fmt.Println(cli.StyleSuccess(fmt.Sprintf("✓ Imported %d labour codes", count)))
			return nil
		},
	}
}

func importCodesCSV(ctx context.Context, store codeUpserter, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	count := 0
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}
		if len(record) < 2 {
			return count, fmt.Errorf("CSV line %d: expected code,category[,description]", line)
		}

		code := strings.TrimSpace(record[0])
		if line == 1 && strings.EqualFold(code, "code") {
			// Header row.
			continue
		}
		if code == "" {
			continue
		}

		lc := &model.LabourCode{
			Code:     code,
			Category: strings.TrimSpace(record[1]),
			IsActive: true,
		}
		if len(record) > 2 {
			lc.Description = strings.TrimSpace(record[2])
		}
		if err := store.UpsertLabourCode(ctx, lc); err != nil {
			return count, fmt.Errorf("failed to import code %q: %w", code, err)
		}
		count++
	}

	return count, nil
}

type codeUpserter interface {
	UpsertLabourCode(ctx context.Context, code *model.LabourCode) error
}
