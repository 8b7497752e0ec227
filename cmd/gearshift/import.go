package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/halverson/gearshift/internal/cli"
	"github.com/halverson/gearshift/internal/engine"
	"github.com/halverson/gearshift/internal/extract"
	"github.com/halverson/gearshift/internal/model"
)

func importCmd() *cobra.Command {
	var (
		orderNumber string
		dryRun      bool
	)

	cmd := &cobra.Command{
		Use:   "import <extracted.json>",
		Short: "Ingest an extracted invoice",
		Long: `Read an extracted invoice document, aggregate and classify its line
items against the labour code registry, and persist the invoice.
Re-importing an invoice replaces its line items. With --order, the
invoice is linked to that order and the order's type is re-detected
across all of its invoices.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			doc, err := extract.ReadInvoice(f)
			if err != nil {
				return fmt.Errorf("failed to read extracted invoice: %w", err)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			pipeline := engine.New(store)

			preview, err := pipeline.PreviewClassification(ctx, doc)
			if err != nil {
				return fmt.Errorf("failed to classify invoice: %w", err)
			}
			printPreview(doc, preview)

			if dryRun {
				fmt.Println(cli.InfoStyle.Render("Dry run: nothing saved."))
				return nil
			}

			invoice, err := pipeline.IngestInvoice(ctx, doc, orderNumber)
			if err != nil {
				return err
			}

			fmt.Println(cli.StyleSuccess(fmt.Sprintf("✓ Saved invoice %s (total %s)",
				invoice.Number, invoice.TotalAmount.StringFixed(2))))
			if invoice.OrderID != 0 {
				fmt.Printf("  Linked to order %s\n", orderNumber)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&orderNumber, "order", "", "Order number to link the invoice to")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Classify and display without saving")

	return cmd
}

func printPreview(doc model.ExtractedInvoice, preview *engine.Preview) {
	fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("Invoice %s (%s)",
		doc.Header.InvoiceNo, doc.Header.CustomerName)))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		cli.HeaderStyle.Render("Code"),
		cli.HeaderStyle.Render("Description"),
		cli.HeaderStyle.Render("Qty"),
		cli.HeaderStyle.Render("Total"),
		cli.HeaderStyle.Render("Category"),
		cli.HeaderStyle.Render("Type"))
	for _, item := range preview.Items {
		code := item.Item.Code
		if code == "" {
			code = cli.SubtleStyle.Render("-")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			code,
			item.Item.Description,
			item.Item.Qty.String(),
			item.Item.LineTotal.StringFixed(2),
			item.Category,
			item.Type.Display())
	}
	w.Flush()

	fmt.Printf("\nDetected order type: %s\n", cli.InfoStyle.Render(preview.Result.Display()))
	if len(preview.Result.Mapping.Unmapped) > 0 {
		fmt.Println(cli.WarningStyle.Render(fmt.Sprintf("Unmapped codes (treated as sales): %s",
			strings.Join(preview.Result.Mapping.Unmapped, ", "))))
	}
}
