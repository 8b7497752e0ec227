package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/halverson/gearshift/internal/cli"
	"github.com/halverson/gearshift/internal/model"
	"github.com/halverson/gearshift/internal/revenue"
)

func revenueCmd() *cobra.Command {
	var (
		fromStr   string
		toStr     string
		thisMonth bool
		vehicles  []string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "revenue",
		Short: "Show revenue by order type",
		Long: `Break down billable invoice revenue into sales, service, and labour
buckets. With no flags, reports over all invoices.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			from, err := parseDateFlag(fromStr)
			if err != nil {
				return fmt.Errorf("invalid --from date: %w", err)
			}
			to, err := parseDateFlag(toStr)
			if err != nil {
				return fmt.Errorf("invalid --to date: %w", err)
			}
			if thisMonth && (from != nil || to != nil) {
				return fmt.Errorf("--month cannot be combined with --from/--to")
			}
			if to != nil {
				// Make the upper bound inclusive of the whole day.
				end := to.AddDate(0, 0, 1).Add(-time.Second)
				to = &end
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			reporter := revenue.NewReporter(store)

			var bucket model.RevenueBucket
			var label string
			switch {
			case thisMonth:
				now := time.Now()
				bucket, err = reporter.ThisMonth(ctx, now)
				label = now.Format("January 2006")
			case len(vehicles) > 0:
				bucket, err = reporter.ForVehicles(ctx, vehicles, from, to)
				label = "Vehicles " + strings.Join(vehicles, ", ")
			case from != nil || to != nil:
				bucket, err = reporter.ByDateRange(ctx, from, to)
				label = rangeLabel(from, to)
			default:
				bucket, err = reporter.AllTime(ctx)
				label = "All time"
			}
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(bucket)
			}

			printBucket(label, bucket)
			return nil
		},
	}

	cmd.Flags().StringVar(&fromStr, "from", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toStr, "to", "", "End date (YYYY-MM-DD, inclusive)")
	cmd.Flags().BoolVar(&thisMonth, "month", false, "Report over the current calendar month")
	cmd.Flags().StringSliceVar(&vehicles, "vehicle", nil, "Restrict to invoices for these vehicles")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")

	return cmd
}

func parseDateFlag(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func rangeLabel(from, to *time.Time) string {
	switch {
	case from != nil && to != nil:
		return fmt.Sprintf("%s to %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	case from != nil:
		return "Since " + from.Format("2006-01-02")
	case to != nil:
		return "Until " + to.Format("2006-01-02")
	}
	return "All time"
}

func printBucket(label string, bucket model.RevenueBucket) {
	fmt.Println(cli.TitleStyle.Render("Revenue: " + label))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", cli.HeaderStyle.Render("Bucket"), cli.HeaderStyle.Render("Amount"))
	fmt.Fprintf(w, "Sales\t%s\n", bucket.Sales.StringFixed(2))
	fmt.Fprintf(w, "Service\t%s\n", bucket.Service.StringFixed(2))
	fmt.Fprintf(w, "Labour\t%s\n", bucket.Labour.StringFixed(2))
	if !bucket.Unknown.IsZero() {
		fmt.Fprintf(w, "%s\t%s\n", cli.WarningStyle.Render("Unknown"), bucket.Unknown.StringFixed(2))
	}
	fmt.Fprintf(w, "%s\t%s\n", cli.HeaderStyle.Render("Total"), cli.HeaderStyle.Render(bucket.Total.StringFixed(2)))
	w.Flush()

	fmt.Printf("\n%d invoices\n", bucket.Count)
}
