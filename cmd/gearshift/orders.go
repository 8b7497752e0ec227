package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/halverson/gearshift/internal/cli"
	"github.com/halverson/gearshift/internal/model"
	"github.com/halverson/gearshift/internal/service"
)

func ordersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Manage service orders",
		Long:  `Create, list, complete, and cancel service orders.`,
	}

	cmd.AddCommand(listOrdersCmd())
	cmd.AddCommand(newOrderCmd())
	cmd.AddCommand(completeOrderCmd())
	cmd.AddCommand(cancelOrderCmd())

	return cmd
}

func listOrdersCmd() *cobra.Command {
	var (
		statuses []string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders",
		Long:  `List orders, most recent first. Stale statuses are progressed before listing.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			// Bring created/in_progress orders up to date before reading.
			now := time.Now()
			progressed, err := store.ProgressOrderStatuses(ctx, now)
			if err != nil {
				return fmt.Errorf("failed to progress order statuses: %w", err)
			}
			if progressed > 0 {
				slog.Debug("progressed stale orders", "count", progressed)
			}

			filter := service.OrderFilter{Limit: limit}
			for _, s := range statuses {
				filter.Statuses = append(filter.Statuses, model.OrderStatus(strings.TrimSpace(s)))
			}

			orders, err := store.GetOrders(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to get orders: %w", err)
			}

			if len(orders) == 0 {
				fmt.Println(cli.InfoStyle.Render("No orders found."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("Number"),
				cli.HeaderStyle.Render("Type"),
				cli.HeaderStyle.Render("Status"),
				cli.HeaderStyle.Render("Created"),
				cli.HeaderStyle.Render("Hours"),
				cli.HeaderStyle.Render("Description"))

			for _, order := range orders {
				status := string(order.Status)
				switch order.Status {
				case model.StatusOverdue:
					status = cli.StyleError(status)
				case model.StatusCompleted:
					status = cli.StyleSuccess(status)
				case model.StatusCancelled:
					status = cli.SubtleStyle.Render(status)
				}

				hours := "-"
				if order.StartedAt != nil && !order.Terminal() {
					hours = fmt.Sprintf("%.1f", order.HoursElapsed(now))
				}

				typeName := order.Type.Display()
				if order.Type == model.TypeMixed && len(order.MixedCategories) > 0 {
					typeName = fmt.Sprintf("%s (%s)", typeName, strings.Join(order.MixedCategories, ", "))
				}

				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					order.Number, typeName, status,
					order.CreatedAt.Format("2006-01-02 15:04"),
					hours, order.Description)
			}

			return nil
		},
	}

	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Filter by status (created, in_progress, overdue, completed, cancelled)")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of orders to show")

	return cmd
}

func newOrderCmd() *cobra.Command {
	var (
		orderType   string
		description string
	)

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create an order",
		Long:  `Create a new order. Inquiry orders are completed immediately.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			parsed, ok := model.ParseOrderType(orderType)
			if !ok {
				return fmt.Errorf("invalid order type %q", orderType)
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			order := &model.Order{
				Type:        parsed,
				Status:      model.StatusCreated,
				Description: description,
			}
			if err := store.CreateOrder(ctx, order); err != nil {
				return fmt.Errorf("failed to create order: %w", err)
			}

			fmt.Println(cli.StyleSuccess(fmt.Sprintf("✓ Created order %s (%s, %s)",
				order.Number, order.Type.Display(), order.Status)))
			return nil
		},
	}

	cmd.Flags().StringVar(&orderType, "type", string(model.TypeUnspecified), "Order type (labour, service, sales, inquiry, unspecified)")
	cmd.Flags().StringVar(&description, "description", "", "What the order is for")

	return cmd
}

func completeOrderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <order-number>",
		Short: "Mark an order completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return transitionOrder(cmd.Context(), args[0], (*model.Order).Complete, "Completed")
		},
	}
}

func cancelOrderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <order-number>",
		Short: "Cancel an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return transitionOrder(cmd.Context(), args[0], (*model.Order).Cancel, "Cancelled")
		},
	}
}

func transitionOrder(ctx context.Context, number string, transition func(*model.Order, time.Time) error, verb string) error {
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	order, err := store.GetOrderByNumber(ctx, number)
	if err != nil {
		return fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return fmt.Errorf("order %q not found", number)
	}

	if err := transition(order, time.Now()); err != nil {
		return err
	}
	if err := store.UpdateOrder(ctx, order); err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	fmt.Println(cli.StyleSuccess(fmt.Sprintf("✓ %s order %s", verb, order.Number)))
	return nil
}
