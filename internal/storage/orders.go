package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/halverson/gearshift/internal/common"
	"github.com/halverson/gearshift/internal/model"
	"github.com/halverson/gearshift/internal/service"
)

// CreateOrder persists a new order. A missing order number is
// generated, with a retry on the unlikely collision. Inquiry orders are
// completed immediately: they have no workshop lifecycle.
func (s *SQLiteStorage) CreateOrder(ctx context.Context, order *model.Order) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if order == nil {
		return fmt.Errorf("%w: order", ErrNilParameter)
	}

	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.Status == "" {
		order.Status = model.StatusCreated
	}
	if order.Type == model.TypeInquiry {
		order.Status = model.StatusCompleted
		if order.CompletedAt == nil {
			completed := now
			order.CompletedAt = &completed
		}
	}

	attempts := 1
	if order.Number == "" {
		order.Number = model.NewOrderNumber(now)
		attempts = 5
	}

	if err := validateOrder(order); err != nil {
		return err
	}

	const insert = `
		INSERT INTO orders (number, type, status, mixed_categories, description,
			created_at, started_at, completed_at, cancelled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var lastErr error
	for i := 0; i < attempts; i++ {
		result, err := s.db.ExecContext(ctx, insert,
			order.Number, order.Type, order.Status, mixedCategoriesJSON(order.MixedCategories),
			nullString(order.Description), order.CreatedAt,
			nullTime(order.StartedAt), nullTime(order.CompletedAt), nullTime(order.CancelledAt))
		if err == nil {
			id, idErr := result.LastInsertId()
			if idErr != nil {
				return fmt.Errorf("failed to get order ID: %w", idErr)
			}
			order.ID = id
			slog.Info("created order", "number", order.Number, "type", order.Type, "status", order.Status)
			return nil
		}
		lastErr = err
		if !strings.Contains(err.Error(), "UNIQUE constraint failed") || i == attempts-1 {
			break
		}
		order.Number = model.NewOrderNumber(time.Now())
	}

	if strings.Contains(lastErr.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: order number %s", common.ErrDuplicateEntry, order.Number)
	}
	return fmt.Errorf("failed to create order: %w", lastErr)
}

// GetOrderByNumber returns the order with the given number, or
// (nil, nil) when it does not exist.
func (s *SQLiteStorage) GetOrderByNumber(ctx context.Context, number string) (*model.Order, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(number, "number"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, number, type, status, mixed_categories, description,
			created_at, started_at, completed_at, cancelled_at
		FROM orders
		WHERE number = ?`, number)

	order, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query order: %w", err)
	}
	return order, nil
}

// GetOrders returns orders matching the filter, newest first.
func (s *SQLiteStorage) GetOrders(ctx context.Context, filter service.OrderFilter) ([]model.Order, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, number, type, status, mixed_categories, description,
			created_at, started_at, completed_at, cancelled_at
		FROM orders`
	var clauses []string
	var args []any

	if len(filter.Statuses) > 0 {
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", placeholders(len(filter.Statuses))))
		for _, st := range filter.Statuses {
			args = append(args, st)
		}
	}
	if len(filter.Types) > 0 {
		clauses = append(clauses, fmt.Sprintf("type IN (%s)", placeholders(len(filter.Types))))
		for _, t := range filter.Types {
			args = append(args, t)
		}
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		order, scanErr := scanOrder(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan order: %w", scanErr)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// UpdateOrder writes the mutable order fields back.
func (s *SQLiteStorage) UpdateOrder(ctx context.Context, order *model.Order) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateOrder(order); err != nil {
		return err
	}
	if order.ID == 0 {
		return fmt.Errorf("%w: missing ID", ErrInvalidOrder)
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET type = ?, status = ?, mixed_categories = ?, description = ?,
			started_at = ?, completed_at = ?, cancelled_at = ?
		WHERE id = ?`,
		order.Type, order.Status, mixedCategoriesJSON(order.MixedCategories),
		nullString(order.Description),
		nullTime(order.StartedAt), nullTime(order.CompletedAt), nullTime(order.CancelledAt),
		order.ID)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	return nil
}

// UpdateOrderType writes a detected order type. Mixed categories are
// stored as a JSON array only for mixed orders, mirroring how they are
// displayed.
func (s *SQLiteStorage) UpdateOrderType(ctx context.Context, orderID int64, orderType model.OrderType, mixedCategories []string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if orderType == "" {
		return fmt.Errorf("%w: missing type", ErrInvalidOrder)
	}

	var categories any
	if orderType == model.TypeMixed && len(mixedCategories) > 0 {
		encoded, err := json.Marshal(mixedCategories)
		if err != nil {
			return fmt.Errorf("failed to encode mixed categories: %w", err)
		}
		categories = string(encoded)
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE orders SET type = ?, mixed_categories = ? WHERE id = ?`,
		orderType, categories, orderID)
	if err != nil {
		return fmt.Errorf("failed to update order type: %w", err)
	}

	slog.Info("updated order type", "order_id", orderID, "type", orderType, "categories", mixedCategories)
	return nil
}

// ProgressOrderStatuses applies the wall-clock transitions to every
// active order: created orders older than the progression threshold
// move to in_progress, and in_progress orders past the overdue
// threshold become overdue. It returns how many orders changed.
// Inquiry orders never appear here since they complete at creation.
func (s *SQLiteStorage) ProgressOrderStatuses(ctx context.Context, now time.Time) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	total := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		createdCutoff := now.Add(-model.ProgressAfter)
		result, err := tx.ExecContext(ctx, `
			UPDATE orders
			SET status = ?, started_at = COALESCE(started_at, ?)
			WHERE status = ? AND created_at <= ?`,
			model.StatusInProgress, now, model.StatusCreated, createdCutoff)
		if err != nil {
			return fmt.Errorf("failed to progress created orders: %w", err)
		}
		progressed, _ := result.RowsAffected()

		overdueCutoff := now.Add(-model.OverdueAfter)
		result, err = tx.ExecContext(ctx, `
			UPDATE orders
			SET status = ?
			WHERE status = ? AND started_at IS NOT NULL AND started_at <= ?`,
			model.StatusOverdue, model.StatusInProgress, overdueCutoff)
		if err != nil {
			return fmt.Errorf("failed to mark overdue orders: %w", err)
		}
		overdue, _ := result.RowsAffected()

		total = int(progressed + overdue)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if total > 0 {
		slog.Debug("progressed order statuses", "changed", total)
	}
	return total, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*model.Order, error) {
	var (
		order       model.Order
		mixed       sql.NullString
		description sql.NullString
		startedAt   sql.NullTime
		completedAt sql.NullTime
		cancelledAt sql.NullTime
	)

	err := row.Scan(&order.ID, &order.Number, &order.Type, &order.Status,
		&mixed, &description, &order.CreatedAt, &startedAt, &completedAt, &cancelledAt)
	if err != nil {
		return nil, err
	}

	order.Description = description.String
	if mixed.Valid && mixed.String != "" {
		if err := json.Unmarshal([]byte(mixed.String), &order.MixedCategories); err != nil {
			return nil, fmt.Errorf("invalid mixed categories for order %s: %w", order.Number, err)
		}
	}
	if startedAt.Valid {
		t := startedAt.Time
		order.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		order.CompletedAt = &t
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		order.CancelledAt = &t
	}

	return &order, nil
}

func mixedCategoriesJSON(categories []string) any {
	if len(categories) == 0 {
		return nil
	}
	encoded, err := json.Marshal(categories)
	if err != nil {
		return nil
	}
	return string(encoded)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
