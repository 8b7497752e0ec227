package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderStatus tracks the order lifecycle.
type OrderStatus string

// Order status constants.
//
// Lifecycle: created -> in_progress -> (overdue | completed | cancelled).
// created orders auto-progress to in_progress after ProgressAfter;
// in_progress orders become overdue after OverdueAfter. completed and
// cancelled are terminal. Inquiry orders skip the lifecycle entirely and
// are completed at creation.
const (
	StatusCreated    OrderStatus = "created"
	StatusInProgress OrderStatus = "in_progress"
	StatusOverdue    OrderStatus = "overdue"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
)

// Auto-progression thresholds.
const (
	// ProgressAfter is how long a created order waits before it is
	// considered actively in progress.
	ProgressAfter = 10 * time.Minute
	// OverdueAfter is how long an order may run before it is overdue.
	OverdueAfter = 2 * time.Hour
)

// Order is a unit of work for a customer: a service job, a sales
// transaction, or an inquiry.
type Order struct {
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
	Number      string
	Description string
	// MixedCategories holds the category strings detected from invoice
	// items when Type is mixed; empty otherwise.
	MixedCategories []string
	Type            OrderType
	Status          OrderStatus
	ID              int64
}

// Terminal reports whether the order has reached a final status.
func (o *Order) Terminal() bool {
	return o.Status == StatusCompleted || o.Status == StatusCancelled
}

// AutoProgress applies the wall-clock driven transitions and reports
// whether the order changed: created orders move to in_progress after
// ProgressAfter, and in_progress orders become overdue after
// OverdueAfter. It never touches terminal orders.
func (o *Order) AutoProgress(now time.Time) bool {
	changed := false

	if o.Status == StatusCreated && now.Sub(o.CreatedAt) >= ProgressAfter {
		o.Status = StatusInProgress
		if o.StartedAt == nil {
			started := now
			o.StartedAt = &started
		}
		changed = true
	}

	if o.Status == StatusInProgress && o.StartedAt != nil && now.Sub(*o.StartedAt) >= OverdueAfter {
		o.Status = StatusOverdue
		changed = true
	}

	return changed
}

// IsOverdue reports whether an active order has exceeded OverdueAfter.
func (o *Order) IsOverdue(now time.Time) bool {
	if o.Terminal() || o.StartedAt == nil {
		return false
	}
	return now.Sub(*o.StartedAt) >= OverdueAfter
}

// HoursElapsed returns calendar hours since the order started, zero if
// it has not started.
func (o *Order) HoursElapsed(now time.Time) float64 {
	if o.StartedAt == nil {
		return 0
	}
	return now.Sub(*o.StartedAt).Hours()
}

// Complete marks the order completed at the given time.
func (o *Order) Complete(now time.Time) error {
	if o.Terminal() {
		return fmt.Errorf("order %s is already %s", o.Number, o.Status)
	}
	o.Status = StatusCompleted
	completed := now
	o.CompletedAt = &completed
	return nil
}

// Cancel marks the order cancelled at the given time.
func (o *Order) Cancel(now time.Time) error {
	if o.Terminal() {
		return fmt.Errorf("order %s is already %s", o.Number, o.Status)
	}
	o.Status = StatusCancelled
	cancelled := now
	o.CancelledAt = &cancelled
	return nil
}

// NewOrderNumber generates a human-friendly order number of the form
// ORD<timestamp><4 hex chars>. Callers retry on the unlikely collision.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:4])
	return fmt.Sprintf("ORD%s%s", now.Format("20060102150405"), suffix)
}
