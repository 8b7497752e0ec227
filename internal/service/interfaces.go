// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/halverson/gearshift/internal/model"
)

// InvoiceFilter defines filtering options for invoice queries.
type InvoiceFilter struct {
	From       *time.Time
	To         *time.Time
	VehicleIDs []string
	Statuses   []model.InvoiceStatus
	OrderID    int64
}

// OrderFilter defines filtering options for order queries.
type OrderFilter struct {
	Statuses []model.OrderStatus
	Types    []model.OrderType
	Limit    int
}

// Storage defines the contract for the persistence layer.
type Storage interface {
	// Labour code registry
	GetCodeCategories(ctx context.Context, codes []string) (map[string]string, error)
	GetLabourCodes(ctx context.Context, activeOnly bool) ([]model.LabourCode, error)
	UpsertLabourCode(ctx context.Context, code *model.LabourCode) error
	DeactivateLabourCode(ctx context.Context, code string) error

	// Orders
	CreateOrder(ctx context.Context, order *model.Order) error
	GetOrderByNumber(ctx context.Context, number string) (*model.Order, error)
	GetOrders(ctx context.Context, filter OrderFilter) ([]model.Order, error)
	UpdateOrder(ctx context.Context, order *model.Order) error
	UpdateOrderType(ctx context.Context, orderID int64, orderType model.OrderType, mixedCategories []string) error
	ProgressOrderStatuses(ctx context.Context, now time.Time) (int, error)

	// Invoices and line items
	GetInvoiceByNumber(ctx context.Context, number string) (*model.Invoice, error)
	GetInvoiceForOrder(ctx context.Context, orderID int64) (*model.Invoice, error)
	GetInvoices(ctx context.Context, filter InvoiceFilter) ([]model.Invoice, error)
	NextInvoiceNumber(ctx context.Context, year int) (string, error)
	SaveInvoice(ctx context.Context, invoice *model.Invoice, items []model.LineItem) error
	GetLineItems(ctx context.Context, invoiceID int64) ([]model.LineItem, error)
	GetLineItemsForInvoices(ctx context.Context, invoiceIDs []int64) ([]model.LineItem, error)
	GetItemCodesForOrder(ctx context.Context, orderID int64) ([]string, error)
	OrderHasCodelessItems(ctx context.Context, orderID int64) (bool, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for database writes.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
