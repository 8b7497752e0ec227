package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus tracks the billing lifecycle of an invoice.
type InvoiceStatus string

// Invoice status constants.
const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceIssued    InvoiceStatus = "issued"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// BillableStatuses are the invoice statuses that count toward revenue.
var BillableStatuses = []InvoiceStatus{InvoiceDraft, InvoiceIssued, InvoicePaid}

// Invoice is a billing document, optionally linked to an order.
type Invoice struct {
	InvoiceDate  time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Number       string
	CustomerName string
	VehicleID    string
	CodeNo       string
	Reference    string
	Status       InvoiceStatus
	Subtotal     decimal.Decimal
	TaxAmount    decimal.Decimal
	TaxRate      decimal.Decimal
	TotalAmount  decimal.Decimal
	ID           int64
	// OrderID is zero when the invoice is not linked to an order.
	OrderID int64
}

// ApplyTotals fills in subtotal, tax, and total. Extracted amounts are
// authoritative; missing or zero amounts fall back to sums over the
// line items so revenue figures are never zero when items exist.
func (inv *Invoice) ApplyTotals(items []LineItem) {
	if inv.Subtotal.IsZero() && len(items) > 0 {
		subtotal := decimal.Zero
		for _, it := range items {
			subtotal = subtotal.Add(it.LineTotal)
		}
		if subtotal.IsPositive() {
			inv.Subtotal = subtotal
			if inv.TaxAmount.IsZero() {
				tax := decimal.Zero
				for _, it := range items {
					tax = tax.Add(it.TaxAmount)
				}
				inv.TaxAmount = tax
			}
		}
	}

	if inv.TotalAmount.IsZero() {
		inv.TotalAmount = inv.Subtotal.Add(inv.TaxAmount)
	}
}
