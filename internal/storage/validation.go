// Package storage provides the SQLite persistence layer for orders,
// invoices, line items, and the labour code registry.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/halverson/gearshift/internal/model"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrInvalidDateRange = errors.New("start date must be before end date")
	ErrInvalidOrder     = errors.New("invalid order")
	ErrInvalidInvoice   = errors.New("invalid invoice")
	ErrInvalidLineItem  = errors.New("invalid line item")
	ErrInvalidCode      = errors.New("invalid labour code")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateOrder validates an order before writing it.
func validateOrder(order *model.Order) error {
	if order == nil {
		return fmt.Errorf("%w: order", ErrNilParameter)
	}
	if order.Number == "" {
		return fmt.Errorf("%w: missing number", ErrInvalidOrder)
	}
	if order.Type == "" {
		return fmt.Errorf("%w: missing type", ErrInvalidOrder)
	}
	if order.Status == "" {
		return fmt.Errorf("%w: missing status", ErrInvalidOrder)
	}
	if order.CreatedAt.IsZero() {
		return fmt.Errorf("%w: missing created time", ErrInvalidOrder)
	}
	return nil
}

// validateInvoice validates an invoice before writing it.
func validateInvoice(invoice *model.Invoice) error {
	if invoice == nil {
		return fmt.Errorf("%w: invoice", ErrNilParameter)
	}
	if invoice.Number == "" {
		return fmt.Errorf("%w: missing number", ErrInvalidInvoice)
	}
	if invoice.Status == "" {
		return fmt.Errorf("%w: missing status", ErrInvalidInvoice)
	}
	if invoice.InvoiceDate.IsZero() {
		return fmt.Errorf("%w: missing invoice date", ErrInvalidInvoice)
	}
	return nil
}

// validateLineItems validates line items before writing them.
func validateLineItems(items []model.LineItem) error {
	for i, item := range items {
		if item.Description == "" {
			return fmt.Errorf("line item at index %d: %w: missing description", i, ErrInvalidLineItem)
		}
		if item.OrderType == "" {
			return fmt.Errorf("line item at index %d: %w: missing order type", i, ErrInvalidLineItem)
		}
		if !item.Qty.IsPositive() {
			return fmt.Errorf("line item at index %d: %w: quantity must be positive", i, ErrInvalidLineItem)
		}
	}
	return nil
}

// validateLabourCode validates a registry entry before writing it.
func validateLabourCode(code *model.LabourCode) error {
	if code == nil {
		return fmt.Errorf("%w: labour code", ErrNilParameter)
	}
	if strings.TrimSpace(code.Code) == "" {
		return fmt.Errorf("%w: missing code", ErrInvalidCode)
	}
	if strings.TrimSpace(code.Category) == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidCode)
	}
	return nil
}
