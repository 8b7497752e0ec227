package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExtractedItem is a raw line item as produced by invoice text
// extraction, before aggregation or classification. Numeric fields are
// already coerced: an unparsable quantity arrives as zero and is
// clamped to one during aggregation; Rate and Value are unset when the
// extractor could not find them.
type ExtractedItem struct {
	Code        string
	Description string
	Unit        string
	Qty         decimal.Decimal
	Rate        decimal.NullDecimal
	Value       decimal.NullDecimal
}

// AggregatedItem is one line item after duplicate extracted rows have
// been collapsed. Exactly one exists per distinct code (or normalized
// description when the code is absent).
type AggregatedItem struct {
	Code        string
	Description string
	Unit        string
	Qty         decimal.Decimal
	UnitPrice   decimal.Decimal
	// LineTotal preserves the extracted line value when the extractor
	// supplied one; otherwise it is Qty * UnitPrice.
	LineTotal decimal.Decimal
}

// LineItem is a persisted, classified invoice line item.
type LineItem struct {
	CreatedAt   time.Time
	Code        string
	Description string
	Unit        string
	OrderType   OrderType
	Qty         decimal.Decimal
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
	TaxRate     decimal.Decimal
	TaxAmount   decimal.Decimal
	ID          int64
	InvoiceID   int64
}
