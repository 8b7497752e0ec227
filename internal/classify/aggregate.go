package classify

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/halverson/gearshift/internal/model"
)

// itemBucket accumulates one group of duplicate extracted items.
type itemBucket struct {
	code        string
	description string
	unit        string
	qty         decimal.Decimal
	rates       []decimal.Decimal
	values      []decimal.Decimal
}

// AggregateItems collapses duplicate extracted line items into one
// entry per distinct key. The key is the trimmed item code, or the
// lower-cased, whitespace-collapsed description when no code is
// present. Quantities are summed (non-positive quantities count as 1),
// the first non-empty unit wins, and the unit price is the mean of the
// extracted rates when any exist, otherwise the summed extracted values
// divided by the final quantity.
//
// The result preserves first-seen insertion order and aggregating an
// already-aggregated list is a no-op.
func AggregateItems(items []model.ExtractedItem) []model.AggregatedItem {
	buckets := make(map[string]*itemBucket)
	var order []string

	for _, it := range items {
		desc := strings.TrimSpace(it.Description)
		if desc == "" {
			desc = "Item"
		}
		code := strings.TrimSpace(it.Code)

		key := code
		if key == "" {
			key = normalizeDescription(desc)
		}

		qty := it.Qty
		if !qty.IsPositive() {
			qty = decimal.NewFromInt(1)
		}

		b, ok := buckets[key]
		if !ok {
			b = &itemBucket{
				code:        code,
				description: desc,
				qty:         decimal.Zero,
			}
			buckets[key] = b
			order = append(order, key)
		}

		b.qty = b.qty.Add(qty)
		if unit := strings.TrimSpace(it.Unit); unit != "" && b.unit == "" {
			b.unit = unit
		}
		if it.Rate.Valid && !it.Rate.Decimal.IsZero() {
			b.rates = append(b.rates, it.Rate.Decimal)
		}
		if it.Value.Valid && !it.Value.Decimal.IsZero() {
			b.values = append(b.values, it.Value.Decimal)
		}
	}

	out := make([]model.AggregatedItem, 0, len(order))
	for _, key := range order {
		b := buckets[key]

		qty := b.qty
		if !qty.IsPositive() {
			qty = decimal.NewFromInt(1)
		}

		unitPrice := decimal.Zero
		lineTotal := decimal.Zero
		switch {
		case len(b.rates) > 0:
			sum := decimal.Zero
			for _, r := range b.rates {
				sum = sum.Add(r)
			}
			unitPrice = sum.Div(decimal.NewFromInt(int64(len(b.rates))))
			lineTotal = qty.Mul(unitPrice)
		case len(b.values) > 0:
			// The extracted line values are authoritative: keep their
			// exact sum as the line total rather than recomputing it
			// from the derived unit price.
			sum := decimal.Zero
			for _, v := range b.values {
				sum = sum.Add(v)
			}
			unitPrice = sum.Div(qty)
			lineTotal = sum
		}

		out = append(out, model.AggregatedItem{
			Code:        b.code,
			Description: b.description,
			Unit:        b.unit,
			Qty:         qty,
			UnitPrice:   unitPrice,
			LineTotal:   lineTotal,
		})
	}

	return out
}

// normalizeDescription lower-cases and collapses internal whitespace.
func normalizeDescription(desc string) string {
	return strings.Join(strings.Fields(strings.ToLower(desc)), " ")
}
