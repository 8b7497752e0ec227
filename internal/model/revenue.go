package model

import "github.com/shopspring/decimal"

// RevenueBucket is a revenue breakdown by order type over a set of
// invoices. Amounts marshal to JSON as decimal strings.
type RevenueBucket struct {
	Sales   decimal.Decimal `json:"sales"`
	Service decimal.Decimal `json:"service"`
	Labour  decimal.Decimal `json:"labour"`
	Unknown decimal.Decimal `json:"unknown"`
	Total   decimal.Decimal `json:"total"`
	Count   int             `json:"count"`
}

// NewRevenueBucket returns an all-zero bucket.
func NewRevenueBucket() RevenueBucket {
	return RevenueBucket{
		Sales:   decimal.Zero,
		Service: decimal.Zero,
		Labour:  decimal.Zero,
		Unknown: decimal.Zero,
		Total:   decimal.Zero,
	}
}

// Add credits value to the bucket for the given order type. Anything
// other than sales, service, or labour lands in Unknown.
func (b *RevenueBucket) Add(t OrderType, value decimal.Decimal) {
	switch t {
	case TypeSales:
		b.Sales = b.Sales.Add(value)
	case TypeService:
		b.Service = b.Service.Add(value)
	case TypeLabour:
		b.Labour = b.Labour.Add(value)
	default:
		b.Unknown = b.Unknown.Add(value)
	}
	b.Total = b.Total.Add(value)
}
