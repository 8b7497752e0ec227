// Package model defines the core domain models used throughout the application.
package model

import "strings"

// OrderType classifies an order or invoice line item by the kind of
// work billed: workshop labour, tyre/vehicle service, parts sales, or
// a mix of those.
type OrderType string

// Order type constants.
const (
	TypeLabour      OrderType = "labour"
	TypeService     OrderType = "service"
	TypeSales       OrderType = "sales"
	TypeInquiry     OrderType = "inquiry"
	TypeUnspecified OrderType = "unspecified"
	TypeMixed       OrderType = "mixed"
)

// ParseOrderType maps a stored string to an OrderType. The boolean is
// false for unrecognized values so callers can apply their own fallback.
func ParseOrderType(s string) (OrderType, bool) {
	switch OrderType(strings.ToLower(strings.TrimSpace(s))) {
	case TypeLabour:
		return TypeLabour, true
	case TypeService:
		return TypeService, true
	case TypeSales:
		return TypeSales, true
	case TypeInquiry:
		return TypeInquiry, true
	case TypeUnspecified:
		return TypeUnspecified, true
	case TypeMixed:
		return TypeMixed, true
	default:
		return TypeUnspecified, false
	}
}

// Display returns the human-facing name for the order type.
func (t OrderType) Display() string {
	switch t {
	case TypeLabour:
		return "Labour"
	case TypeService:
		return "Service"
	case TypeSales:
		return "Sales"
	case TypeInquiry:
		return "Inquiry"
	case TypeMixed:
		return "Mixed"
	case TypeUnspecified:
		return "Unspecified"
	default:
		return strings.Title(string(t)) //nolint:staticcheck // ASCII tags only
	}
}
