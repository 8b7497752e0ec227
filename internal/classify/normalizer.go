// Package classify implements the order-type classification pipeline:
// collapsing extracted invoice line items, mapping item codes through
// the labour code registry, and deriving the aggregate order type.
package classify

import (
	"strings"

	"github.com/halverson/gearshift/internal/model"
)

// NormalizeCategory maps a raw registry category string to an order
// type tag. It is total over all inputs and never returns sales or
// mixed: sales is inferred from the absence of a registry mapping, and
// mixed only from combining tags.
//
// Any non-empty category that is not "labour" and contains neither
// "tyre" nor "service" still normalizes to labour. This mirrors how the
// registry has historically been used; see DESIGN.md before changing it.
func NormalizeCategory(category string) model.OrderType {
	c := strings.ToLower(strings.TrimSpace(category))
	switch {
	case c == "":
		return model.TypeUnspecified
	case c == "labour":
		return model.TypeLabour
	case strings.Contains(c, "tyre"), strings.Contains(c, "service"):
		return model.TypeService
	default:
		return model.TypeLabour
	}
}
