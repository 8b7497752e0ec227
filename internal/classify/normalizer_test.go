package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/halverson/gearshift/internal/model"
)

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		name     string
		category string
		want     model.OrderType
	}{
		{name: "empty string", category: "", want: model.TypeUnspecified},
		{name: "whitespace only", category: "   ", want: model.TypeUnspecified},
		{name: "labour exact", category: "labour", want: model.TypeLabour},
		{name: "labour mixed case", category: "Labour", want: model.TypeLabour},
		{name: "labour padded", category: "  LABOUR  ", want: model.TypeLabour},
		{name: "service exact", category: "service", want: model.TypeService},
		{name: "tyre service", category: "tyre service", want: model.TypeService},
		{name: "contains tyre", category: "Tyre Fitting", want: model.TypeService},
		{name: "contains service", category: "full service package", want: model.TypeService},
		{name: "unknown falls back to labour", category: "bodywork", want: model.TypeLabour},
		{name: "sales string is not special", category: "sales", want: model.TypeLabour},
		{name: "numeric garbage", category: "12345", want: model.TypeLabour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCategory(tt.category))
		})
	}
}

// The normalizer must be total: anything that is not empty, labour, or
// service-like classifies as labour, never as sales or mixed.
func TestNormalizeCategory_NeverSalesOrMixed(t *testing.T) {
	inputs := []string{"", "labour", "service", "tyre", "parts", "misc", "LABOUR charges", "\t\n"}
	for _, in := range inputs {
		got := NormalizeCategory(in)
		assert.NotEqual(t, model.TypeSales, got, "input %q", in)
		assert.NotEqual(t, model.TypeMixed, got, "input %q", in)
	}
}
