package extract

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadInvoice(t *testing.T) {
	doc, err := ReadInvoice(strings.NewReader(`{
		"header": {
			"invoice_no": " EXT-100 ",
			"customer_name": "A. Driver",
			"plate": "KA-01-1234",
			"date": "2026-03-10",
			"subtotal": "1,650.00",
			"tax": 297,
			"total": "1947"
		},
		"items": [
			{"code": "L100", "description": "Engine work", "unit": "hrs", "qty": 2, "rate": "60"},
			{"description": "Tire X", "qty": "1", "value": 45.5},
			{"code": "X", "description": "   "},
			{"description": "Defaults everywhere"}
		]
	}`))
	require.NoError(t, err)

	assert.Equal(t, "EXT-100", doc.Header.InvoiceNo)
	assert.Equal(t, "A. Driver", doc.Header.CustomerName)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), doc.Header.Date)
	assert.Equal(t, "1650", doc.Header.Subtotal.String(), "thousands separators stripped")
	assert.Equal(t, "297", doc.Header.Tax.String())
	assert.Equal(t, "1947", doc.Header.Total.String())

	// The blank-description row is dropped.
	require.Len(t, doc.Items, 3)

	first := doc.Items[0]
	assert.Equal(t, "L100", first.Code)
	assert.Equal(t, "hrs", first.Unit)
	assert.Equal(t, "2", first.Qty.String())
	require.True(t, first.Rate.Valid)
	assert.Equal(t, "60", first.Rate.Decimal.String())
	assert.False(t, first.Value.Valid)

	second := doc.Items[1]
	assert.Empty(t, second.Code)
	require.True(t, second.Value.Valid)
	assert.Equal(t, "45.5", second.Value.Decimal.String())

	// No numeric fields at all: qty defaults to one, money stays null.
	third := doc.Items[2]
	assert.Equal(t, "1", third.Qty.String())
	assert.False(t, third.Rate.Valid)
	assert.False(t, third.Value.Valid)
}

func TestReadInvoice_LenientCoercion(t *testing.T) {
	doc, err := ReadInvoice(strings.NewReader(`{
		"header": {"date": "10/03/2026", "subtotal": "n/a", "total": null},
		"items": [
			{"description": "Weird qty", "qty": "-3", "rate": "abc", "value": ""},
			{"description": "Zero qty", "qty": 0}
		]
	}`))
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), doc.Header.Date)
	assert.True(t, doc.Header.Subtotal.IsZero(), "unparsable amount coerces to zero")
	assert.True(t, doc.Header.Total.IsZero())

	require.Len(t, doc.Items, 2)
	assert.Equal(t, "1", doc.Items[0].Qty.String(), "non-positive qty coerces to one")
	assert.False(t, doc.Items[0].Rate.Valid)
	assert.False(t, doc.Items[0].Value.Valid)
	assert.Equal(t, "1", doc.Items[1].Qty.String())
}

func TestReadInvoice_BadDocument(t *testing.T) {
	_, err := ReadInvoice(strings.NewReader("not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse extracted invoice")
}

func TestReadInvoice_UnknownDateFormat(t *testing.T) {
	doc, err := ReadInvoice(strings.NewReader(`{"header": {"date": "March 10th"}, "items": []}`))
	require.NoError(t, err)
	assert.True(t, doc.Header.Date.IsZero())
}
