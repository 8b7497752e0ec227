// Package extract reads extracted-invoice documents into domain types.
// The upstream PDF/text extractor emits a JSON document with an invoice
// header and a list of raw line items; this package parses that
// document leniently, coercing malformed numeric fields to safe
// defaults instead of rejecting the invoice.
package extract

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/halverson/gearshift/internal/model"
)

// rawDocument mirrors the extractor's JSON output. Numeric fields are
// raw JSON values because extractors emit them inconsistently as
// numbers or strings ("1,500.00").
type rawDocument struct {
	Header rawHeader `json:"header"`
	Items  []rawItem `json:"items"`
}

type rawHeader struct {
	InvoiceNo    string          `json:"invoice_no"`
	CodeNo       string          `json:"code_no"`
	CustomerName string          `json:"customer_name"`
	Reference    string          `json:"reference"`
	Plate        string          `json:"plate"`
	Date         string          `json:"date"`
	Subtotal     json.RawMessage `json:"subtotal"`
	Tax          json.RawMessage `json:"tax"`
	Total        json.RawMessage `json:"total"`
}

type rawItem struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	Qty         json.RawMessage `json:"qty"`
	Rate        json.RawMessage `json:"rate"`
	Value       json.RawMessage `json:"value"`
}

// ReadInvoice parses one extracted-invoice JSON document.
func ReadInvoice(r io.Reader) (model.ExtractedInvoice, error) {
	var raw rawDocument
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return model.ExtractedInvoice{}, fmt.Errorf("failed to parse extracted invoice: %w", err)
	}

	doc := model.ExtractedInvoice{
		Header: model.ExtractedHeader{
			InvoiceNo:    strings.TrimSpace(raw.Header.InvoiceNo),
			CodeNo:       strings.TrimSpace(raw.Header.CodeNo),
			CustomerName: strings.TrimSpace(raw.Header.CustomerName),
			Reference:    strings.TrimSpace(raw.Header.Reference),
			Plate:        strings.TrimSpace(raw.Header.Plate),
			Date:         parseDate(raw.Header.Date),
			Subtotal:     coerceAmount(raw.Header.Subtotal),
			Tax:          coerceAmount(raw.Header.Tax),
			Total:        coerceAmount(raw.Header.Total),
		},
	}

	for _, it := range raw.Items {
		desc := strings.TrimSpace(it.Description)
		if desc == "" {
			continue
		}
		doc.Items = append(doc.Items, model.ExtractedItem{
			Code:        strings.TrimSpace(it.Code),
			Description: desc,
			Unit:        strings.TrimSpace(it.Unit),
			Qty:         coerceQty(it.Qty),
			Rate:        coerceOptional(it.Rate),
			Value:       coerceOptional(it.Value),
		})
	}

	return doc, nil
}

// coerceQty parses a quantity, defaulting to 1 when missing,
// unparsable, or non-positive.
func coerceQty(raw json.RawMessage) decimal.Decimal {
	one := decimal.NewFromInt(1)
	d, ok := parseNumber(raw)
	if !ok || !d.IsPositive() {
		return one
	}
	return d
}

// coerceAmount parses a monetary amount, defaulting to zero.
func coerceAmount(raw json.RawMessage) decimal.Decimal {
	d, ok := parseNumber(raw)
	if !ok {
		return decimal.Zero
	}
	return d
}

// coerceOptional parses an optional monetary field, staying null when
// the extractor supplied nothing usable.
func coerceOptional(raw json.RawMessage) decimal.NullDecimal {
	d, ok := parseNumber(raw)
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// parseNumber accepts JSON numbers, numeric strings with optional
// thousands separators, and nothing else.
func parseNumber(raw json.RawMessage) (decimal.Decimal, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return decimal.Zero, false
	}

	text := strings.TrimSpace(string(raw))
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, false
		}
		text = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	}
	if text == "" {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		slog.Debug("unparsable numeric field in extraction", "value", text)
		return decimal.Zero, false
	}
	return d, true
}

// parseDate accepts the date formats the extractor produces. A zero
// time means no date was extracted.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", "02/01/2006", "02-01-2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	slog.Debug("unparsable date in extraction", "value", s)
	return time.Time{}
}
