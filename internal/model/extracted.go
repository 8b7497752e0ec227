package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExtractedHeader is the invoice-level data produced by extraction.
// Monetary fields default to zero when the extractor found nothing; a
// zero Date means no date was extracted.
type ExtractedHeader struct {
	Date         time.Time
	InvoiceNo    string
	CodeNo       string
	CustomerName string
	Reference    string
	Plate        string
	Subtotal     decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
}

// ExtractedInvoice is a full extracted invoice document, the input to
// the ingestion pipeline.
type ExtractedInvoice struct {
	Header ExtractedHeader
	Items  []ExtractedItem
}
