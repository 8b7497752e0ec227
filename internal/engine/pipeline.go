// Package engine orchestrates invoice ingestion: collapsing extracted
// line items, classifying them against the labour code registry,
// persisting the invoice atomically, and propagating the detected
// order type to the linked order.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/halverson/gearshift/internal/classify"
	"github.com/halverson/gearshift/internal/common"
	"github.com/halverson/gearshift/internal/model"
	"github.com/halverson/gearshift/internal/service"
)

// Pipeline ingests extracted invoices into storage.
type Pipeline struct {
	store    service.Storage
	detector *classify.Detector
	retry    service.RetryOptions
}

// New creates a pipeline over the given storage.
func New(store service.Storage) *Pipeline {
	return &Pipeline{
		store:    store,
		detector: classify.NewDetector(store),
		retry: service.RetryOptions{
			MaxAttempts:  5,
			InitialDelay: 200 * time.Millisecond,
		},
	}
}

// PreviewItem is one aggregated line item enriched with its
// classification, for showing the operator before ingestion.
type PreviewItem struct {
	Item     model.AggregatedItem
	Category string
	Type     model.OrderType
}

// Preview is the classification outcome for an extracted invoice
// without any persistence.
type Preview struct {
	Items  []PreviewItem
	Result model.OrderTypeResult
}

// PreviewClassification aggregates and classifies the extracted items
// without writing anything.
func (p *Pipeline) PreviewClassification(ctx context.Context, doc model.ExtractedInvoice) (*Preview, error) {
	aggregated := classify.AggregateItems(doc.Items)

	codes := make([]string, 0, len(aggregated))
	hasCodeless := false
	for _, agg := range aggregated {
		if agg.Code != "" {
			codes = append(codes, agg.Code)
		} else {
			hasCodeless = true
		}
	}

	infos, err := p.detector.CodeCategories(ctx, codes)
	if err != nil {
		return nil, err
	}

	preview := &Preview{Items: make([]PreviewItem, len(aggregated))}
	for i, agg := range aggregated {
		info := classify.CodeInfo{Category: "Sales", Type: model.TypeSales}
		if agg.Code != "" {
			if found, ok := infos[agg.Code]; ok {
				info = found
			}
		}
		preview.Items[i] = PreviewItem{Item: agg, Category: info.Category, Type: info.Type}
	}

	result, err := p.detector.Detect(ctx, codes)
	if err != nil {
		return nil, err
	}
	if hasCodeless {
		result = classify.AddSales(result)
	}
	preview.Result = result

	return preview, nil
}

// IngestInvoice persists an extracted invoice. Line items are
// aggregated, classified, and written together with the invoice in one
// transaction, replacing any previous line items for the same invoice.
// When orderNumber is non-empty the invoice is linked to that order and
// the order's aggregate type is re-detected across all its invoices.
func (p *Pipeline) IngestInvoice(ctx context.Context, doc model.ExtractedInvoice, orderNumber string) (*model.Invoice, error) {
	aggregated := classify.AggregateItems(doc.Items)
	if len(aggregated) == 0 && doc.Header.Total.IsZero() {
		return nil, common.ErrEmptyExtraction
	}

	items, err := p.classifyItems(ctx, aggregated)
	if err != nil {
		return nil, err
	}

	var order *model.Order
	if orderNumber != "" {
		order, err = p.store.GetOrderByNumber(ctx, orderNumber)
		if err != nil {
			return nil, err
		}
		if order == nil {
			return nil, common.NewUserError(fmt.Sprintf("order %s not found", orderNumber), common.ErrNotFound)
		}
	}

	invoice, err := p.resolveInvoice(ctx, doc.Header, order)
	if err != nil {
		return nil, err
	}
	invoice.ApplyTotals(items)

	if err := common.WithRetry(ctx, func() error {
		return p.store.SaveInvoice(ctx, invoice, items)
	}, p.retry); err != nil {
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}

	slog.Info("ingested invoice",
		"number", invoice.Number,
		"items", len(items),
		"total", invoice.TotalAmount)

	if order != nil {
		if err := p.RefreshOrderType(ctx, order.ID); err != nil {
			// The invoice is saved; a failed type refresh should not
			// undo the ingestion.
			slog.Warn("failed to refresh order type", "order", order.Number, "error", err)
		}
	}

	return invoice, nil
}

// RefreshOrderType re-detects an order's aggregate type from the item
// codes across every invoice linked to it and persists the outcome.
// Codeless line items count as sales. Mixed categories are stored only
// for mixed orders.
func (p *Pipeline) RefreshOrderType(ctx context.Context, orderID int64) error {
	codes, err := p.store.GetItemCodesForOrder(ctx, orderID)
	if err != nil {
		return err
	}

	result, err := p.detector.Detect(ctx, codes)
	if err != nil {
		return err
	}

	hasCodeless, err := p.store.OrderHasCodelessItems(ctx, orderID)
	if err != nil {
		return err
	}
	if hasCodeless {
		result = classify.AddSales(result)
	}

	var mixed []string
	if result.Type == model.TypeMixed {
		mixed = result.Categories
	}
	return p.store.UpdateOrderType(ctx, orderID, result.Type, mixed)
}

// classifyItems turns aggregated items into persistable line items.
// Codeless items classify as sales.
func (p *Pipeline) classifyItems(ctx context.Context, aggregated []model.AggregatedItem) ([]model.LineItem, error) {
	codes := make([]string, 0, len(aggregated))
	for _, agg := range aggregated {
		if agg.Code != "" {
			codes = append(codes, agg.Code)
		}
	}

	infos, err := p.detector.CodeCategories(ctx, codes)
	if err != nil {
		return nil, err
	}

	items := make([]model.LineItem, len(aggregated))
	for i, agg := range aggregated {
		orderType := model.TypeSales
		if agg.Code != "" {
			if info, ok := infos[agg.Code]; ok {
				orderType = info.Type
			}
		}

		items[i] = model.LineItem{
			Code:        agg.Code,
			Description: agg.Description,
			Unit:        agg.Unit,
			Qty:         agg.Qty,
			UnitPrice:   agg.UnitPrice,
			LineTotal:   agg.LineTotal,
			TaxRate:     decimal.Zero,
			TaxAmount:   decimal.Zero,
			OrderType:   orderType,
		}
	}

	return items, nil
}

// resolveInvoice finds the invoice row to write. An extracted number
// reuses the matching invoice only when it belongs to the same order
// or to no order at all; a number owned by a different order gets a
// freshly allocated one so that order keeps its billing data. A
// document without a number reuses the order's existing invoice on
// re-upload, otherwise a sequential number is allocated.
func (p *Pipeline) resolveInvoice(ctx context.Context, header model.ExtractedHeader, order *model.Order) (*model.Invoice, error) {
	invoiceDate := header.Date
	if invoiceDate.IsZero() {
		invoiceDate = time.Now()
	}

	number := header.InvoiceNo
	var invoice *model.Invoice
	if number != "" {
		existing, err := p.store.GetInvoiceByNumber(ctx, number)
		if err != nil {
			return nil, err
		}
		switch {
		case existing == nil:
			// The extracted number is free to use.
		case existing.OrderID == 0 || (order != nil && existing.OrderID == order.ID):
			invoice = existing
		default:
			number, err = p.store.NextInvoiceNumber(ctx, invoiceDate.Year())
			if err != nil {
				return nil, err
			}
			slog.Warn("invoice number belongs to another order, allocated a new one",
				"extracted", header.InvoiceNo, "allocated", number)
		}
	} else if order != nil {
		existing, err := p.store.GetInvoiceForOrder(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		invoice = existing
	}

	if invoice == nil {
		if number == "" {
			var err error
			number, err = p.store.NextInvoiceNumber(ctx, invoiceDate.Year())
			if err != nil {
				return nil, err
			}
		}
		invoice = &model.Invoice{
			Number: number,
			Status: model.InvoiceDraft,
		}
	}

	invoice.InvoiceDate = invoiceDate
	invoice.CustomerName = header.CustomerName
	invoice.CodeNo = header.CodeNo
	invoice.Reference = header.Reference
	invoice.VehicleID = header.Plate
	invoice.Subtotal = header.Subtotal
	invoice.TaxAmount = header.Tax
	invoice.TotalAmount = header.Total
	if order != nil {
		invoice.OrderID = order.ID
	}

	return invoice, nil
}
