// Package revenue computes revenue breakdowns by order type from
// persisted invoice line items.
package revenue

import (
	"context"
	"fmt"
	"time"

	"github.com/halverson/gearshift/internal/model"
	"github.com/halverson/gearshift/internal/service"
)

// Attribute reduces classified line items into a revenue bucket. Each
// item contributes line total plus tax to the bucket matching its
// persisted order type; null or unrecognized types land in Unknown.
// The bucket's invoice Count is left for the caller to fill in, since
// line items alone cannot tell how many invoices they span.
func Attribute(items []model.LineItem) model.RevenueBucket {
	bucket := model.NewRevenueBucket()
	for _, it := range items {
		bucket.Add(it.OrderType, it.LineTotal.Add(it.TaxAmount))
	}
	return bucket
}

// Reporter answers revenue queries over the invoice store.
type Reporter struct {
	store service.Storage
}

// NewReporter creates a reporter over the given storage.
func NewReporter(store service.Storage) *Reporter {
	return &Reporter{store: store}
}

// ByDateRange returns the revenue breakdown for billable invoices
// (draft, issued, or paid) dated within [from, to]. Either bound may be
// nil to leave that side open.
func (r *Reporter) ByDateRange(ctx context.Context, from, to *time.Time) (model.RevenueBucket, error) {
	return r.attribute(ctx, service.InvoiceFilter{From: from, To: to})
}

// ThisMonth returns the revenue breakdown for the calendar month
// containing now.
func (r *Reporter) ThisMonth(ctx context.Context, now time.Time) (model.RevenueBucket, error) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return r.ByDateRange(ctx, &start, &end)
}

// AllTime returns the revenue breakdown over every billable invoice.
func (r *Reporter) AllTime(ctx context.Context) (model.RevenueBucket, error) {
	return r.attribute(ctx, service.InvoiceFilter{})
}

// ForVehicles returns the revenue breakdown for invoices linked to the
// given vehicles, optionally bounded by date.
func (r *Reporter) ForVehicles(ctx context.Context, vehicleIDs []string, from, to *time.Time) (model.RevenueBucket, error) {
	return r.attribute(ctx, service.InvoiceFilter{From: from, To: to, VehicleIDs: vehicleIDs})
}

func (r *Reporter) attribute(ctx context.Context, filter service.InvoiceFilter) (model.RevenueBucket, error) {
	filter.Statuses = model.BillableStatuses

	invoices, err := r.store.GetInvoices(ctx, filter)
	if err != nil {
		return model.RevenueBucket{}, fmt.Errorf("failed to query invoices: %w", err)
	}
	if len(invoices) == 0 {
		return model.NewRevenueBucket(), nil
	}

	ids := make([]int64, len(invoices))
	for i, inv := range invoices {
		ids[i] = inv.ID
	}

	items, err := r.store.GetLineItemsForInvoices(ctx, ids)
	if err != nil {
		return model.RevenueBucket{}, fmt.Errorf("failed to query line items: %w", err)
	}

	bucket := Attribute(items)
	bucket.Count = len(invoices)
	return bucket, nil
}
