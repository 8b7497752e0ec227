package revenue

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halverson/gearshift/internal/model"
	"github.com/halverson/gearshift/internal/storage"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestAttribute(t *testing.T) {
	mk := func(orderType model.OrderType, total, tax string) model.LineItem {
		return model.LineItem{
			OrderType: orderType,
			LineTotal: dec(t, total),
			TaxAmount: dec(t, tax),
		}
	}

	items := []model.LineItem{
		mk(model.TypeSales, "100", "18"),
		mk(model.TypeService, "200", "0"),
		mk(model.TypeLabour, "50", "9"),
		mk(model.TypeLabour, "25", "0"),
		mk(model.TypeMixed, "10", "0"),
		mk(model.OrderType(""), "5", "0"),
	}

	bucket := Attribute(items)

	assert.True(t, bucket.Sales.Equal(dec(t, "118")), "sales %s", bucket.Sales)
	assert.True(t, bucket.Service.Equal(dec(t, "200")))
	assert.True(t, bucket.Labour.Equal(dec(t, "84")))
	assert.True(t, bucket.Unknown.Equal(dec(t, "15")), "unrecognized types land in unknown")

	// The total is always the exact sum of the four buckets.
	sum := bucket.Sales.Add(bucket.Service).Add(bucket.Labour).Add(bucket.Unknown)
	assert.True(t, bucket.Total.Equal(sum), "total %s, sum %s", bucket.Total, sum)
}

func TestAttribute_Empty(t *testing.T) {
	bucket := Attribute(nil)
	assert.True(t, bucket.Total.IsZero())
	assert.Zero(t, bucket.Count)
}

func setupReporter(t *testing.T) (*Reporter, *storage.SQLiteStorage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return NewReporter(store), store
}

func saveInvoice(t *testing.T, store *storage.SQLiteStorage, number string, date time.Time, status model.InvoiceStatus, vehicle string, items []model.LineItem) {
	t.Helper()
	inv := &model.Invoice{
		Number:       number,
		Status:       status,
		CustomerName: "Customer",
		VehicleID:    vehicle,
		InvoiceDate:  date,
		Subtotal:     decimal.Zero,
		TaxAmount:    decimal.Zero,
		TaxRate:      decimal.Zero,
		TotalAmount:  decimal.Zero,
	}
	require.NoError(t, store.SaveInvoice(context.Background(), inv, items))
}

func item(t *testing.T, orderType model.OrderType, total string) model.LineItem {
	t.Helper()
	return model.LineItem{
		Description: "Item",
		Qty:         dec(t, "1"),
		UnitPrice:   dec(t, total),
		LineTotal:   dec(t, total),
		TaxRate:     decimal.Zero,
		TaxAmount:   decimal.Zero,
		OrderType:   orderType,
	}
}

func TestReporter(t *testing.T) {
	reporter, store := setupReporter(t)
	ctx := context.Background()

	march := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	april := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)

	saveInvoice(t, store, "INV-2026-00001", march, model.InvoicePaid, "KA-01", []model.LineItem{
		item(t, model.TypeLabour, "100"),
		item(t, model.TypeSales, "40"),
	})
	saveInvoice(t, store, "INV-2026-00002", april, model.InvoiceIssued, "KA-02", []model.LineItem{
		item(t, model.TypeService, "250"),
	})
	// Cancelled invoices never count toward revenue.
	saveInvoice(t, store, "INV-2026-00003", april, model.InvoiceCancelled, "KA-01", []model.LineItem{
		item(t, model.TypeSales, "9999"),
	})

	t.Run("all time", func(t *testing.T) {
		bucket, err := reporter.AllTime(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, bucket.Count)
		assert.True(t, bucket.Total.Equal(dec(t, "390")), "total %s", bucket.Total)
		assert.True(t, bucket.Labour.Equal(dec(t, "100")))
		assert.True(t, bucket.Sales.Equal(dec(t, "40")))
		assert.True(t, bucket.Service.Equal(dec(t, "250")))
	})

	t.Run("date range", func(t *testing.T) {
		from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
		bucket, err := reporter.ByDateRange(ctx, &from, &to)
		require.NoError(t, err)
		assert.Equal(t, 1, bucket.Count)
		assert.True(t, bucket.Total.Equal(dec(t, "140")))
	})

	t.Run("this month", func(t *testing.T) {
		bucket, err := reporter.ThisMonth(ctx, time.Date(2026, 4, 15, 12, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, 1, bucket.Count)
		assert.True(t, bucket.Service.Equal(dec(t, "250")))
	})

	t.Run("vehicles", func(t *testing.T) {
		bucket, err := reporter.ForVehicles(ctx, []string{"KA-01"}, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, bucket.Count)
		assert.True(t, bucket.Total.Equal(dec(t, "140")))
	})

	t.Run("empty result is a zero bucket", func(t *testing.T) {
		bucket, err := reporter.ForVehicles(ctx, []string{"NOPE"}, nil, nil)
		require.NoError(t, err)
		assert.Zero(t, bucket.Count)
		assert.True(t, bucket.Total.IsZero())
	})
}
