package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/halverson/gearshift/internal/common"
	"github.com/halverson/gearshift/internal/model"
	"github.com/halverson/gearshift/internal/service"
)

func TestCreateOrder(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	t.Run("generates number and defaults", func(t *testing.T) {
		order := &model.Order{Type: model.TypeUnspecified}
		if err := store.CreateOrder(ctx, order); err != nil {
			t.Fatalf("CreateOrder() error = %v", err)
		}
		if order.ID == 0 {
			t.Error("expected ID to be set")
		}
		if !strings.HasPrefix(order.Number, "ORD") {
			t.Errorf("unexpected number: %s", order.Number)
		}
		if order.Status != model.StatusCreated {
			t.Errorf("status = %s, want created", order.Status)
		}
	})

	t.Run("inquiry orders complete at creation", func(t *testing.T) {
		order := &model.Order{Type: model.TypeInquiry}
		if err := store.CreateOrder(ctx, order); err != nil {
			t.Fatalf("CreateOrder() error = %v", err)
		}
		if order.Status != model.StatusCompleted {
			t.Errorf("status = %s, want completed", order.Status)
		}
		if order.CompletedAt == nil {
			t.Error("expected CompletedAt to be set")
		}
	})

	t.Run("explicit number must be unique", func(t *testing.T) {
		first := &model.Order{Number: "ORD-FIXED", Type: model.TypeSales}
		if err := store.CreateOrder(ctx, first); err != nil {
			t.Fatalf("CreateOrder() error = %v", err)
		}
		dup := &model.Order{Number: "ORD-FIXED", Type: model.TypeSales}
		if err := store.CreateOrder(ctx, dup); !errors.Is(err, common.ErrDuplicateEntry) {
			t.Errorf("CreateOrder() error = %v, want ErrDuplicateEntry", err)
		}
	})

	t.Run("rejects nil order", func(t *testing.T) {
		if err := store.CreateOrder(ctx, nil); err == nil {
			t.Error("expected error for nil order")
		}
	})
}

func TestGetOrderByNumber(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	created := createTestOrder(t, store, model.TypeLabour)

	got, err := store.GetOrderByNumber(ctx, created.Number)
	if err != nil {
		t.Fatalf("GetOrderByNumber() error = %v", err)
	}
	if got == nil || got.ID != created.ID || got.Type != model.TypeLabour {
		t.Errorf("unexpected order: %+v", got)
	}

	missing, err := store.GetOrderByNumber(ctx, "ORD-MISSING")
	if err != nil {
		t.Fatalf("GetOrderByNumber() error = %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown number, got %+v", missing)
	}
}

func TestGetOrders_Filtering(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	labour := createTestOrder(t, store, model.TypeLabour)
	sales := createTestOrder(t, store, model.TypeSales)
	if err := sales.Complete(time.Now()); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if err := store.UpdateOrder(ctx, sales); err != nil {
		t.Fatalf("UpdateOrder() error = %v", err)
	}

	byStatus, err := store.GetOrders(ctx, service.OrderFilter{Statuses: []model.OrderStatus{model.StatusCompleted}})
	if err != nil {
		t.Fatalf("GetOrders() error = %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].ID != sales.ID {
		t.Errorf("unexpected status filter result: %+v", byStatus)
	}

	byType, err := store.GetOrders(ctx, service.OrderFilter{Types: []model.OrderType{model.TypeLabour}})
	if err != nil {
		t.Fatalf("GetOrders() error = %v", err)
	}
	if len(byType) != 1 || byType[0].ID != labour.ID {
		t.Errorf("unexpected type filter result: %+v", byType)
	}

	limited, err := store.GetOrders(ctx, service.OrderFilter{Limit: 1})
	if err != nil {
		t.Fatalf("GetOrders() error = %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected 1 order with limit, got %d", len(limited))
	}
}

func TestUpdateOrderType(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	order := createTestOrder(t, store, model.TypeUnspecified)

	t.Run("mixed stores categories", func(t *testing.T) {
		err := store.UpdateOrderType(ctx, order.ID, model.TypeMixed, []string{"labour", "sales"})
		if err != nil {
			t.Fatalf("UpdateOrderType() error = %v", err)
		}

		got, err := store.GetOrderByNumber(ctx, order.Number)
		if err != nil {
			t.Fatalf("GetOrderByNumber() error = %v", err)
		}
		if got.Type != model.TypeMixed {
			t.Errorf("type = %s, want mixed", got.Type)
		}
		if len(got.MixedCategories) != 2 || got.MixedCategories[0] != "labour" {
			t.Errorf("unexpected categories: %v", got.MixedCategories)
		}
	})

	t.Run("non-mixed clears categories", func(t *testing.T) {
		err := store.UpdateOrderType(ctx, order.ID, model.TypeLabour, []string{"ignored"})
		if err != nil {
			t.Fatalf("UpdateOrderType() error = %v", err)
		}

		got, err := store.GetOrderByNumber(ctx, order.Number)
		if err != nil {
			t.Fatalf("GetOrderByNumber() error = %v", err)
		}
		if got.Type != model.TypeLabour || got.MixedCategories != nil {
			t.Errorf("unexpected state: type=%s categories=%v", got.Type, got.MixedCategories)
		}
	})

	t.Run("rejects empty type", func(t *testing.T) {
		if err := store.UpdateOrderType(ctx, order.ID, "", nil); err == nil {
			t.Error("expected error for empty type")
		}
	})
}

func TestProgressOrderStatuses(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now()

	fresh := &model.Order{Type: model.TypeLabour, CreatedAt: now}
	stale := &model.Order{Type: model.TypeLabour, CreatedAt: now.Add(-30 * time.Minute)}
	started := now.Add(-3 * time.Hour)
	running := &model.Order{
		Type:      model.TypeLabour,
		Status:    model.StatusInProgress,
		CreatedAt: now.Add(-4 * time.Hour),
		StartedAt: &started,
	}
	done := &model.Order{
		Type:      model.TypeLabour,
		Status:    model.StatusCompleted,
		CreatedAt: now.Add(-4 * time.Hour),
	}
	for _, o := range []*model.Order{fresh, stale, running, done} {
		if err := store.CreateOrder(ctx, o); err != nil {
			t.Fatalf("CreateOrder() error = %v", err)
		}
	}

	changed, err := store.ProgressOrderStatuses(ctx, now)
	if err != nil {
		t.Fatalf("ProgressOrderStatuses() error = %v", err)
	}
	if changed != 2 {
		t.Errorf("changed = %d, want 2", changed)
	}

	wantStatus := map[string]model.OrderStatus{
		fresh.Number:   model.StatusCreated,
		stale.Number:   model.StatusInProgress,
		running.Number: model.StatusOverdue,
		done.Number:    model.StatusCompleted,
	}
	for number, want := range wantStatus {
		got, err := store.GetOrderByNumber(ctx, number)
		if err != nil {
			t.Fatalf("GetOrderByNumber(%s) error = %v", number, err)
		}
		if got.Status != want {
			t.Errorf("order %s status = %s, want %s", number, got.Status, want)
		}
	}

	// The progressed order picked up a start time.
	got, err := store.GetOrderByNumber(ctx, stale.Number)
	if err != nil {
		t.Fatalf("GetOrderByNumber() error = %v", err)
	}
	if got.StartedAt == nil {
		t.Error("expected StartedAt on progressed order")
	}

	// A second sweep at the same instant changes nothing.
	changed, err = store.ProgressOrderStatuses(ctx, now)
	if err != nil {
		t.Fatalf("ProgressOrderStatuses() error = %v", err)
	}
	if changed != 0 {
		t.Errorf("second sweep changed = %d, want 0", changed)
	}
}
