package storage

import (
	"context"
	"testing"

	"github.com/halverson/gearshift/internal/model"
)

func seedCodes(t *testing.T, store *SQLiteStorage, codes map[string]string) {
	t.Helper()
	ctx := context.Background()
	for code, category := range codes {
		lc := &model.LabourCode{Code: code, Category: category, IsActive: true}
		if err := store.UpsertLabourCode(ctx, lc); err != nil {
			t.Fatalf("Failed to seed code %s: %v", code, err)
		}
	}
}

func TestGetCodeCategories(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	seedCodes(t, store, map[string]string{
		"L100": "labour",
		"S200": "tyre service",
	})

	t.Run("empty input skips the query", func(t *testing.T) {
		got, err := store.GetCodeCategories(ctx, nil)
		if err != nil {
			t.Fatalf("GetCodeCategories() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected empty map, got %v", got)
		}
	})

	t.Run("mapped and unmapped codes", func(t *testing.T) {
		got, err := store.GetCodeCategories(ctx, []string{"L100", "S200", "MISSING"})
		if err != nil {
			t.Fatalf("GetCodeCategories() error = %v", err)
		}
		if len(got) != 2 || got["L100"] != "labour" || got["S200"] != "tyre service" {
			t.Errorf("unexpected result: %v", got)
		}
	})

	t.Run("match is case sensitive", func(t *testing.T) {
		got, err := store.GetCodeCategories(ctx, []string{"l100"})
		if err != nil {
			t.Fatalf("GetCodeCategories() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("lowercase code matched uppercase entry: %v", got)
		}
	})

	t.Run("inactive codes are excluded", func(t *testing.T) {
		if err := store.DeactivateLabourCode(ctx, "L100"); err != nil {
			t.Fatalf("DeactivateLabourCode() error = %v", err)
		}
		got, err := store.GetCodeCategories(ctx, []string{"L100"})
		if err != nil {
			t.Fatalf("GetCodeCategories() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("deactivated code still returned: %v", got)
		}
	})
}

func TestUpsertLabourCode(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	code := &model.LabourCode{Code: "L100", Category: "labour", Description: "General labour", IsActive: true}
	if err := store.UpsertLabourCode(ctx, code); err != nil {
		t.Fatalf("UpsertLabourCode() error = %v", err)
	}
	if code.ID == 0 {
		t.Error("expected ID to be set on insert")
	}

	// Same code again updates in place.
	update := &model.LabourCode{Code: "L100", Category: "tyre service", IsActive: true}
	if err := store.UpsertLabourCode(ctx, update); err != nil {
		t.Fatalf("UpsertLabourCode() update error = %v", err)
	}
	if update.ID != code.ID {
		t.Errorf("update created a new row: %d vs %d", update.ID, code.ID)
	}

	got, err := store.GetCodeCategories(ctx, []string{"L100"})
	if err != nil {
		t.Fatalf("GetCodeCategories() error = %v", err)
	}
	if got["L100"] != "tyre service" {
		t.Errorf("category = %q, want %q", got["L100"], "tyre service")
	}

	// Validation failures.
	if err := store.UpsertLabourCode(ctx, nil); err == nil {
		t.Error("expected error for nil code")
	}
	if err := store.UpsertLabourCode(ctx, &model.LabourCode{Code: "  ", Category: "labour"}); err == nil {
		t.Error("expected error for blank code")
	}
	if err := store.UpsertLabourCode(ctx, &model.LabourCode{Code: "X1", Category: " "}); err == nil {
		t.Error("expected error for blank category")
	}
}

func TestGetLabourCodes(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	seedCodes(t, store, map[string]string{
		"B001": "labour",
		"A001": "service",
	})
	if err := store.DeactivateLabourCode(ctx, "B001"); err != nil {
		t.Fatalf("DeactivateLabourCode() error = %v", err)
	}

	active, err := store.GetLabourCodes(ctx, true)
	if err != nil {
		t.Fatalf("GetLabourCodes(active) error = %v", err)
	}
	if len(active) != 1 || active[0].Code != "A001" {
		t.Errorf("unexpected active codes: %+v", active)
	}

	all, err := store.GetLabourCodes(ctx, false)
	if err != nil {
		t.Fatalf("GetLabourCodes(all) error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 codes, got %d", len(all))
	}
	// Ordered by code.
	if all[0].Code != "A001" || all[1].Code != "B001" {
		t.Errorf("unexpected order: %s, %s", all[0].Code, all[1].Code)
	}
	if all[1].IsActive {
		t.Error("deactivated code still active")
	}
}

func TestDeactivateLabourCode_NotFound(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	if err := store.DeactivateLabourCode(context.Background(), "NOPE"); err == nil {
		t.Error("expected error for unknown code")
	}
}
