package storage

import (
	"context"
	"testing"
)

func TestMigrate(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	var version int
	if err := store.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("Failed to read schema version: %v", err)
	}
	if version != ExpectedSchemaVersion {
		t.Errorf("schema version = %d, want %d", version, ExpectedSchemaVersion)
	}

	// Running migrations again is a no-op.
	if err := store.Migrate(ctx); err != nil {
		t.Errorf("second Migrate() error = %v", err)
	}

	// All tables exist.
	for _, table := range []string{"labour_codes", "orders", "invoices", "invoice_line_items"} {
		var name string
		err := store.db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestMigrationVersionsAreOrdered(t *testing.T) {
	last := 0
	for _, m := range migrations {
		if m.Version != last+1 {
			t.Errorf("migration versions must be sequential: got %d after %d", m.Version, last)
		}
		last = m.Version
	}
	if last != ExpectedSchemaVersion {
		t.Errorf("last migration version = %d, want %d", last, ExpectedSchemaVersion)
	}
}
