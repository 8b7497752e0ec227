package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS labour_codes (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					code TEXT UNIQUE NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					category TEXT NOT NULL,
					is_active INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_labour_codes_category ON labour_codes(category)`,
				`CREATE INDEX idx_labour_codes_active ON labour_codes(is_active)`,

				`CREATE TABLE IF NOT EXISTS orders (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					number TEXT UNIQUE NOT NULL,
					type TEXT NOT NULL,
					status TEXT NOT NULL DEFAULT 'created',
					mixed_categories TEXT,
					description TEXT,
					created_at DATETIME NOT NULL,
					started_at DATETIME,
					completed_at DATETIME,
					cancelled_at DATETIME
				)`,
				`CREATE INDEX idx_orders_status ON orders(status)`,
				`CREATE INDEX idx_orders_type ON orders(type)`,
				`CREATE INDEX idx_orders_created ON orders(created_at)`,

				`CREATE TABLE IF NOT EXISTS invoices (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					number TEXT UNIQUE NOT NULL,
					status TEXT NOT NULL DEFAULT 'draft',
					order_id INTEGER REFERENCES orders(id),
					customer_name TEXT NOT NULL DEFAULT '',
					invoice_date DATETIME NOT NULL,
					code_no TEXT,
					reference TEXT,
					subtotal TEXT NOT NULL DEFAULT '0',
					tax_amount TEXT NOT NULL DEFAULT '0',
					tax_rate TEXT NOT NULL DEFAULT '0',
					total_amount TEXT NOT NULL DEFAULT '0',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_invoices_order ON invoices(order_id)`,
				`CREATE INDEX idx_invoices_status ON invoices(status)`,
				`CREATE INDEX idx_invoices_date ON invoices(invoice_date)`,

				`CREATE TABLE IF NOT EXISTS invoice_line_items (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					invoice_id INTEGER NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
					code TEXT,
					description TEXT NOT NULL,
					unit TEXT,
					qty TEXT NOT NULL DEFAULT '1',
					unit_price TEXT NOT NULL DEFAULT '0',
					line_total TEXT NOT NULL DEFAULT '0',
					tax_rate TEXT NOT NULL DEFAULT '0',
					tax_amount TEXT NOT NULL DEFAULT '0',
					order_type TEXT NOT NULL DEFAULT 'unspecified',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_line_items_invoice ON invoice_line_items(invoice_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add vehicle tracking to invoices",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`ALTER TABLE invoices ADD COLUMN vehicle_id TEXT NOT NULL DEFAULT ''`,
				`CREATE INDEX idx_invoices_vehicle ON invoices(vehicle_id)`,
			}
			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Index line items by order type for revenue queries",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_line_items_order_type ON invoice_line_items(order_type)`)
			return err
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
