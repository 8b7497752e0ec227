package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/halverson/gearshift/internal/model"
)

// GetCodeCategories returns code -> category for the active registry
// entries matching the given codes. Codes absent from the registry are
// simply missing from the result. An empty input returns an empty map
// without querying.
func (s *SQLiteStorage) GetCodeCategories(ctx context.Context, codes []string) (map[string]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		return map[string]string{}, nil
	}

	query := fmt.Sprintf(`
		SELECT code, category
		FROM labour_codes
		WHERE is_active = 1 AND code IN (%s)`, placeholders(len(codes)))

	args := make([]any, len(codes))
	for i, c := range codes {
		args[i] = c
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query labour codes: %w", err)
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var code, category string
		if err := rows.Scan(&code, &category); err != nil {
			return nil, fmt.Errorf("failed to scan labour code: %w", err)
		}
		result[code] = category
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating labour codes: %w", err)
	}

	slog.Debug("looked up labour codes", "requested", len(codes), "found", len(result))
	return result, nil
}

// GetLabourCodes returns registry entries ordered by code, optionally
// restricted to active ones.
func (s *SQLiteStorage) GetLabourCodes(ctx context.Context, activeOnly bool) ([]model.LabourCode, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, code, description, category, is_active, created_at, updated_at
		FROM labour_codes`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY code`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query labour codes: %w", err)
	}
	defer rows.Close()

	var codes []model.LabourCode
	for rows.Next() {
		var lc model.LabourCode
		if err := rows.Scan(&lc.ID, &lc.Code, &lc.Description, &lc.Category, &lc.IsActive, &lc.CreatedAt, &lc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan labour code: %w", err)
		}
		codes = append(codes, lc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating labour codes: %w", err)
	}

	return codes, nil
}

// UpsertLabourCode creates a registry entry or updates the existing
// entry with the same code, reactivating it if needed.
func (s *SQLiteStorage) UpsertLabourCode(ctx context.Context, code *model.LabourCode) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateLabourCode(code); err != nil {
		return err
	}

	code.Code = strings.TrimSpace(code.Code)
	code.Category = strings.TrimSpace(code.Category)
	now := time.Now()

	var existingID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM labour_codes WHERE code = ?`, code.Code).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		result, insErr := s.db.ExecContext(ctx, `
			INSERT INTO labour_codes (code, description, category, is_active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			code.Code, code.Description, code.Category, code.IsActive, now, now)
		if insErr != nil {
			return fmt.Errorf("failed to create labour code: %w", insErr)
		}
		id, idErr := result.LastInsertId()
		if idErr != nil {
			return fmt.Errorf("failed to get labour code ID: %w", idErr)
		}
		code.ID = id
		code.CreatedAt = now
		code.UpdatedAt = now
		slog.Info("created labour code", "code", code.Code, "category", code.Category)
		return nil
	case err != nil:
		return fmt.Errorf("failed to check existing labour code: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE labour_codes
		SET description = ?, category = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		code.Description, code.Category, code.IsActive, now, existingID)
	if err != nil {
		return fmt.Errorf("failed to update labour code: %w", err)
	}
	code.ID = existingID
	code.UpdatedAt = now
	slog.Info("updated labour code", "code", code.Code, "category", code.Category)
	return nil
}

// DeactivateLabourCode excludes a code from future lookups without
// deleting its history.
func (s *SQLiteStorage) DeactivateLabourCode(ctx context.Context, code string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(code, "code"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE labour_codes SET is_active = 0, updated_at = ? WHERE code = ?`,
		time.Now(), strings.TrimSpace(code))
	if err != nil {
		return fmt.Errorf("failed to deactivate labour code: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deactivation result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("labour code %q not found", code)
	}

	slog.Info("deactivated labour code", "code", code)
	return nil
}
