package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/halverson/gearshift/internal/model"
	"github.com/halverson/gearshift/internal/service"
)

// GetInvoiceByNumber returns the invoice with the given number, or
// (nil, nil) when it does not exist.
func (s *SQLiteStorage) GetInvoiceByNumber(ctx context.Context, number string) (*model.Invoice, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(number, "number"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, invoiceSelect+` WHERE number = ?`, number)
	invoice, err := scanInvoice(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query invoice: %w", err)
	}
	return invoice, nil
}

// GetInvoiceForOrder returns the earliest invoice linked to an order,
// or (nil, nil) when the order has none. Re-uploads for an order update
// this invoice instead of creating a second one.
func (s *SQLiteStorage) GetInvoiceForOrder(ctx context.Context, orderID int64) (*model.Invoice, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, invoiceSelect+`
		WHERE order_id = ? ORDER BY created_at LIMIT 1`, orderID)
	invoice, err := scanInvoice(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query invoice for order: %w", err)
	}
	return invoice, nil
}

// GetInvoices returns invoices matching the filter, newest first.
func (s *SQLiteStorage) GetInvoices(ctx context.Context, filter service.InvoiceFilter) ([]model.Invoice, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, fmt.Errorf("%w: %v after %v", ErrInvalidDateRange, filter.From, filter.To)
	}

	query := invoiceSelect
	var clauses []string
	var args []any

	if len(filter.Statuses) > 0 {
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", placeholders(len(filter.Statuses))))
		for _, st := range filter.Statuses {
			args = append(args, st)
		}
	}
	if filter.OrderID != 0 {
		clauses = append(clauses, "order_id = ?")
		args = append(args, filter.OrderID)
	}
	if len(filter.VehicleIDs) > 0 {
		clauses = append(clauses, fmt.Sprintf("vehicle_id IN (%s)", placeholders(len(filter.VehicleIDs))))
		for _, v := range filter.VehicleIDs {
			args = append(args, v)
		}
	}
	if filter.From != nil {
		clauses = append(clauses, "invoice_date >= ?")
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		clauses = append(clauses, "invoice_date <= ?")
		args = append(args, *filter.To)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY invoice_date DESC, number DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []model.Invoice
	for rows.Next() {
		invoice, scanErr := scanInvoice(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", scanErr)
		}
		invoices = append(invoices, *invoice)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoices: %w", err)
	}

	return invoices, nil
}

// NextInvoiceNumber allocates the next sequential INV-<year>-NNNNN
// number for the given year.
func (s *SQLiteStorage) NextInvoiceNumber(ctx context.Context, year int) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}

	prefix := fmt.Sprintf("INV-%d-", year)
	rows, err := s.db.QueryContext(ctx,
		`SELECT number FROM invoices WHERE number LIKE ?`, prefix+"%")
	if err != nil {
		return "", fmt.Errorf("failed to query invoice numbers: %w", err)
	}
	defer rows.Close()

	maxSeq := 0
	for rows.Next() {
		var number string
		if err := rows.Scan(&number); err != nil {
			return "", fmt.Errorf("failed to scan invoice number: %w", err)
		}
		var seq int
		if _, err := fmt.Sscanf(strings.TrimPrefix(number, prefix), "%d", &seq); err == nil && seq > maxSeq {
			maxSeq = seq
		}
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("error iterating invoice numbers: %w", err)
	}

	return fmt.Sprintf("%s%05d", prefix, maxSeq+1), nil
}

// SaveInvoice writes the invoice and replaces its line items in a
// single transaction. Re-ingesting an invoice therefore never leaves
// stale or duplicated line items behind.
func (s *SQLiteStorage) SaveInvoice(ctx context.Context, invoice *model.Invoice, items []model.LineItem) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateInvoice(invoice); err != nil {
		return err
	}
	if err := validateLineItems(items); err != nil {
		return err
	}

	now := time.Now()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if invoice.ID == 0 {
			result, err := tx.ExecContext(ctx, `
				INSERT INTO invoices (number, status, order_id, customer_name, vehicle_id,
					invoice_date, code_no, reference, subtotal, tax_amount, tax_rate,
					total_amount, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				invoice.Number, invoice.Status, nullInt64(invoice.OrderID),
				invoice.CustomerName, invoice.VehicleID, invoice.InvoiceDate,
				nullString(invoice.CodeNo), nullString(invoice.Reference),
				invoice.Subtotal.String(), invoice.TaxAmount.String(),
				invoice.TaxRate.String(), invoice.TotalAmount.String(), now, now)
			if err != nil {
				return fmt.Errorf("failed to create invoice: %w", err)
			}
			id, err := result.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to get invoice ID: %w", err)
			}
			invoice.ID = id
			invoice.CreatedAt = now
		} else {
			_, err := tx.ExecContext(ctx, `
				UPDATE invoices
				SET status = ?, order_id = ?, customer_name = ?, vehicle_id = ?,
					invoice_date = ?, code_no = ?, reference = ?, subtotal = ?,
					tax_amount = ?, tax_rate = ?, total_amount = ?, updated_at = ?
				WHERE id = ?`,
				invoice.Status, nullInt64(invoice.OrderID), invoice.CustomerName,
				invoice.VehicleID, invoice.InvoiceDate,
				nullString(invoice.CodeNo), nullString(invoice.Reference),
				invoice.Subtotal.String(), invoice.TaxAmount.String(),
				invoice.TaxRate.String(), invoice.TotalAmount.String(), now, invoice.ID)
			if err != nil {
				return fmt.Errorf("failed to update invoice: %w", err)
			}

			if _, err := tx.ExecContext(ctx,
				`DELETE FROM invoice_line_items WHERE invoice_id = ?`, invoice.ID); err != nil {
				return fmt.Errorf("failed to clear previous line items: %w", err)
			}
		}
		invoice.UpdatedAt = now

		for i := range items {
			items[i].InvoiceID = invoice.ID
			result, err := tx.ExecContext(ctx, `
				INSERT INTO invoice_line_items (invoice_id, code, description, unit,
					qty, unit_price, line_total, tax_rate, tax_amount, order_type, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				invoice.ID, nullString(items[i].Code), items[i].Description,
				nullString(items[i].Unit), items[i].Qty.String(),
				items[i].UnitPrice.String(), items[i].LineTotal.String(),
				items[i].TaxRate.String(), items[i].TaxAmount.String(),
				items[i].OrderType, now)
			if err != nil {
				return fmt.Errorf("failed to create line item: %w", err)
			}
			if id, idErr := result.LastInsertId(); idErr == nil {
				items[i].ID = id
			}
			items[i].CreatedAt = now
		}

		return nil
	})
}

// GetLineItems returns the line items for one invoice in entry order.
func (s *SQLiteStorage) GetLineItems(ctx context.Context, invoiceID int64) ([]model.LineItem, error) {
	return s.GetLineItemsForInvoices(ctx, []int64{invoiceID})
}

// GetLineItemsForInvoices returns line items for a set of invoices.
func (s *SQLiteStorage) GetLineItemsForInvoices(ctx context.Context, invoiceIDs []int64) ([]model.LineItem, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if len(invoiceIDs) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT id, invoice_id, code, description, unit, qty, unit_price,
			line_total, tax_rate, tax_amount, order_type, created_at
		FROM invoice_line_items
		WHERE invoice_id IN (%s)
		ORDER BY invoice_id, id`, placeholders(len(invoiceIDs)))

	args := make([]any, len(invoiceIDs))
	for i, id := range invoiceIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query line items: %w", err)
	}
	defer rows.Close()

	var items []model.LineItem
	for rows.Next() {
		var (
			item               model.LineItem
			code, unit         sql.NullString
			qty, price, total  string
			taxRate, taxAmount string
			orderType          string
		)
		if err := rows.Scan(&item.ID, &item.InvoiceID, &code, &item.Description, &unit,
			&qty, &price, &total, &taxRate, &taxAmount, &orderType, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}

		item.Code = code.String
		item.Unit = unit.String
		item.OrderType = model.OrderType(orderType)
		if item.Qty, err = scanDecimal(qty); err != nil {
			return nil, err
		}
		if item.UnitPrice, err = scanDecimal(price); err != nil {
			return nil, err
		}
		if item.LineTotal, err = scanDecimal(total); err != nil {
			return nil, err
		}
		if item.TaxRate, err = scanDecimal(taxRate); err != nil {
			return nil, err
		}
		if item.TaxAmount, err = scanDecimal(taxAmount); err != nil {
			return nil, err
		}

		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line items: %w", err)
	}

	return items, nil
}

// GetItemCodesForOrder returns the distinct non-empty item codes across
// every invoice linked to an order, sorted.
func (s *SQLiteStorage) GetItemCodesForOrder(ctx context.Context, orderID int64) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT li.code
		FROM invoice_line_items li
		JOIN invoices i ON i.id = li.invoice_id
		WHERE i.order_id = ? AND li.code IS NOT NULL AND li.code != ''
		ORDER BY li.code`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order item codes: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan item code: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item codes: %w", err)
	}

	return codes, nil
}

// OrderHasCodelessItems reports whether any invoice linked to the order
// carries a line item without an item code. Such items bill as sales
// but contribute no code to detection.
func (s *SQLiteStorage) OrderHasCodelessItems(ctx context.Context, orderID int64) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}

	var exists int
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM invoice_line_items li
			JOIN invoices i ON i.id = li.invoice_id
			WHERE i.order_id = ? AND (li.code IS NULL OR li.code = '')
		)`, orderID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check codeless items: %w", err)
	}
	return exists == 1, nil
}

const invoiceSelect = `
	SELECT id, number, status, order_id, customer_name, vehicle_id, invoice_date,
		code_no, reference, subtotal, tax_amount, tax_rate, total_amount,
		created_at, updated_at
	FROM invoices`

func scanInvoice(row rowScanner) (*model.Invoice, error) {
	var (
		invoice              model.Invoice
		orderID              sql.NullInt64
		codeNo, reference    sql.NullString
		subtotal, taxAmount  string
		taxRate, totalAmount string
	)

	err := row.Scan(&invoice.ID, &invoice.Number, &invoice.Status, &orderID,
		&invoice.CustomerName, &invoice.VehicleID, &invoice.InvoiceDate,
		&codeNo, &reference, &subtotal, &taxAmount, &taxRate, &totalAmount,
		&invoice.CreatedAt, &invoice.UpdatedAt)
	if err != nil {
		return nil, err
	}

	invoice.OrderID = orderID.Int64
	invoice.CodeNo = codeNo.String
	invoice.Reference = reference.String
	if invoice.Subtotal, err = scanDecimal(subtotal); err != nil {
		return nil, err
	}
	if invoice.TaxAmount, err = scanDecimal(taxAmount); err != nil {
		return nil, err
	}
	if invoice.TaxRate, err = scanDecimal(taxRate); err != nil {
		return nil, err
	}
	if invoice.TotalAmount, err = scanDecimal(totalAmount); err != nil {
		return nil, err
	}

	return &invoice, nil
}

func nullInt64(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
