package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dormhub/dormitory-admin/internal/model"
)

// InvoiceRepo persists invoices together with their line items.  The
// paid amount and status columns are only ever written with values the
// billing ledger derived; this repo moves them to disk in one write so
// the pair stays consistent.
type InvoiceRepo struct {
	db *sql.DB
}

// NewInvoiceRepo returns an InvoiceRepo bound to the given database.
func NewInvoiceRepo(db *sql.DB) *InvoiceRepo { return &InvoiceRepo{db: db} }

const invoiceColumns = `id, student_id, room_id, total_amount, paid_amount, status, due_date, created_at, updated_at`

func scanInvoice(row *sql.Row, id uint64) (*model.Invoice, error) {
	var inv model.Invoice
	var studentID, roomID sql.NullInt64
	var status string
	err := row.Scan(&inv.ID, &studentID, &roomID, &inv.TotalAmount, &inv.PaidAmount,
		&status, &inv.DueDate, &inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("invoice %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if studentID.Valid {
		v := uint64(studentID.Int64)
		inv.StudentID = &v
	}
	if roomID.Valid {
		v := uint64(roomID.Int64)
		inv.RoomID = &v
	}
	inv.Status = model.InvoiceStatus(status)
	return &inv, nil
}

// Insert creates an invoice row plus its line items and populates the
// generated IDs on the passed records.  Both inserts run against the
// caller's transaction.
func (r *InvoiceRepo) Insert(ctx context.Context, inv *model.Invoice, items []model.InvoiceItem) error {
	const q = `INSERT INTO invoices (student_id, room_id, total_amount, paid_amount, status, due_date)
	           VALUES (?, ?, ?, ?, ?, ?)`
	var studentID, roomID interface{}
	if inv.StudentID != nil {
		studentID = *inv.StudentID
	}
	if inv.RoomID != nil {
		roomID = *inv.RoomID
	}
	res, err := querier(ctx, r.db).ExecContext(ctx, q,
		studentID, roomID, inv.TotalAmount, inv.PaidAmount, string(inv.Status), inv.DueDate)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	inv.ID = uint64(id)
	if err := r.insertItems(ctx, inv.ID, items); err != nil {
		return err
	}
	sel := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = ?`
	stored, err := scanInvoice(querier(ctx, r.db).QueryRowContext(ctx, sel, inv.ID), inv.ID)
	if err != nil {
		return err
	}
	*inv = *stored
	return nil
}

// insertItems bulk-inserts line items for an invoice.  An empty slice
// is a no-op.
func (r *InvoiceRepo) insertItems(ctx context.Context, invoiceID uint64, items []model.InvoiceItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO invoice_items (invoice_id, description, amount) VALUES `
	args := make([]interface{}, 0, len(items)*3)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, invoiceID, it.Description, it.Amount)
	}
	_, err := querier(ctx, r.db).ExecContext(ctx, query, args...)
	return err
}

// Get loads an invoice by ID.
func (r *InvoiceRepo) Get(ctx context.Context, id uint64) (*model.Invoice, error) {
	q := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = ?`
	return scanInvoice(querier(ctx, r.db).QueryRowContext(ctx, q, id), id)
}

// GetForUpdate loads an invoice with a locking read so concurrent
// payments against the same invoice serialize on the row.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, id uint64) (*model.Invoice, error) {
	q := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = ? FOR UPDATE`
	return scanInvoice(querier(ctx, r.db).QueryRowContext(ctx, q, id), id)
}

// ListItems returns the line items of an invoice in insertion order.
func (r *InvoiceRepo) ListItems(ctx context.Context, invoiceID uint64) ([]model.InvoiceItem, error) {
	const q = `SELECT id, invoice_id, description, amount FROM invoice_items WHERE invoice_id = ? ORDER BY id`
	rows, err := querier(ctx, r.db).QueryContext(ctx, q, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.InvoiceItem, 0)
	for rows.Next() {
		var it model.InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.Description, &it.Amount); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReplaceItems swaps the invoice's line items for a new set within the
// caller's transaction.
func (r *InvoiceRepo) ReplaceItems(ctx context.Context, invoiceID uint64, items []model.InvoiceItem) error {
	if _, err := querier(ctx, r.db).ExecContext(ctx,
		`DELETE FROM invoice_items WHERE invoice_id = ?`, invoiceID); err != nil {
		return err
	}
	return r.insertItems(ctx, invoiceID, items)
}

// UpdateAmounts persists a recomputed total, paid amount and derived
// status in one write.
func (r *InvoiceRepo) UpdateAmounts(ctx context.Context, id uint64, total, paid int64, status model.InvoiceStatus) error {
	const q = `UPDATE invoices SET total_amount = ?, paid_amount = ?, status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	_, err := querier(ctx, r.db).ExecContext(ctx, q, total, paid, string(status), id)
	return err
}

// Delete removes an invoice and cascades to its payments and line
// items inside the caller's transaction, so either everything
// disappears or nothing does.
func (r *InvoiceRepo) Delete(ctx context.Context, id uint64) error {
	q := querier(ctx, r.db)
	if _, err := q.ExecContext(ctx, `DELETE FROM payments WHERE invoice_id = ?`, id); err != nil {
		return err
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM invoice_items WHERE invoice_id = ?`, id); err != nil {
		return err
	}
	res, err := q.ExecContext(ctx, `DELETE FROM invoices WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("invoice %d: %w", id, ErrNotFound)
	}
	return nil
}
