package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dormhub/dormitory-admin/internal/model"
)

// PaymentRepo persists payment rows.  Amount, invoice and date are
// immutable after insertion; only the method/note metadata may change,
// and only through UpdateMeta.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentColumns = `id, invoice_id, amount, payment_date, method, note, created_at`

func scanPayment(row *sql.Row, id uint64) (*model.Payment, error) {
	var p model.Payment
	err := row.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.PaymentDate, &p.Method, &p.Note, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("payment %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Insert creates a payment row and populates the generated ID and
// timestamps on the passed record.
func (r *PaymentRepo) Insert(ctx context.Context, p *model.Payment) error {
	const q = `INSERT INTO payments (invoice_id, amount, payment_date, method, note) VALUES (?, ?, ?, ?, ?)`
	res, err := querier(ctx, r.db).ExecContext(ctx, q, p.InvoiceID, p.Amount, p.PaymentDate, p.Method, p.Note)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	sel := `SELECT ` + paymentColumns + ` FROM payments WHERE id = ?`
	stored, err := scanPayment(querier(ctx, r.db).QueryRowContext(ctx, sel, p.ID), p.ID)
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

// Get loads a payment by ID.
func (r *PaymentRepo) Get(ctx context.Context, id uint64) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE id = ?`
	return scanPayment(querier(ctx, r.db).QueryRowContext(ctx, q, id), id)
}

// UpdateMeta rewrites the mutable metadata of a payment.  Existence is
// checked by the ledger before calling; an update matching zero rows is
// indistinguishable from an update writing identical values here.
func (r *PaymentRepo) UpdateMeta(ctx context.Context, id uint64, method, note string) error {
	const q = `UPDATE payments SET method = ?, note = ? WHERE id = ?`
	_, err := querier(ctx, r.db).ExecContext(ctx, q, method, note, id)
	return err
}

// ListByInvoice returns all payments recorded against an invoice,
// oldest first.
func (r *PaymentRepo) ListByInvoice(ctx context.Context, invoiceID uint64) ([]model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE invoice_id = ? ORDER BY payment_date, id`
	rows, err := querier(ctx, r.db).QueryContext(ctx, q, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Payment, 0)
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.PaymentDate, &p.Method, &p.Note, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
