package model

import "time"

// Payment records money received against an invoice.  Rows are
// immutable once created except for the Method and Note metadata,
// which the ledger's update operation may change.  Creating a payment
// is the only thing that moves an invoice's PaidAmount.
type Payment struct {
	ID          uint64    // payments.id
	InvoiceID   uint64    // payments.invoice_id
	Amount      int64     // payments.amount, > 0
	PaymentDate time.Time // payments.payment_date
	Method      string    // payments.method, e.g. "CASH", "BANK_TRANSFER"
	Note        string    // payments.note
	CreatedAt   time.Time // payments.created_at
}
