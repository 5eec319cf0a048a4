package model

import (
	"fmt"
	"time"
)

// InvoiceStatus enumerates the payment states of an invoice.  UNPAID,
// PARTIALLY_PAID and PAID are derived from paid versus total amounts;
// CANCELLED marks an invoice whose items were replaced with an empty
// set before any money arrived; OVERDUE marks an unpaid invoice past
// its due date.
type InvoiceStatus string

const (
	InvoiceUnpaid        InvoiceStatus = "UNPAID"
	InvoicePartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoicePaid          InvoiceStatus = "PAID"
	InvoiceCancelled     InvoiceStatus = "CANCELLED"
	InvoiceOverdue       InvoiceStatus = "OVERDUE"
)

// ParseInvoiceStatus converts a raw string into an InvoiceStatus,
// rejecting unknown values.
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	switch InvoiceStatus(s) {
	case InvoiceUnpaid, InvoicePartiallyPaid, InvoicePaid, InvoiceCancelled, InvoiceOverdue:
		return InvoiceStatus(s), nil
	}
	return "", fmt.Errorf("invalid invoice status %q", s)
}

// Invoice mirrors the invoices table.  Exactly one of StudentID and
// RoomID is set; an invoice is billed either to a resident or to a
// room, never both.  Amounts are in the smallest currency unit.
//
// The billing ledger maintains 0 <= PaidAmount <= TotalAmount at all
// times; payments that would overshoot the total are rejected.
type Invoice struct {
	ID          uint64        // invoices.id
	StudentID   *uint64       // invoices.student_id (nullable)
	RoomID      *uint64       // invoices.room_id (nullable)
	TotalAmount int64         // invoices.total_amount
	PaidAmount  int64         // invoices.paid_amount
	Status      InvoiceStatus // invoices.status
	DueDate     time.Time     // invoices.due_date
	CreatedAt   time.Time     // invoices.created_at
	UpdatedAt   time.Time     // invoices.updated_at
}

// InvoiceItem is a single line on an invoice.  The invoice total is
// always the sum of its item amounts.
type InvoiceItem struct {
	ID          uint64 // invoice_items.id
	InvoiceID   uint64 // invoice_items.invoice_id
	Description string // invoice_items.description
	Amount      int64  // invoice_items.amount, >= 0
}
