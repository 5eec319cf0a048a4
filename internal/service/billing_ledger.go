package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dormhub/dormitory-admin/internal/model"
	"github.com/dormhub/dormitory-admin/internal/repository"
)

// BillingLedger reconciles invoices with their payments.  It is the
// only component that derives Invoice.PaidAmount and Invoice.Status,
// and creating a Payment row is the only thing that moves PaidAmount
// besides item replacement recomputing the total.
//
// Overpayment policy: a payment that would push the paid amount above
// the invoice total is rejected with ErrValidation.  The ledger keeps
// 0 <= paidAmount <= totalAmount as a hard invariant; refunds are not
// modelled here.
type BillingLedger struct {
	invoices InvoiceStore
	payments PaymentStore
	students StudentStore
	rooms    RoomStore
	txr      TxRunner
}

// NewBillingLedger constructs a BillingLedger.
func NewBillingLedger(invoices InvoiceStore, payments PaymentStore, students StudentStore, rooms RoomStore, txr TxRunner) *BillingLedger {
	return &BillingLedger{invoices: invoices, payments: payments, students: students, rooms: rooms, txr: txr}
}

// deriveInvoiceStatus maps amounts onto a status:
//
//	paid == 0            -> UNPAID
//	0 < paid < total     -> PARTIALLY_PAID
//	paid >= total        -> PAID
func deriveInvoiceStatus(paid, total int64) model.InvoiceStatus {
	switch {
	case paid == 0:
		return model.InvoiceUnpaid
	case paid < total:
		return model.InvoicePartiallyPaid
	default:
		return model.InvoicePaid
	}
}

func sumItems(items []model.InvoiceItem) (int64, error) {
	var total int64
	for _, it := range items {
		if it.Amount < 0 {
			return 0, fmt.Errorf("item %q has negative amount %d: %w",
				it.Description, it.Amount, repository.ErrValidation)
		}
		total += it.Amount
	}
	return total, nil
}

// CreateInvoice opens an UNPAID invoice owned by exactly one of a
// student or a room.  The total is the sum of the item amounts, each
// of which must be non-negative.
func (l *BillingLedger) CreateInvoice(ctx context.Context, studentID, roomID *uint64, dueDate time.Time, items []model.InvoiceItem) (*model.Invoice, error) {
	if (studentID == nil) == (roomID == nil) {
		return nil, fmt.Errorf("an invoice is owned by exactly one of a student or a room: %w",
			repository.ErrValidation)
	}
	total, err := sumItems(items)
	if err != nil {
		return nil, err
	}
	var out *model.Invoice
	err = l.txr.Execute(ctx, func(ctx context.Context) error {
		if studentID != nil {
			if _, err := l.students.Get(ctx, *studentID); err != nil {
				return err
			}
		} else {
			if _, err := l.rooms.Get(ctx, *roomID); err != nil {
				return err
			}
		}
		inv := &model.Invoice{
			StudentID:   studentID,
			RoomID:      roomID,
			TotalAmount: total,
			PaidAmount:  0,
			Status:      model.InvoiceUnpaid,
			DueDate:     dueDate,
		}
		if err := l.invoices.Insert(ctx, inv, items); err != nil {
			return err
		}
		out = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReplaceItems swaps an invoice's line items and re-derives its status
// from the existing paid amount against the new total.  A replacement
// whose new total would fall below what has already been collected is
// refused with ErrInvalidState; an untouched invoice replaced with an
// empty set becomes CANCELLED.
func (l *BillingLedger) ReplaceItems(ctx context.Context, invoiceID uint64, items []model.InvoiceItem) (*model.Invoice, error) {
	total, err := sumItems(items)
	if err != nil {
		return nil, err
	}
	var out *model.Invoice
	err = l.txr.Execute(ctx, func(ctx context.Context) error {
		inv, err := l.invoices.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status == model.InvoiceCancelled {
			return fmt.Errorf("invoice %d is cancelled: %w", invoiceID, repository.ErrInvalidState)
		}
		if inv.PaidAmount > total {
			return fmt.Errorf("invoice %d has %d paid, new total %d would undercut it: %w",
				invoiceID, inv.PaidAmount, total, repository.ErrInvalidState)
		}
		status := deriveInvoiceStatus(inv.PaidAmount, total)
		if total == 0 && inv.PaidAmount == 0 {
			status = model.InvoiceCancelled
		}
		if err := l.invoices.ReplaceItems(ctx, invoiceID, items); err != nil {
			return err
		}
		if err := l.invoices.UpdateAmounts(ctx, invoiceID, total, inv.PaidAmount, status); err != nil {
			return err
		}
		inv.TotalAmount = total
		inv.Status = status
		out = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RecordPayment books money against an invoice: it inserts the payment
// row, raises the paid amount and re-derives the status, all in one
// transaction.  Amounts must be positive and must not exceed the
// outstanding balance.
func (l *BillingLedger) RecordPayment(ctx context.Context, invoiceID uint64, amount int64, date time.Time, method, note string) (*model.Payment, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("payment amount must be positive, got %d: %w",
			amount, repository.ErrValidation)
	}
	var out *model.Payment
	err := l.txr.Execute(ctx, func(ctx context.Context) error {
		inv, err := l.invoices.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status == model.InvoiceCancelled {
			return fmt.Errorf("invoice %d is cancelled: %w", invoiceID, repository.ErrInvalidState)
		}
		paid := inv.PaidAmount + amount
		if paid > inv.TotalAmount {
			return fmt.Errorf("payment of %d exceeds outstanding balance %d on invoice %d: %w",
				amount, inv.TotalAmount-inv.PaidAmount, invoiceID, repository.ErrValidation)
		}
		p := &model.Payment{
			InvoiceID:   invoiceID,
			Amount:      amount,
			PaymentDate: date,
			Method:      method,
			Note:        note,
		}
		if err := l.payments.Insert(ctx, p); err != nil {
			return err
		}
		status := deriveInvoiceStatus(paid, inv.TotalAmount)
		if err := l.invoices.UpdateAmounts(ctx, invoiceID, inv.TotalAmount, paid, status); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdatePaymentMeta changes the method/note metadata of an existing
// payment.  Amount, date and invoice binding stay immutable.
func (l *BillingLedger) UpdatePaymentMeta(ctx context.Context, paymentID uint64, method, note string) error {
	return l.txr.Execute(ctx, func(ctx context.Context) error {
		if _, err := l.payments.Get(ctx, paymentID); err != nil {
			return err
		}
		return l.payments.UpdateMeta(ctx, paymentID, method, note)
	})
}

// MarkOverdue flags an invoice whose due date has passed without full
// payment.  Paid and cancelled invoices cannot become overdue.
func (l *BillingLedger) MarkOverdue(ctx context.Context, invoiceID uint64, now time.Time) (*model.Invoice, error) {
	var out *model.Invoice
	err := l.txr.Execute(ctx, func(ctx context.Context) error {
		inv, err := l.invoices.GetForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status != model.InvoiceUnpaid && inv.Status != model.InvoicePartiallyPaid {
			return fmt.Errorf("invoice %d is %s: %w", invoiceID, inv.Status, repository.ErrInvalidState)
		}
		if !inv.DueDate.Before(now) {
			return fmt.Errorf("invoice %d is not due until %s: %w",
				invoiceID, inv.DueDate.Format(time.RFC3339), repository.ErrInvalidState)
		}
		if err := l.invoices.UpdateAmounts(ctx, invoiceID, inv.TotalAmount, inv.PaidAmount, model.InvoiceOverdue); err != nil {
			return err
		}
		inv.Status = model.InvoiceOverdue
		out = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteInvoice removes an invoice together with all of its payments
// and line items in one transaction.
func (l *BillingLedger) DeleteInvoice(ctx context.Context, invoiceID uint64) error {
	return l.txr.Execute(ctx, func(ctx context.Context) error {
		if _, err := l.invoices.GetForUpdate(ctx, invoiceID); err != nil {
			return err
		}
		return l.invoices.Delete(ctx, invoiceID)
	})
}

// GetInvoice loads an invoice with its line items.
func (l *BillingLedger) GetInvoice(ctx context.Context, invoiceID uint64) (*model.Invoice, []model.InvoiceItem, error) {
	inv, err := l.invoices.Get(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	items, err := l.invoices.ListItems(ctx, invoiceID)
	if err != nil {
		return nil, nil, err
	}
	return inv, items, nil
}

// ListPayments returns the payments recorded against an invoice.
func (l *BillingLedger) ListPayments(ctx context.Context, invoiceID uint64) ([]model.Payment, error) {
	return l.payments.ListByInvoice(ctx, invoiceID)
}
