// Package service implements the occupancy and lifecycle consistency
// engine: the room registry, the transfer and maintenance workflows
// and the billing ledger.  Components receive their stores and the
// transactional coordinator through constructors; they never reach for
// a global database handle.
package service

import (
	"context"

	"github.com/dormhub/dormitory-admin/internal/model"
	"github.com/dormhub/dormitory-admin/internal/repository"
)

// TxRunner executes a function as one atomic unit.  Nested calls must
// join the unit already in flight.  *repository.Coordinator is the
// production implementation; tests substitute an in-memory runner.
type TxRunner interface {
	Execute(ctx context.Context, fn func(context.Context) error) error
}

// RoomStore is the slice of room persistence the registry needs.
type RoomStore interface {
	Get(ctx context.Context, id uint64) (*model.Room, error)
	GetForUpdate(ctx context.Context, id uint64) (*model.Room, error)
	UpdateOccupancyStatus(ctx context.Context, id uint64, occupancy int, status model.RoomStatus) error
}

// StudentStore is the slice of student persistence the transfer
// workflow needs.
type StudentStore interface {
	Get(ctx context.Context, id uint64) (*model.Student, error)
	GetForUpdate(ctx context.Context, id uint64) (*model.Student, error)
	AssignRoom(ctx context.Context, studentID uint64, roomID *uint64) error
}

// TransferStore persists transfer requests.
type TransferStore interface {
	Insert(ctx context.Context, tr *model.RoomTransfer) error
	Get(ctx context.Context, id uint64) (*model.RoomTransfer, error)
	GetForUpdate(ctx context.Context, id uint64) (*model.RoomTransfer, error)
	UpdateStatus(ctx context.Context, id uint64, status model.TransferStatus, approverID *uint64) error
	Delete(ctx context.Context, id uint64) error
	CountActiveByStudent(ctx context.Context, studentID uint64) (int, error)
	List(ctx context.Context, f repository.TransferFilter) ([]model.RoomTransfer, error)
}

// MaintenanceStore persists maintenance records.
type MaintenanceStore interface {
	Insert(ctx context.Context, m *model.Maintenance) error
	Get(ctx context.Context, id uint64) (*model.Maintenance, error)
	GetForUpdate(ctx context.Context, id uint64) (*model.Maintenance, error)
	Update(ctx context.Context, m *model.Maintenance) error
	Delete(ctx context.Context, id uint64) error
	CountInProgressForRoom(ctx context.Context, roomID, excludeID uint64) (int, error)
	List(ctx context.Context, f repository.MaintenanceFilter) ([]model.Maintenance, error)
}

// InvoiceStore persists invoices and their line items.
type InvoiceStore interface {
	Insert(ctx context.Context, inv *model.Invoice, items []model.InvoiceItem) error
	Get(ctx context.Context, id uint64) (*model.Invoice, error)
	GetForUpdate(ctx context.Context, id uint64) (*model.Invoice, error)
	ListItems(ctx context.Context, invoiceID uint64) ([]model.InvoiceItem, error)
	ReplaceItems(ctx context.Context, invoiceID uint64, items []model.InvoiceItem) error
	UpdateAmounts(ctx context.Context, id uint64, total, paid int64, status model.InvoiceStatus) error
	Delete(ctx context.Context, id uint64) error
}

// PaymentStore persists payment rows.
type PaymentStore interface {
	Insert(ctx context.Context, p *model.Payment) error
	Get(ctx context.Context, id uint64) (*model.Payment, error)
	UpdateMeta(ctx context.Context, id uint64, method, note string) error
	ListByInvoice(ctx context.Context, invoiceID uint64) ([]model.Payment, error)
}
