package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dormhub/dormitory-admin/internal/model"
	"github.com/dormhub/dormitory-admin/internal/repository"
)

// TransferWorkflow drives room transfer requests through their state
// machine:
//
//	PENDING  -> APPROVED | REJECTED
//	APPROVED -> COMPLETED | REJECTED
//
// REJECTED and COMPLETED are terminal.  Completion is the only step
// that moves occupancy, and it re-validates the target room inside the
// same transaction as the mutation so a race for the last bed cannot
// overbook.
type TransferWorkflow struct {
	transfers TransferStore
	students  StudentStore
	rooms     RoomStore
	registry  *RoomRegistry
	txr       TxRunner
}

// NewTransferWorkflow constructs a TransferWorkflow.
func NewTransferWorkflow(transfers TransferStore, students StudentStore, rooms RoomStore, registry *RoomRegistry, txr TxRunner) *TransferWorkflow {
	return &TransferWorkflow{transfers: transfers, students: students, rooms: rooms, registry: registry, txr: txr}
}

// CreateRequest files a PENDING transfer for a student.  The student
// must be RENTING, the target room must exist with free capacity and
// no active maintenance, and the student may not already have a
// request in PENDING or APPROVED.
func (w *TransferWorkflow) CreateRequest(ctx context.Context, studentID, toRoomID uint64, date time.Time, reason string) (*model.RoomTransfer, error) {
	if studentID == 0 || toRoomID == 0 {
		return nil, fmt.Errorf("student and target room are required: %w", repository.ErrValidation)
	}
	var out *model.RoomTransfer
	err := w.txr.Execute(ctx, func(ctx context.Context) error {
		student, err := w.students.GetForUpdate(ctx, studentID)
		if err != nil {
			return err
		}
		if student.Status != model.StudentRenting {
			return fmt.Errorf("student %d is %s, not %s: %w",
				studentID, student.Status, model.StudentRenting, repository.ErrInvalidState)
		}
		if student.RoomID != nil && *student.RoomID == toRoomID {
			return fmt.Errorf("student %d already lives in room %d: %w",
				studentID, toRoomID, repository.ErrValidation)
		}
		toRoom, err := w.rooms.GetForUpdate(ctx, toRoomID)
		if err != nil {
			return err
		}
		if !toRoom.HasFreeCapacity() {
			return fmt.Errorf("room %d is %s at %d/%d: %w",
				toRoomID, toRoom.Status, toRoom.ActualOccupancy, toRoom.Capacity, repository.ErrRoomUnavailable)
		}
		active, err := w.transfers.CountActiveByStudent(ctx, studentID)
		if err != nil {
			return err
		}
		if active > 0 {
			return fmt.Errorf("student %d already has an open transfer request: %w",
				studentID, repository.ErrConflict)
		}
		tr := &model.RoomTransfer{
			StudentID:     studentID,
			FromRoomID:    student.RoomID,
			ToRoomID:      toRoomID,
			RequestedDate: date,
			Reason:        reason,
			Status:        model.TransferPending,
		}
		if err := w.transfers.Insert(ctx, tr); err != nil {
			return err
		}
		out = tr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// allowedTransition reports whether a transfer may move between the
// two statuses.  PENDING cannot jump straight to COMPLETED; terminal
// states permit nothing.
func allowedTransition(from, to model.TransferStatus) bool {
	switch from {
	case model.TransferPending:
		return to == model.TransferApproved || to == model.TransferRejected
	case model.TransferApproved:
		return to == model.TransferCompleted || to == model.TransferRejected
	}
	return false
}

// SetStatus moves a transfer to a new status.  Completion runs the
// whole move as one unit: the target room is re-checked under its row
// lock at commit time, occupancy shifts through the room registry, the
// student is reassigned and the request is closed with its approver.
// If the target room filled up or went under maintenance since
// approval, everything rolls back with ErrRoomUnavailable.  Rejection
// clears the approver and changes nothing else.
func (w *TransferWorkflow) SetStatus(ctx context.Context, transferID uint64, newStatus model.TransferStatus, approverID *uint64) (*model.RoomTransfer, error) {
	if newStatus == model.TransferPending {
		return nil, fmt.Errorf("a transfer cannot return to %s: %w",
			model.TransferPending, repository.ErrValidation)
	}
	var out *model.RoomTransfer
	err := w.txr.Execute(ctx, func(ctx context.Context) error {
		tr, err := w.transfers.GetForUpdate(ctx, transferID)
		if err != nil {
			return err
		}
		if !allowedTransition(tr.Status, newStatus) {
			return fmt.Errorf("transfer %d: %s -> %s: %w",
				transferID, tr.Status, newStatus, repository.ErrInvalidTransition)
		}
		switch newStatus {
		case model.TransferCompleted:
			if err := w.complete(ctx, tr, approverID); err != nil {
				return err
			}
		case model.TransferRejected:
			if err := w.transfers.UpdateStatus(ctx, transferID, model.TransferRejected, nil); err != nil {
				return err
			}
			tr.Status = model.TransferRejected
			tr.ApproverID = nil
		case model.TransferApproved:
			if err := w.transfers.UpdateStatus(ctx, transferID, model.TransferApproved, approverID); err != nil {
				return err
			}
			tr.Status = model.TransferApproved
			tr.ApproverID = approverID
		}
		out = tr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// complete executes the occupancy move for an approved transfer inside
// the caller's transaction.
func (w *TransferWorkflow) complete(ctx context.Context, tr *model.RoomTransfer, approverID *uint64) error {
	// Re-validate against the room's state as of this transaction, not
	// as of approval.  The locking read means a concurrent completion
	// that already took the last bed is visible here.
	toRoom, err := w.rooms.GetForUpdate(ctx, tr.ToRoomID)
	if err != nil {
		return err
	}
	if !toRoom.HasFreeCapacity() {
		return fmt.Errorf("room %d is %s at %d/%d: %w",
			tr.ToRoomID, toRoom.Status, toRoom.ActualOccupancy, toRoom.Capacity, repository.ErrRoomUnavailable)
	}
	if tr.FromRoomID != nil {
		if _, err := w.registry.AdjustOccupancy(ctx, *tr.FromRoomID, -1); err != nil {
			return err
		}
	}
	if _, err := w.registry.AdjustOccupancy(ctx, tr.ToRoomID, +1); err != nil {
		return err
	}
	if err := w.students.AssignRoom(ctx, tr.StudentID, &tr.ToRoomID); err != nil {
		return err
	}
	if err := w.transfers.UpdateStatus(ctx, tr.ID, model.TransferCompleted, approverID); err != nil {
		return err
	}
	tr.Status = model.TransferCompleted
	tr.ApproverID = approverID
	return nil
}

// Delete removes a transfer request.  Only PENDING and REJECTED
// requests may be deleted; approved and completed ones are part of the
// occupancy history.
func (w *TransferWorkflow) Delete(ctx context.Context, transferID uint64) error {
	return w.txr.Execute(ctx, func(ctx context.Context) error {
		tr, err := w.transfers.GetForUpdate(ctx, transferID)
		if err != nil {
			return err
		}
		if tr.Status != model.TransferPending && tr.Status != model.TransferRejected {
			return fmt.Errorf("transfer %d is %s: %w", transferID, tr.Status, repository.ErrInvalidState)
		}
		return w.transfers.Delete(ctx, transferID)
	})
}

// List returns transfers matching the filter.
func (w *TransferWorkflow) List(ctx context.Context, f repository.TransferFilter) ([]model.RoomTransfer, error) {
	return w.transfers.List(ctx, f)
}
