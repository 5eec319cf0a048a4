package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dormhub/dormitory-admin/internal/model"
	"github.com/dormhub/dormitory-admin/internal/repository"
)

// MaintenanceWorkflow drives repair requests and keeps the room's
// UNDER_MAINTENANCE flag in step with them.  Staff may move a record
// between any two distinct statuses; what the workflow guarantees is
// the flag invariant: a room is UNDER_MAINTENANCE exactly while at
// least one of its records is IN_PROGRESS.  Before clearing the flag
// it therefore counts sibling IN_PROGRESS records instead of assuming
// it owns the flag alone.
type MaintenanceWorkflow struct {
	records  MaintenanceStore
	rooms    RoomStore
	registry *RoomRegistry
	txr      TxRunner
	now      func() time.Time
}

// NewMaintenanceWorkflow constructs a MaintenanceWorkflow.
func NewMaintenanceWorkflow(records MaintenanceStore, rooms RoomStore, registry *RoomRegistry, txr TxRunner) *MaintenanceWorkflow {
	return &MaintenanceWorkflow{records: records, rooms: rooms, registry: registry, txr: txr, now: time.Now}
}

// Create files a repair request for a room.  The initial status
// defaults to PENDING; a report created directly as IN_PROGRESS raises
// the room's maintenance flag in the same transaction.
func (w *MaintenanceWorkflow) Create(ctx context.Context, roomID, reporterID uint64, issue string, status model.MaintenanceStatus, assigneeID *uint64) (*model.Maintenance, error) {
	if roomID == 0 || reporterID == 0 {
		return nil, fmt.Errorf("room and reporter are required: %w", repository.ErrValidation)
	}
	if issue == "" {
		return nil, fmt.Errorf("issue description is required: %w", repository.ErrValidation)
	}
	if status == "" {
		status = model.MaintenancePending
	}
	var out *model.Maintenance
	err := w.txr.Execute(ctx, func(ctx context.Context) error {
		if _, err := w.rooms.GetForUpdate(ctx, roomID); err != nil {
			return err
		}
		m := &model.Maintenance{
			RoomID:     roomID,
			ReporterID: reporterID,
			Issue:      issue,
			Status:     status,
			AssigneeID: assigneeID,
		}
		if status == model.MaintenanceCompleted {
			t := w.now().UTC()
			m.CompletedDate = &t
		}
		if err := w.records.Insert(ctx, m); err != nil {
			return err
		}
		if status == model.MaintenanceInProgress {
			if _, err := w.registry.SetMaintenanceFlag(ctx, roomID, true); err != nil {
				return err
			}
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetStatus moves a record to a new status and reconciles the room
// flag.  Entering IN_PROGRESS raises the flag.  Leaving IN_PROGRESS,
// whether by completion or not, clears it only when no sibling record
// for the room is still IN_PROGRESS, which recomputes the room back to
// FULL or AVAILABLE from its current occupancy.  CompletedDate is set
// exactly while the record sits in COMPLETED.
func (w *MaintenanceWorkflow) SetStatus(ctx context.Context, maintenanceID uint64, newStatus model.MaintenanceStatus, assigneeID *uint64) (*model.Maintenance, error) {
	var out *model.Maintenance
	err := w.txr.Execute(ctx, func(ctx context.Context) error {
		m, err := w.records.GetForUpdate(ctx, maintenanceID)
		if err != nil {
			return err
		}
		old := m.Status
		if old == newStatus {
			return fmt.Errorf("maintenance %d is already %s: %w",
				maintenanceID, old, repository.ErrInvalidTransition)
		}
		m.Status = newStatus
		if assigneeID != nil {
			m.AssigneeID = assigneeID
		}
		if newStatus == model.MaintenanceCompleted {
			t := w.now().UTC()
			m.CompletedDate = &t
		} else {
			m.CompletedDate = nil
		}
		if err := w.records.Update(ctx, m); err != nil {
			return err
		}
		if newStatus == model.MaintenanceInProgress {
			if _, err := w.registry.SetMaintenanceFlag(ctx, m.RoomID, true); err != nil {
				return err
			}
		} else if old == model.MaintenanceInProgress {
			if err := w.clearFlagIfIdle(ctx, m.RoomID, m.ID); err != nil {
				return err
			}
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a repair record.  Deleting a record that was holding
// the room under maintenance mirrors the completion side effect: the
// flag clears once no sibling IN_PROGRESS record remains.
func (w *MaintenanceWorkflow) Delete(ctx context.Context, maintenanceID uint64) error {
	return w.txr.Execute(ctx, func(ctx context.Context) error {
		m, err := w.records.GetForUpdate(ctx, maintenanceID)
		if err != nil {
			return err
		}
		if err := w.records.Delete(ctx, maintenanceID); err != nil {
			return err
		}
		if m.Status == model.MaintenanceInProgress {
			return w.clearFlagIfIdle(ctx, m.RoomID, m.ID)
		}
		return nil
	})
}

// clearFlagIfIdle clears the room's maintenance flag when no
// IN_PROGRESS record other than excludeID remains for it.
func (w *MaintenanceWorkflow) clearFlagIfIdle(ctx context.Context, roomID, excludeID uint64) error {
	n, err := w.records.CountInProgressForRoom(ctx, roomID, excludeID)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err = w.registry.SetMaintenanceFlag(ctx, roomID, false)
	return err
}

// Get loads a maintenance record.
func (w *MaintenanceWorkflow) Get(ctx context.Context, id uint64) (*model.Maintenance, error) {
	return w.records.Get(ctx, id)
}

// List returns maintenance records matching the filter.
func (w *MaintenanceWorkflow) List(ctx context.Context, f repository.MaintenanceFilter) ([]model.Maintenance, error) {
	return w.records.List(ctx, f)
}
