package service

import (
	"context"
	"fmt"

	"github.com/dormhub/dormitory-admin/internal/model"
	"github.com/dormhub/dormitory-admin/internal/repository"
)

// RoomRegistry owns room occupancy and status bookkeeping.  It is the
// only component that writes Room.ActualOccupancy and Room.Status; the
// transfer and maintenance workflows request changes through it and
// never touch room columns directly.  The registry reads and writes
// nothing but rooms.
type RoomRegistry struct {
	rooms RoomStore
	txr   TxRunner
}

// NewRoomRegistry constructs a RoomRegistry.
func NewRoomRegistry(rooms RoomStore, txr TxRunner) *RoomRegistry {
	return &RoomRegistry{rooms: rooms, txr: txr}
}

// deriveStatus computes the status a room should carry for a given
// occupancy.  A raised maintenance flag dominates; otherwise the room
// is FULL exactly when every bed is taken.
func deriveStatus(occupancy, capacity int, underMaintenance bool) model.RoomStatus {
	if underMaintenance {
		return model.RoomUnderMaintenance
	}
	if occupancy >= capacity {
		return model.RoomFull
	}
	return model.RoomAvailable
}

// GetRoom loads a room by ID.
func (r *RoomRegistry) GetRoom(ctx context.Context, roomID uint64) (*model.Room, error) {
	return r.rooms.Get(ctx, roomID)
}

// AdjustOccupancy applies a delta to a room's occupancy under a locking
// read, re-derives the status and persists both in one write.  A delta
// that would push occupancy below zero or above capacity fails with
// ErrCapacityExceeded and writes nothing.  When called inside a
// coordinated transaction the adjustment joins it; standalone calls get
// their own transaction.
func (r *RoomRegistry) AdjustOccupancy(ctx context.Context, roomID uint64, delta int) (*model.Room, error) {
	var out *model.Room
	err := r.txr.Execute(ctx, func(ctx context.Context) error {
		room, err := r.rooms.GetForUpdate(ctx, roomID)
		if err != nil {
			return err
		}
		next := room.ActualOccupancy + delta
		if next < 0 || next > room.Capacity {
			return fmt.Errorf("room %d: occupancy %d%+d out of 0..%d: %w",
				roomID, room.ActualOccupancy, delta, room.Capacity, repository.ErrCapacityExceeded)
		}
		status := deriveStatus(next, room.Capacity, room.Status == model.RoomUnderMaintenance)
		if err := r.rooms.UpdateOccupancyStatus(ctx, roomID, next, status); err != nil {
			return err
		}
		room.ActualOccupancy = next
		room.Status = status
		out = room
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetMaintenanceFlag raises or clears the UNDER_MAINTENANCE status.
// Clearing recomputes FULL versus AVAILABLE from the current occupancy
// rather than assuming the room is free.
func (r *RoomRegistry) SetMaintenanceFlag(ctx context.Context, roomID uint64, active bool) (*model.Room, error) {
	var out *model.Room
	err := r.txr.Execute(ctx, func(ctx context.Context) error {
		room, err := r.rooms.GetForUpdate(ctx, roomID)
		if err != nil {
			return err
		}
		status := deriveStatus(room.ActualOccupancy, room.Capacity, active)
		if err := r.rooms.UpdateOccupancyStatus(ctx, roomID, room.ActualOccupancy, status); err != nil {
			return err
		}
		room.Status = status
		out = room
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
