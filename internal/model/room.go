package model

import (
	"fmt"
	"time"
)

// RoomStatus enumerates the lifecycle states of a room.  The status is
// always derived from occupancy and active maintenance work, never set
// directly by callers outside the room registry.
type RoomStatus string

const (
	RoomAvailable        RoomStatus = "AVAILABLE"
	RoomFull             RoomStatus = "FULL"
	RoomUnderMaintenance RoomStatus = "UNDER_MAINTENANCE"
)

// ParseRoomStatus converts a raw string into a RoomStatus.  Unknown
// values are rejected rather than case-folded so that typos surface at
// the boundary instead of being silently normalized.
func ParseRoomStatus(s string) (RoomStatus, error) {
	switch RoomStatus(s) {
	case RoomAvailable, RoomFull, RoomUnderMaintenance:
		return RoomStatus(s), nil
	}
	return "", fmt.Errorf("invalid room status %q", s)
}

// Room mirrors the rooms table.  Capacity is the maximum number of
// residents; ActualOccupancy counts the residents currently assigned.
//
// Invariants maintained by the room registry:
//
//	0 <= ActualOccupancy <= Capacity
//	Status == FULL iff ActualOccupancy >= Capacity and no repair is in progress
//	Status == UNDER_MAINTENANCE iff at least one maintenance record is IN_PROGRESS
type Room struct {
	ID              uint64     // rooms.id
	BuildingID      uint64     // rooms.building_id
	Number          string     // rooms.number, e.g. "B-204"
	Capacity        int        // rooms.capacity
	ActualOccupancy int        // rooms.actual_occupancy
	Status          RoomStatus // rooms.status
	CreatedAt       time.Time  // rooms.created_at
	UpdatedAt       time.Time  // rooms.updated_at
}

// HasFreeCapacity reports whether a new resident could move in right
// now: the room must not be under maintenance and must have at least
// one unoccupied bed.
func (r *Room) HasFreeCapacity() bool {
	return r.Status != RoomUnderMaintenance && r.ActualOccupancy < r.Capacity
}
