package model

import (
	"fmt"
	"time"
)

// MaintenanceStatus enumerates the states of a repair request.  The
// nominal flow is PENDING -> ASSIGNED -> IN_PROGRESS -> COMPLETED, but
// staff may jump between distinct states directly; the workflow keeps
// the room's maintenance flag consistent across any jump.
type MaintenanceStatus string

const (
	MaintenancePending    MaintenanceStatus = "PENDING"
	MaintenanceAssigned   MaintenanceStatus = "ASSIGNED"
	MaintenanceInProgress MaintenanceStatus = "IN_PROGRESS"
	MaintenanceCompleted  MaintenanceStatus = "COMPLETED"
)

// ParseMaintenanceStatus converts a raw string into a
// MaintenanceStatus, rejecting unknown values.
func ParseMaintenanceStatus(s string) (MaintenanceStatus, error) {
	switch MaintenanceStatus(s) {
	case MaintenancePending, MaintenanceAssigned, MaintenanceInProgress, MaintenanceCompleted:
		return MaintenanceStatus(s), nil
	}
	return "", fmt.Errorf("invalid maintenance status %q", s)
}

// Maintenance records a repair request against a room.  CompletedDate
// is set exactly when the status becomes COMPLETED and cleared when
// the record leaves that state.
type Maintenance struct {
	ID            uint64            // maintenances.id
	RoomID        uint64            // maintenances.room_id
	ReporterID    uint64            // maintenances.reporter_id
	Issue         string            // maintenances.issue
	Status        MaintenanceStatus // maintenances.status
	AssigneeID    *uint64           // maintenances.assignee_id (nullable)
	CompletedDate *time.Time        // maintenances.completed_date (nullable)
	CreatedAt     time.Time         // maintenances.created_at
	UpdatedAt     time.Time         // maintenances.updated_at
}
