package repository

import (
	"fmt"

	"github.com/dormhub/dormitory-admin/internal/model"
)

// List filters are tagged variants: a kind selects which typed
// parameter applies, and Validate rejects malformed combinations
// before any SQL is built.  This replaces ad hoc map-shaped where
// clauses with something the compiler and tests can check.

// TransferFilterKind selects which field of TransferFilter applies.
type TransferFilterKind int

const (
	// TransferFilterAll lists every transfer.
	TransferFilterAll TransferFilterKind = iota
	// TransferFilterByStudent lists transfers requested by one student.
	TransferFilterByStudent
	// TransferFilterByStatus lists transfers in one status.
	TransferFilterByStatus
	// TransferFilterByRoom lists transfers moving into or out of a room.
	TransferFilterByRoom
)

// TransferFilter narrows a transfer listing.  Only the field matching
// Kind is consulted.
type TransferFilter struct {
	Kind      TransferFilterKind
	StudentID uint64
	Status    model.TransferStatus
	RoomID    uint64
}

// Validate checks that the parameter for the selected kind is present
// and well formed.
func (f TransferFilter) Validate() error {
	switch f.Kind {
	case TransferFilterAll:
		return nil
	case TransferFilterByStudent:
		if f.StudentID == 0 {
			return fmt.Errorf("student filter requires a student id: %w", ErrValidation)
		}
		return nil
	case TransferFilterByStatus:
		if _, err := model.ParseTransferStatus(string(f.Status)); err != nil {
			return fmt.Errorf("%v: %w", err, ErrValidation)
		}
		return nil
	case TransferFilterByRoom:
		if f.RoomID == 0 {
			return fmt.Errorf("room filter requires a room id: %w", ErrValidation)
		}
		return nil
	}
	return fmt.Errorf("unknown transfer filter kind %d: %w", f.Kind, ErrValidation)
}

// where translates the filter into a SQL fragment and its arguments.
// Callers must Validate first.
func (f TransferFilter) where() (string, []interface{}) {
	switch f.Kind {
	case TransferFilterByStudent:
		return ` WHERE student_id = ?`, []interface{}{f.StudentID}
	case TransferFilterByStatus:
		return ` WHERE status = ?`, []interface{}{string(f.Status)}
	case TransferFilterByRoom:
		return ` WHERE from_room_id = ? OR to_room_id = ?`, []interface{}{f.RoomID, f.RoomID}
	}
	return ``, nil
}

// MaintenanceFilterKind selects which field of MaintenanceFilter applies.
type MaintenanceFilterKind int

const (
	// MaintenanceFilterAll lists every maintenance record.
	MaintenanceFilterAll MaintenanceFilterKind = iota
	// MaintenanceFilterByRoom lists records for one room.
	MaintenanceFilterByRoom
	// MaintenanceFilterByStatus lists records in one status.
	MaintenanceFilterByStatus
	// MaintenanceFilterByAssignee lists records assigned to one staff member.
	MaintenanceFilterByAssignee
)

// MaintenanceFilter narrows a maintenance listing.
type MaintenanceFilter struct {
	Kind       MaintenanceFilterKind
	RoomID     uint64
	Status     model.MaintenanceStatus
	AssigneeID uint64
}

// Validate checks that the parameter for the selected kind is present
// and well formed.
func (f MaintenanceFilter) Validate() error {
	switch f.Kind {
	case MaintenanceFilterAll:
		return nil
	case MaintenanceFilterByRoom:
		if f.RoomID == 0 {
			return fmt.Errorf("room filter requires a room id: %w", ErrValidation)
		}
		return nil
	case MaintenanceFilterByStatus:
		if _, err := model.ParseMaintenanceStatus(string(f.Status)); err != nil {
			return fmt.Errorf("%v: %w", err, ErrValidation)
		}
		return nil
	case MaintenanceFilterByAssignee:
		if f.AssigneeID == 0 {
			return fmt.Errorf("assignee filter requires a staff id: %w", ErrValidation)
		}
		return nil
	}
	return fmt.Errorf("unknown maintenance filter kind %d: %w", f.Kind, ErrValidation)
}

func (f MaintenanceFilter) where() (string, []interface{}) {
	switch f.Kind {
	case MaintenanceFilterByRoom:
		return ` WHERE room_id = ?`, []interface{}{f.RoomID}
	case MaintenanceFilterByStatus:
		return ` WHERE status = ?`, []interface{}{string(f.Status)}
	case MaintenanceFilterByAssignee:
		return ` WHERE assignee_id = ?`, []interface{}{f.AssigneeID}
	}
	return ``, nil
}
