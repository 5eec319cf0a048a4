package model

import (
	"fmt"
	"time"
)

// StudentStatus enumerates the residency states of a student.  Only a
// RENTING student may request a room transfer.
type StudentStatus string

const (
	StudentRenting    StudentStatus = "RENTING"
	StudentCheckedOut StudentStatus = "CHECKED_OUT"
	StudentSuspended  StudentStatus = "SUSPENDED"
)

// ParseStudentStatus converts a raw string into a StudentStatus,
// rejecting unknown values.
func ParseStudentStatus(s string) (StudentStatus, error) {
	switch StudentStatus(s) {
	case StudentRenting, StudentCheckedOut, StudentSuspended:
		return StudentStatus(s), nil
	}
	return "", fmt.Errorf("invalid student status %q", s)
}

// Student mirrors the students table.  RoomID is nil while the student
// has no bed assigned (before first move-in or after check-out).
type Student struct {
	ID        uint64        // students.id
	FullName  string        // students.full_name
	Email     string        // students.email
	RoomID    *uint64       // students.room_id (nullable)
	Status    StudentStatus // students.status
	CreatedAt time.Time     // students.created_at
	UpdatedAt time.Time     // students.updated_at
}
