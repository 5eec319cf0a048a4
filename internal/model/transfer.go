package model

import (
	"fmt"
	"time"
)

// TransferStatus enumerates the states of a room transfer request.
// REJECTED and COMPLETED are terminal.
type TransferStatus string

const (
	TransferPending   TransferStatus = "PENDING"
	TransferApproved  TransferStatus = "APPROVED"
	TransferRejected  TransferStatus = "REJECTED"
	TransferCompleted TransferStatus = "COMPLETED"
)

// ParseTransferStatus converts a raw string into a TransferStatus,
// rejecting unknown values.
func ParseTransferStatus(s string) (TransferStatus, error) {
	switch TransferStatus(s) {
	case TransferPending, TransferApproved, TransferRejected, TransferCompleted:
		return TransferStatus(s), nil
	}
	return "", fmt.Errorf("invalid transfer status %q", s)
}

// Terminal reports whether the status permits no further transitions.
func (s TransferStatus) Terminal() bool {
	return s == TransferRejected || s == TransferCompleted
}

// Active reports whether the request still occupies the student's
// single open-transfer slot.  A student may have at most one transfer
// in an active state at a time.
func (s TransferStatus) Active() bool {
	return s == TransferPending || s == TransferApproved
}

// RoomTransfer records a request to move a student between rooms.
// FromRoomID is nil when the student had no room at request time.
// ApproverID is set when staff approve or complete the request and
// cleared on rejection.
type RoomTransfer struct {
	ID            uint64         // room_transfers.id
	StudentID     uint64         // room_transfers.student_id
	FromRoomID    *uint64        // room_transfers.from_room_id (nullable)
	ToRoomID      uint64         // room_transfers.to_room_id
	RequestedDate time.Time      // room_transfers.requested_date
	Reason        string         // room_transfers.reason
	Status        TransferStatus // room_transfers.status
	ApproverID    *uint64        // room_transfers.approver_id (nullable)
	CreatedAt     time.Time      // room_transfers.created_at
	UpdatedAt     time.Time      // room_transfers.updated_at
}
