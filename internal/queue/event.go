// Package queue defines the message payloads exchanged over the
// broker and the background consumer that records them.
package queue

// Queue names used by the publisher and consumer.
const (
	TransferCompletedQueue = "transfer.completed"
	PaymentRecordedQueue   = "payment.recorded"
)

// TransferCompletedEvent is published after a room transfer commits.
// It carries enough context for downstream consumers to log or notify
// without querying the primary database.
type TransferCompletedEvent struct {
	TransferID  uint64  `json:"transfer_id"`
	StudentID   uint64  `json:"student_id"`
	FromRoomID  *uint64 `json:"from_room_id,omitempty"`
	ToRoomID    uint64  `json:"to_room_id"`
	ApproverID  *uint64 `json:"approver_id,omitempty"`
	CompletedAt string  `json:"completed_at"`
}

// PaymentRecordedEvent is published after a payment commits.
type PaymentRecordedEvent struct {
	PaymentID  uint64 `json:"payment_id"`
	InvoiceID  uint64 `json:"invoice_id"`
	Amount     int64  `json:"amount"`
	Status     string `json:"invoice_status"`
	RecordedAt string `json:"recorded_at"`
}
