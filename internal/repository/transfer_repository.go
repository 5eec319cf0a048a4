package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dormhub/dormitory-admin/internal/model"
)

// TransferRepo provides CRUD operations for room transfer requests.
// Status transitions and their side effects are decided by the
// transfer workflow; this repo only persists rows.
type TransferRepo struct {
	db *sql.DB
}

// NewTransferRepo returns a TransferRepo bound to the given database.
func NewTransferRepo(db *sql.DB) *TransferRepo { return &TransferRepo{db: db} }

const transferColumns = `id, student_id, from_room_id, to_room_id, requested_date, reason, status, approver_id, created_at, updated_at`

func scanTransfer(row *sql.Row, id uint64) (*model.RoomTransfer, error) {
	var tr model.RoomTransfer
	var fromRoom, approver sql.NullInt64
	var status string
	err := row.Scan(&tr.ID, &tr.StudentID, &fromRoom, &tr.ToRoomID, &tr.RequestedDate,
		&tr.Reason, &status, &approver, &tr.CreatedAt, &tr.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transfer %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if fromRoom.Valid {
		v := uint64(fromRoom.Int64)
		tr.FromRoomID = &v
	}
	if approver.Valid {
		v := uint64(approver.Int64)
		tr.ApproverID = &v
	}
	tr.Status = model.TransferStatus(status)
	return &tr, nil
}

// Insert creates a new transfer row and populates the generated ID and
// timestamps on the passed record.
func (r *TransferRepo) Insert(ctx context.Context, tr *model.RoomTransfer) error {
	const q = `INSERT INTO room_transfers (student_id, from_room_id, to_room_id, requested_date, reason, status)
	           VALUES (?, ?, ?, ?, ?, ?)`
	var fromRoom interface{}
	if tr.FromRoomID != nil {
		fromRoom = *tr.FromRoomID
	}
	res, err := querier(ctx, r.db).ExecContext(ctx, q,
		tr.StudentID, fromRoom, tr.ToRoomID, tr.RequestedDate, tr.Reason, string(tr.Status))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	tr.ID = uint64(id)
	// Read the row back to pick up DB-side timestamp defaults.
	sel := `SELECT ` + transferColumns + ` FROM room_transfers WHERE id = ?`
	stored, err := scanTransfer(querier(ctx, r.db).QueryRowContext(ctx, sel, tr.ID), tr.ID)
	if err != nil {
		return err
	}
	*tr = *stored
	return nil
}

// Get loads a transfer by ID.
func (r *TransferRepo) Get(ctx context.Context, id uint64) (*model.RoomTransfer, error) {
	q := `SELECT ` + transferColumns + ` FROM room_transfers WHERE id = ?`
	return scanTransfer(querier(ctx, r.db).QueryRowContext(ctx, q, id), id)
}

// GetForUpdate loads a transfer with a locking read so concurrent
// status changes on the same request serialize.
func (r *TransferRepo) GetForUpdate(ctx context.Context, id uint64) (*model.RoomTransfer, error) {
	q := `SELECT ` + transferColumns + ` FROM room_transfers WHERE id = ? FOR UPDATE`
	return scanTransfer(querier(ctx, r.db).QueryRowContext(ctx, q, id), id)
}

// UpdateStatus writes a new status and approver.  Passing a nil
// approver clears the column, which is how rejections drop the
// previous approver.
func (r *TransferRepo) UpdateStatus(ctx context.Context, id uint64, status model.TransferStatus, approverID *uint64) error {
	const q = `UPDATE room_transfers SET status = ?, approver_id = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	var approver interface{}
	if approverID != nil {
		approver = *approverID
	}
	_, err := querier(ctx, r.db).ExecContext(ctx, q, string(status), approver, id)
	return err
}

// Delete removes a transfer row.  State checks belong to the workflow.
func (r *TransferRepo) Delete(ctx context.Context, id uint64) error {
	res, err := querier(ctx, r.db).ExecContext(ctx, `DELETE FROM room_transfers WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("transfer %d: %w", id, ErrNotFound)
	}
	return nil
}

// CountActiveByStudent counts the student's transfers in PENDING or
// APPROVED.  The workflow calls this inside the creation transaction
// to enforce the one-active-request rule.
func (r *TransferRepo) CountActiveByStudent(ctx context.Context, studentID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM room_transfers WHERE student_id = ? AND status IN ('PENDING','APPROVED')`
	var n int
	if err := querier(ctx, r.db).QueryRowContext(ctx, q, studentID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// List returns transfers matching the validated filter, newest first.
func (r *TransferRepo) List(ctx context.Context, f TransferFilter) ([]model.RoomTransfer, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	where, args := f.where()
	q := `SELECT ` + transferColumns + ` FROM room_transfers` + where + ` ORDER BY created_at DESC`
	rows, err := querier(ctx, r.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.RoomTransfer, 0)
	for rows.Next() {
		var tr model.RoomTransfer
		var fromRoom, approver sql.NullInt64
		var status string
		if err := rows.Scan(&tr.ID, &tr.StudentID, &fromRoom, &tr.ToRoomID, &tr.RequestedDate,
			&tr.Reason, &status, &approver, &tr.CreatedAt, &tr.UpdatedAt); err != nil {
			return nil, err
		}
		if fromRoom.Valid {
			v := uint64(fromRoom.Int64)
			tr.FromRoomID = &v
		}
		if approver.Valid {
			v := uint64(approver.Int64)
			tr.ApproverID = &v
		}
		tr.Status = model.TransferStatus(status)
		out = append(out, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
