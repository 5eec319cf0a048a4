package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dormhub/dormitory-admin/internal/model"
)

// StudentRepo provides the reads and the single write (room
// assignment) the transfer workflow needs from the students table.
// Full student profile CRUD lives outside the core.
type StudentRepo struct {
	db *sql.DB
}

// NewStudentRepo returns a StudentRepo bound to the given database.
func NewStudentRepo(db *sql.DB) *StudentRepo { return &StudentRepo{db: db} }

const studentColumns = `id, full_name, email, room_id, status, created_at, updated_at`

func scanStudent(row *sql.Row, id uint64) (*model.Student, error) {
	var st model.Student
	var roomID sql.NullInt64
	var status string
	err := row.Scan(&st.ID, &st.FullName, &st.Email, &roomID, &status, &st.CreatedAt, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("student %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if roomID.Valid {
		rid := uint64(roomID.Int64)
		st.RoomID = &rid
	}
	st.Status = model.StudentStatus(status)
	return &st, nil
}

// Get loads a student by ID.
func (r *StudentRepo) Get(ctx context.Context, id uint64) (*model.Student, error) {
	q := `SELECT ` + studentColumns + ` FROM students WHERE id = ?`
	return scanStudent(querier(ctx, r.db).QueryRowContext(ctx, q, id), id)
}

// GetForUpdate loads a student with a locking read so that a transfer
// completion and a concurrent check-out cannot both reassign the room.
func (r *StudentRepo) GetForUpdate(ctx context.Context, id uint64) (*model.Student, error) {
	q := `SELECT ` + studentColumns + ` FROM students WHERE id = ? FOR UPDATE`
	return scanStudent(querier(ctx, r.db).QueryRowContext(ctx, q, id), id)
}

// AssignRoom points the student at a new room, or detaches them when
// roomID is nil.
func (r *StudentRepo) AssignRoom(ctx context.Context, studentID uint64, roomID *uint64) error {
	const q = `UPDATE students SET room_id = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	var arg interface{}
	if roomID != nil {
		arg = *roomID
	}
	_, err := querier(ctx, r.db).ExecContext(ctx, q, arg, studentID)
	return err
}
