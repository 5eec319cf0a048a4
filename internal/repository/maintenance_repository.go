package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dormhub/dormitory-admin/internal/model"
)

// MaintenanceRepo provides CRUD operations for maintenance records.
// The room's UNDER_MAINTENANCE flag is owned by the room registry; the
// workflow consults CountInProgressForRoom before asking the registry
// to clear it.
type MaintenanceRepo struct {
	db *sql.DB
}

// NewMaintenanceRepo returns a MaintenanceRepo bound to the given database.
func NewMaintenanceRepo(db *sql.DB) *MaintenanceRepo { return &MaintenanceRepo{db: db} }

const maintenanceColumns = `id, room_id, reporter_id, issue, status, assignee_id, completed_date, created_at, updated_at`

func scanMaintenance(row *sql.Row, id uint64) (*model.Maintenance, error) {
	var m model.Maintenance
	var assignee sql.NullInt64
	var completed sql.NullTime
	var status string
	err := row.Scan(&m.ID, &m.RoomID, &m.ReporterID, &m.Issue, &status,
		&assignee, &completed, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("maintenance %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if assignee.Valid {
		v := uint64(assignee.Int64)
		m.AssigneeID = &v
	}
	if completed.Valid {
		t := completed.Time
		m.CompletedDate = &t
	}
	m.Status = model.MaintenanceStatus(status)
	return &m, nil
}

// Insert creates a maintenance row and populates the generated ID and
// timestamps on the passed record.
func (r *MaintenanceRepo) Insert(ctx context.Context, m *model.Maintenance) error {
	const q = `INSERT INTO maintenances (room_id, reporter_id, issue, status, assignee_id, completed_date)
	           VALUES (?, ?, ?, ?, ?, ?)`
	var assignee, completed interface{}
	if m.AssigneeID != nil {
		assignee = *m.AssigneeID
	}
	if m.CompletedDate != nil {
		completed = *m.CompletedDate
	}
	res, err := querier(ctx, r.db).ExecContext(ctx, q,
		m.RoomID, m.ReporterID, m.Issue, string(m.Status), assignee, completed)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	sel := `SELECT ` + maintenanceColumns + ` FROM maintenances WHERE id = ?`
	stored, err := scanMaintenance(querier(ctx, r.db).QueryRowContext(ctx, sel, m.ID), m.ID)
	if err != nil {
		return err
	}
	*m = *stored
	return nil
}

// Get loads a maintenance record by ID.
func (r *MaintenanceRepo) Get(ctx context.Context, id uint64) (*model.Maintenance, error) {
	q := `SELECT ` + maintenanceColumns + ` FROM maintenances WHERE id = ?`
	return scanMaintenance(querier(ctx, r.db).QueryRowContext(ctx, q, id), id)
}

// GetForUpdate loads a maintenance record with a locking read.
func (r *MaintenanceRepo) GetForUpdate(ctx context.Context, id uint64) (*model.Maintenance, error) {
	q := `SELECT ` + maintenanceColumns + ` FROM maintenances WHERE id = ? FOR UPDATE`
	return scanMaintenance(querier(ctx, r.db).QueryRowContext(ctx, q, id), id)
}

// Update persists status, assignee and completion date for a record.
func (r *MaintenanceRepo) Update(ctx context.Context, m *model.Maintenance) error {
	const q = `UPDATE maintenances SET status = ?, assignee_id = ?, completed_date = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	var assignee, completed interface{}
	if m.AssigneeID != nil {
		assignee = *m.AssigneeID
	}
	if m.CompletedDate != nil {
		completed = *m.CompletedDate
	}
	_, err := querier(ctx, r.db).ExecContext(ctx, q, string(m.Status), assignee, completed, m.ID)
	return err
}

// Delete removes a maintenance row.
func (r *MaintenanceRepo) Delete(ctx context.Context, id uint64) error {
	res, err := querier(ctx, r.db).ExecContext(ctx, `DELETE FROM maintenances WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("maintenance %d: %w", id, ErrNotFound)
	}
	return nil
}

// CountInProgressForRoom counts IN_PROGRESS records for a room,
// excluding the given record ID.  The workflow uses it as a set-based
// sibling check: the room's maintenance flag only clears when no other
// repair is still running, regardless of which record finished first.
func (r *MaintenanceRepo) CountInProgressForRoom(ctx context.Context, roomID, excludeID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM maintenances WHERE room_id = ? AND status = 'IN_PROGRESS' AND id <> ?`
	var n int
	if err := querier(ctx, r.db).QueryRowContext(ctx, q, roomID, excludeID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// List returns maintenance records matching the validated filter,
// newest first.
func (r *MaintenanceRepo) List(ctx context.Context, f MaintenanceFilter) ([]model.Maintenance, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	where, args := f.where()
	q := `SELECT ` + maintenanceColumns + ` FROM maintenances` + where + ` ORDER BY created_at DESC`
	rows, err := querier(ctx, r.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Maintenance, 0)
	for rows.Next() {
		var m model.Maintenance
		var assignee sql.NullInt64
		var completed sql.NullTime
		var status string
		if err := rows.Scan(&m.ID, &m.RoomID, &m.ReporterID, &m.Issue, &status,
			&assignee, &completed, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		if assignee.Valid {
			v := uint64(assignee.Int64)
			m.AssigneeID = &v
		}
		if completed.Valid {
			t := completed.Time
			m.CompletedDate = &t
		}
		m.Status = model.MaintenanceStatus(status)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
