package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dormhub/dormitory-admin/internal/model"
)

// RoomRepo provides row-level access to the rooms table.  Occupancy and
// status writes always happen through the room registry, which is the
// only component allowed to decide those values; this repo just moves
// them to and from MySQL.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

const roomColumns = `id, building_id, number, capacity, actual_occupancy, status, created_at, updated_at`

func scanRoom(row *sql.Row, id uint64) (*model.Room, error) {
	var rm model.Room
	var status string
	err := row.Scan(&rm.ID, &rm.BuildingID, &rm.Number, &rm.Capacity,
		&rm.ActualOccupancy, &status, &rm.CreatedAt, &rm.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("room %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	rm.Status = model.RoomStatus(status)
	return &rm, nil
}

// Get loads a room by ID without locking it.
func (r *RoomRepo) Get(ctx context.Context, id uint64) (*model.Room, error) {
	q := `SELECT ` + roomColumns + ` FROM rooms WHERE id = ?`
	return scanRoom(querier(ctx, r.db).QueryRowContext(ctx, q, id), id)
}

// GetForUpdate loads a room with a locking read.  Inside a coordinated
// transaction the row stays locked until commit, which serializes
// concurrent occupancy changes on the same room: the loser of a race
// blocks here and then observes the winner's committed occupancy.
func (r *RoomRepo) GetForUpdate(ctx context.Context, id uint64) (*model.Room, error) {
	q := `SELECT ` + roomColumns + ` FROM rooms WHERE id = ? FOR UPDATE`
	return scanRoom(querier(ctx, r.db).QueryRowContext(ctx, q, id), id)
}

// UpdateOccupancyStatus persists a new occupancy and derived status in
// one write, keeping the pair consistent on disk.
func (r *RoomRepo) UpdateOccupancyStatus(ctx context.Context, id uint64, occupancy int, status model.RoomStatus) error {
	const q = `UPDATE rooms SET actual_occupancy = ?, status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
	_, err := querier(ctx, r.db).ExecContext(ctx, q, occupancy, string(status), id)
	return err
}
