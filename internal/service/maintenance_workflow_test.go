package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dormhub/dormitory-admin/internal/model"
	"github.com/dormhub/dormitory-admin/internal/repository"
)

func newMaintenanceFixture(store *memStore) *MaintenanceWorkflow {
	reg := NewRoomRegistry(store, store)
	wf := NewMaintenanceWorkflow(maintenanceStore{store}, store, reg, store)
	wf.now = func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }
	return wf
}

func TestMaintenanceCreate(t *testing.T) {
	t.Run("defaults to pending and leaves the room alone", func(t *testing.T) {
		store := newMemStore()
		roomID := store.addRoom(4, 2, model.RoomAvailable)
		wf := newMaintenanceFixture(store)

		m, err := wf.Create(context.Background(), roomID, 7, "broken heater", "", nil)
		if err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}
		if m.Status != model.MaintenancePending {
			t.Errorf("status = %s, want PENDING", m.Status)
		}
		if got := store.rooms[roomID].Status; got != model.RoomAvailable {
			t.Errorf("room status = %s, want AVAILABLE", got)
		}
	})

	t.Run("created in progress raises the flag", func(t *testing.T) {
		store := newMemStore()
		roomID := store.addRoom(4, 2, model.RoomAvailable)
		wf := newMaintenanceFixture(store)

		if _, err := wf.Create(context.Background(), roomID, 7, "burst pipe", model.MaintenanceInProgress, ptr(9)); err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}
		if got := store.rooms[roomID].Status; got != model.RoomUnderMaintenance {
			t.Errorf("room status = %s, want UNDER_MAINTENANCE", got)
		}
	})

	t.Run("missing issue is refused", func(t *testing.T) {
		store := newMemStore()
		roomID := store.addRoom(4, 2, model.RoomAvailable)
		wf := newMaintenanceFixture(store)

		if _, err := wf.Create(context.Background(), roomID, 7, "", "", nil); !errors.Is(err, repository.ErrValidation) {
			t.Fatalf("Create() error = %v, want ErrValidation", err)
		}
	})

	t.Run("unknown room is refused", func(t *testing.T) {
		store := newMemStore()
		wf := newMaintenanceFixture(store)

		if _, err := wf.Create(context.Background(), 42, 7, "leak", "", nil); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("Create() error = %v, want ErrNotFound", err)
		}
	})
}

func TestMaintenanceSetStatus(t *testing.T) {
	t.Run("same status is refused", func(t *testing.T) {
		store := newMemStore()
		roomID := store.addRoom(4, 2, model.RoomAvailable)
		wf := newMaintenanceFixture(store)
		m, err := wf.Create(context.Background(), roomID, 7, "leak", "", nil)
		if err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}
		if _, err := wf.SetStatus(context.Background(), m.ID, model.MaintenancePending, nil); !errors.Is(err, repository.ErrInvalidTransition) {
			t.Fatalf("SetStatus() error = %v, want ErrInvalidTransition", err)
		}
	})

	t.Run("completion clears the flag and restores occupancy status", func(t *testing.T) {
		tests := []struct {
			name       string
			capacity   int
			occupancy  int
			wantStatus model.RoomStatus
		}{
			{"partially occupied room back to AVAILABLE", 4, 2, model.RoomAvailable},
			{"full room back to FULL, not AVAILABLE", 2, 2, model.RoomFull},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				store := newMemStore()
				roomID := store.addRoom(tt.capacity, tt.occupancy, deriveStatus(tt.occupancy, tt.capacity, false))
				wf := newMaintenanceFixture(store)
				m, err := wf.Create(context.Background(), roomID, 7, "leak", model.MaintenanceInProgress, ptr(9))
				if err != nil {
					t.Fatalf("Create() unexpected error: %v", err)
				}
				if got := store.rooms[roomID].Status; got != model.RoomUnderMaintenance {
					t.Fatalf("room status = %s, want UNDER_MAINTENANCE", got)
				}
				done, err := wf.SetStatus(context.Background(), m.ID, model.MaintenanceCompleted, nil)
				if err != nil {
					t.Fatalf("SetStatus() unexpected error: %v", err)
				}
				if done.CompletedDate == nil {
					t.Error("CompletedDate not set on completion")
				}
				if got := store.rooms[roomID].Status; got != tt.wantStatus {
					t.Errorf("room status = %s, want %s", got, tt.wantStatus)
				}
			})
		}
	})

	t.Run("flag survives while a sibling repair is in progress", func(t *testing.T) {
		store := newMemStore()
		roomID := store.addRoom(4, 2, model.RoomAvailable)
		wf := newMaintenanceFixture(store)
		first, err := wf.Create(context.Background(), roomID, 7, "leak", model.MaintenanceInProgress, ptr(9))
		if err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}
		if _, err := wf.Create(context.Background(), roomID, 8, "mold", model.MaintenanceInProgress, ptr(9)); err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}

		if _, err := wf.SetStatus(context.Background(), first.ID, model.MaintenanceCompleted, nil); err != nil {
			t.Fatalf("SetStatus() unexpected error: %v", err)
		}
		if got := store.rooms[roomID].Status; got != model.RoomUnderMaintenance {
			t.Errorf("room status = %s, want UNDER_MAINTENANCE while sibling is open", got)
		}
	})

	t.Run("leaving in progress without completing clears the flag", func(t *testing.T) {
		store := newMemStore()
		roomID := store.addRoom(4, 2, model.RoomAvailable)
		wf := newMaintenanceFixture(store)
		m, err := wf.Create(context.Background(), roomID, 7, "leak", model.MaintenanceInProgress, ptr(9))
		if err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}
		back, err := wf.SetStatus(context.Background(), m.ID, model.MaintenanceAssigned, nil)
		if err != nil {
			t.Fatalf("SetStatus() unexpected error: %v", err)
		}
		if back.CompletedDate != nil {
			t.Error("CompletedDate set outside COMPLETED")
		}
		if got := store.rooms[roomID].Status; got != model.RoomAvailable {
			t.Errorf("room status = %s, want AVAILABLE", got)
		}
	})

	t.Run("reopening a completed record clears the date and raises the flag", func(t *testing.T) {
		store := newMemStore()
		roomID := store.addRoom(4, 2, model.RoomAvailable)
		wf := newMaintenanceFixture(store)
		m, err := wf.Create(context.Background(), roomID, 7, "leak", model.MaintenanceCompleted, ptr(9))
		if err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}
		reopened, err := wf.SetStatus(context.Background(), m.ID, model.MaintenanceInProgress, nil)
		if err != nil {
			t.Fatalf("SetStatus() unexpected error: %v", err)
		}
		if reopened.CompletedDate != nil {
			t.Error("CompletedDate not cleared on reopen")
		}
		if got := store.rooms[roomID].Status; got != model.RoomUnderMaintenance {
			t.Errorf("room status = %s, want UNDER_MAINTENANCE", got)
		}
	})
}

func TestMaintenanceDelete(t *testing.T) {
	t.Run("deleting the only in-progress record clears the flag", func(t *testing.T) {
		store := newMemStore()
		roomID := store.addRoom(4, 2, model.RoomAvailable)
		wf := newMaintenanceFixture(store)
		m, err := wf.Create(context.Background(), roomID, 7, "leak", model.MaintenanceInProgress, ptr(9))
		if err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}
		if err := wf.Delete(context.Background(), m.ID); err != nil {
			t.Fatalf("Delete() unexpected error: %v", err)
		}
		if got := store.rooms[roomID].Status; got != model.RoomAvailable {
			t.Errorf("room status = %s, want AVAILABLE", got)
		}
	})

	t.Run("deleting with a sibling in progress keeps the flag", func(t *testing.T) {
		store := newMemStore()
		roomID := store.addRoom(4, 2, model.RoomAvailable)
		wf := newMaintenanceFixture(store)
		first, err := wf.Create(context.Background(), roomID, 7, "leak", model.MaintenanceInProgress, ptr(9))
		if err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}
		if _, err := wf.Create(context.Background(), roomID, 8, "mold", model.MaintenanceInProgress, ptr(9)); err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}
		if err := wf.Delete(context.Background(), first.ID); err != nil {
			t.Fatalf("Delete() unexpected error: %v", err)
		}
		if got := store.rooms[roomID].Status; got != model.RoomUnderMaintenance {
			t.Errorf("room status = %s, want UNDER_MAINTENANCE", got)
		}
	})

	t.Run("deleting a pending record never touches the room", func(t *testing.T) {
		store := newMemStore()
		roomID := store.addRoom(2, 2, model.RoomFull)
		wf := newMaintenanceFixture(store)
		m, err := wf.Create(context.Background(), roomID, 7, "leak", "", nil)
		if err != nil {
			t.Fatalf("Create() unexpected error: %v", err)
		}
		if err := wf.Delete(context.Background(), m.ID); err != nil {
			t.Fatalf("Delete() unexpected error: %v", err)
		}
		if got := store.rooms[roomID].Status; got != model.RoomFull {
			t.Errorf("room status = %s, want FULL", got)
		}
	})
}
