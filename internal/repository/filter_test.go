package repository

import (
	"errors"
	"testing"

	"github.com/dormhub/dormitory-admin/internal/model"
)

func TestTransferFilterValidate(t *testing.T) {
	tests := []struct {
		name    string
		filter  TransferFilter
		wantErr bool
	}{
		{"all", TransferFilter{Kind: TransferFilterAll}, false},
		{"by student", TransferFilter{Kind: TransferFilterByStudent, StudentID: 7}, false},
		{"by student without id", TransferFilter{Kind: TransferFilterByStudent}, true},
		{"by status", TransferFilter{Kind: TransferFilterByStatus, Status: model.TransferPending}, false},
		{"by unknown status", TransferFilter{Kind: TransferFilterByStatus, Status: "pending"}, true},
		{"by empty status", TransferFilter{Kind: TransferFilterByStatus}, true},
		{"by room", TransferFilter{Kind: TransferFilterByRoom, RoomID: 3}, false},
		{"by room without id", TransferFilter{Kind: TransferFilterByRoom}, true},
		{"unknown kind", TransferFilter{Kind: TransferFilterKind(42)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("Validate() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestTransferFilterWhere(t *testing.T) {
	tests := []struct {
		name     string
		filter   TransferFilter
		wantSQL  string
		wantArgs int
	}{
		{"all has no clause", TransferFilter{Kind: TransferFilterAll}, ``, 0},
		{"by student", TransferFilter{Kind: TransferFilterByStudent, StudentID: 7}, ` WHERE student_id = ?`, 1},
		{"by status", TransferFilter{Kind: TransferFilterByStatus, Status: model.TransferApproved}, ` WHERE status = ?`, 1},
		{"by room matches both directions", TransferFilter{Kind: TransferFilterByRoom, RoomID: 3}, ` WHERE from_room_id = ? OR to_room_id = ?`, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := tt.filter.where()
			if sql != tt.wantSQL {
				t.Errorf("where() sql = %q, want %q", sql, tt.wantSQL)
			}
			if len(args) != tt.wantArgs {
				t.Errorf("where() args = %d, want %d", len(args), tt.wantArgs)
			}
		})
	}
}

func TestMaintenanceFilterValidate(t *testing.T) {
	tests := []struct {
		name    string
		filter  MaintenanceFilter
		wantErr bool
	}{
		{"all", MaintenanceFilter{Kind: MaintenanceFilterAll}, false},
		{"by room", MaintenanceFilter{Kind: MaintenanceFilterByRoom, RoomID: 4}, false},
		{"by room without id", MaintenanceFilter{Kind: MaintenanceFilterByRoom}, true},
		{"by status", MaintenanceFilter{Kind: MaintenanceFilterByStatus, Status: model.MaintenanceInProgress}, false},
		{"by lowercase status", MaintenanceFilter{Kind: MaintenanceFilterByStatus, Status: "in_progress"}, true},
		{"by assignee", MaintenanceFilter{Kind: MaintenanceFilterByAssignee, AssigneeID: 9}, false},
		{"by assignee without id", MaintenanceFilter{Kind: MaintenanceFilterByAssignee}, true},
		{"unknown kind", MaintenanceFilter{Kind: MaintenanceFilterKind(42)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("Validate() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestMaintenanceFilterWhere(t *testing.T) {
	tests := []struct {
		name     string
		filter   MaintenanceFilter
		wantSQL  string
		wantArgs int
	}{
		{"all has no clause", MaintenanceFilter{Kind: MaintenanceFilterAll}, ``, 0},
		{"by room", MaintenanceFilter{Kind: MaintenanceFilterByRoom, RoomID: 4}, ` WHERE room_id = ?`, 1},
		{"by status", MaintenanceFilter{Kind: MaintenanceFilterByStatus, Status: model.MaintenancePending}, ` WHERE status = ?`, 1},
		{"by assignee", MaintenanceFilter{Kind: MaintenanceFilterByAssignee, AssigneeID: 9}, ` WHERE assignee_id = ?`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := tt.filter.where()
			if sql != tt.wantSQL {
				t.Errorf("where() sql = %q, want %q", sql, tt.wantSQL)
			}
			if len(args) != tt.wantArgs {
				t.Errorf("where() args = %d, want %d", len(args), tt.wantArgs)
			}
		})
	}
}
