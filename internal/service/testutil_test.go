package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dormhub/dormitory-admin/internal/model"
	"github.com/dormhub/dormitory-admin/internal/repository"
)

// memStore is an in-memory stand-in for the repository layer.  It
// implements every store interface plus TxRunner: Execute serializes
// units of work behind one mutex, snapshots the state on entry and
// restores it when the unit fails, so tests observe the same
// all-or-nothing behavior the coordinator provides over MySQL.
type memStore struct {
	mu sync.Mutex

	rooms        map[uint64]model.Room
	students     map[uint64]model.Student
	transfers    map[uint64]model.RoomTransfer
	maintenances map[uint64]model.Maintenance
	invoices     map[uint64]model.Invoice
	items        map[uint64][]model.InvoiceItem
	payments     map[uint64]model.Payment
	nextID       uint64
}

func newMemStore() *memStore {
	return &memStore{
		rooms:        map[uint64]model.Room{},
		students:     map[uint64]model.Student{},
		transfers:    map[uint64]model.RoomTransfer{},
		maintenances: map[uint64]model.Maintenance{},
		invoices:     map[uint64]model.Invoice{},
		items:        map[uint64][]model.InvoiceItem{},
		payments:     map[uint64]model.Payment{},
	}
}

func (s *memStore) id() uint64 {
	s.nextID++
	return s.nextID
}

type memTxKey struct{}

// Execute runs fn atomically.  Nested calls join the unit already in
// flight; the outermost failure rolls every write back.
func (s *memStore) Execute(ctx context.Context, fn func(context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, memTxKey{}, struct{}{})); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type memSnapshot struct {
	rooms        map[uint64]model.Room
	students     map[uint64]model.Student
	transfers    map[uint64]model.RoomTransfer
	maintenances map[uint64]model.Maintenance
	invoices     map[uint64]model.Invoice
	items        map[uint64][]model.InvoiceItem
	payments     map[uint64]model.Payment
	nextID       uint64
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		rooms:        make(map[uint64]model.Room, len(s.rooms)),
		students:     make(map[uint64]model.Student, len(s.students)),
		transfers:    make(map[uint64]model.RoomTransfer, len(s.transfers)),
		maintenances: make(map[uint64]model.Maintenance, len(s.maintenances)),
		invoices:     make(map[uint64]model.Invoice, len(s.invoices)),
		items:        make(map[uint64][]model.InvoiceItem, len(s.items)),
		payments:     make(map[uint64]model.Payment, len(s.payments)),
		nextID:       s.nextID,
	}
	for k, v := range s.rooms {
		snap.rooms[k] = v
	}
	for k, v := range s.students {
		snap.students[k] = v
	}
	for k, v := range s.transfers {
		snap.transfers[k] = v
	}
	for k, v := range s.maintenances {
		snap.maintenances[k] = v
	}
	for k, v := range s.invoices {
		snap.invoices[k] = v
	}
	for k, v := range s.items {
		snap.items[k] = append([]model.InvoiceItem(nil), v...)
	}
	for k, v := range s.payments {
		snap.payments[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.rooms = snap.rooms
	s.students = snap.students
	s.transfers = snap.transfers
	s.maintenances = snap.maintenances
	s.invoices = snap.invoices
	s.items = snap.items
	s.payments = snap.payments
	s.nextID = snap.nextID
}

// ---- RoomStore ----

func (s *memStore) Get(ctx context.Context, id uint64) (*model.Room, error) {
	r, ok := s.rooms[id]
	if !ok {
		return nil, fmt.Errorf("room %d: %w", id, repository.ErrNotFound)
	}
	return &r, nil
}

func (s *memStore) GetForUpdate(ctx context.Context, id uint64) (*model.Room, error) {
	return s.Get(ctx, id)
}

func (s *memStore) UpdateOccupancyStatus(ctx context.Context, id uint64, occupancy int, status model.RoomStatus) error {
	r, ok := s.rooms[id]
	if !ok {
		return fmt.Errorf("room %d: %w", id, repository.ErrNotFound)
	}
	r.ActualOccupancy = occupancy
	r.Status = status
	s.rooms[id] = r
	return nil
}

// studentStore narrows memStore to StudentStore.  Get has a different
// return type per entity, so the student and later stores hang off
// small view types sharing the same state.
type studentStore struct{ *memStore }

func (s studentStore) Get(ctx context.Context, id uint64) (*model.Student, error) {
	st, ok := s.students[id]
	if !ok {
		return nil, fmt.Errorf("student %d: %w", id, repository.ErrNotFound)
	}
	return &st, nil
}

func (s studentStore) GetForUpdate(ctx context.Context, id uint64) (*model.Student, error) {
	return s.Get(ctx, id)
}

func (s studentStore) AssignRoom(ctx context.Context, studentID uint64, roomID *uint64) error {
	st, ok := s.students[studentID]
	if !ok {
		return fmt.Errorf("student %d: %w", studentID, repository.ErrNotFound)
	}
	st.RoomID = roomID
	s.students[studentID] = st
	return nil
}

// ---- TransferStore ----

type transferStore struct{ *memStore }

func (s transferStore) Insert(ctx context.Context, tr *model.RoomTransfer) error {
	tr.ID = s.id()
	s.transfers[tr.ID] = *tr
	return nil
}

func (s transferStore) Get(ctx context.Context, id uint64) (*model.RoomTransfer, error) {
	tr, ok := s.transfers[id]
	if !ok {
		return nil, fmt.Errorf("transfer %d: %w", id, repository.ErrNotFound)
	}
	return &tr, nil
}

func (s transferStore) GetForUpdate(ctx context.Context, id uint64) (*model.RoomTransfer, error) {
	return s.Get(ctx, id)
}

func (s transferStore) UpdateStatus(ctx context.Context, id uint64, status model.TransferStatus, approverID *uint64) error {
	tr, ok := s.transfers[id]
	if !ok {
		return fmt.Errorf("transfer %d: %w", id, repository.ErrNotFound)
	}
	tr.Status = status
	tr.ApproverID = approverID
	s.transfers[id] = tr
	return nil
}

func (s transferStore) Delete(ctx context.Context, id uint64) error {
	if _, ok := s.transfers[id]; !ok {
		return fmt.Errorf("transfer %d: %w", id, repository.ErrNotFound)
	}
	delete(s.transfers, id)
	return nil
}

func (s transferStore) CountActiveByStudent(ctx context.Context, studentID uint64) (int, error) {
	n := 0
	for _, tr := range s.transfers {
		if tr.StudentID == studentID && tr.Status.Active() {
			n++
		}
	}
	return n, nil
}

func (s transferStore) List(ctx context.Context, f repository.TransferFilter) ([]model.RoomTransfer, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	var out []model.RoomTransfer
	for _, tr := range s.transfers {
		switch f.Kind {
		case repository.TransferFilterByStudent:
			if tr.StudentID != f.StudentID {
				continue
			}
		case repository.TransferFilterByStatus:
			if tr.Status != f.Status {
				continue
			}
		case repository.TransferFilterByRoom:
			in := tr.ToRoomID == f.RoomID
			outOf := tr.FromRoomID != nil && *tr.FromRoomID == f.RoomID
			if !in && !outOf {
				continue
			}
		}
		out = append(out, tr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---- MaintenanceStore ----

type maintenanceStore struct{ *memStore }

func (s maintenanceStore) Insert(ctx context.Context, m *model.Maintenance) error {
	m.ID = s.id()
	s.maintenances[m.ID] = *m
	return nil
}

func (s maintenanceStore) Get(ctx context.Context, id uint64) (*model.Maintenance, error) {
	m, ok := s.maintenances[id]
	if !ok {
		return nil, fmt.Errorf("maintenance %d: %w", id, repository.ErrNotFound)
	}
	return &m, nil
}

func (s maintenanceStore) GetForUpdate(ctx context.Context, id uint64) (*model.Maintenance, error) {
	return s.Get(ctx, id)
}

func (s maintenanceStore) Update(ctx context.Context, m *model.Maintenance) error {
	if _, ok := s.maintenances[m.ID]; !ok {
		return fmt.Errorf("maintenance %d: %w", m.ID, repository.ErrNotFound)
	}
	s.maintenances[m.ID] = *m
	return nil
}

func (s maintenanceStore) Delete(ctx context.Context, id uint64) error {
	if _, ok := s.maintenances[id]; !ok {
		return fmt.Errorf("maintenance %d: %w", id, repository.ErrNotFound)
	}
	delete(s.maintenances, id)
	return nil
}

func (s maintenanceStore) CountInProgressForRoom(ctx context.Context, roomID, excludeID uint64) (int, error) {
	n := 0
	for _, m := range s.maintenances {
		if m.RoomID == roomID && m.ID != excludeID && m.Status == model.MaintenanceInProgress {
			n++
		}
	}
	return n, nil
}

func (s maintenanceStore) List(ctx context.Context, f repository.MaintenanceFilter) ([]model.Maintenance, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	var out []model.Maintenance
	for _, m := range s.maintenances {
		switch f.Kind {
		case repository.MaintenanceFilterByRoom:
			if m.RoomID != f.RoomID {
				continue
			}
		case repository.MaintenanceFilterByStatus:
			if m.Status != f.Status {
				continue
			}
		case repository.MaintenanceFilterByAssignee:
			if m.AssigneeID == nil || *m.AssigneeID != f.AssigneeID {
				continue
			}
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---- InvoiceStore ----

type invoiceStore struct{ *memStore }

func (s invoiceStore) Insert(ctx context.Context, inv *model.Invoice, items []model.InvoiceItem) error {
	inv.ID = s.id()
	s.invoices[inv.ID] = *inv
	stored := make([]model.InvoiceItem, 0, len(items))
	for _, it := range items {
		it.ID = s.id()
		it.InvoiceID = inv.ID
		stored = append(stored, it)
	}
	s.items[inv.ID] = stored
	return nil
}

func (s invoiceStore) Get(ctx context.Context, id uint64) (*model.Invoice, error) {
	inv, ok := s.invoices[id]
	if !ok {
		return nil, fmt.Errorf("invoice %d: %w", id, repository.ErrNotFound)
	}
	return &inv, nil
}

func (s invoiceStore) GetForUpdate(ctx context.Context, id uint64) (*model.Invoice, error) {
	return s.Get(ctx, id)
}

func (s invoiceStore) ListItems(ctx context.Context, invoiceID uint64) ([]model.InvoiceItem, error) {
	return append([]model.InvoiceItem(nil), s.items[invoiceID]...), nil
}

func (s invoiceStore) ReplaceItems(ctx context.Context, invoiceID uint64, items []model.InvoiceItem) error {
	if _, ok := s.invoices[invoiceID]; !ok {
		return fmt.Errorf("invoice %d: %w", invoiceID, repository.ErrNotFound)
	}
	stored := make([]model.InvoiceItem, 0, len(items))
	for _, it := range items {
		it.ID = s.id()
		it.InvoiceID = invoiceID
		stored = append(stored, it)
	}
	s.items[invoiceID] = stored
	return nil
}

func (s invoiceStore) UpdateAmounts(ctx context.Context, id uint64, total, paid int64, status model.InvoiceStatus) error {
	inv, ok := s.invoices[id]
	if !ok {
		return fmt.Errorf("invoice %d: %w", id, repository.ErrNotFound)
	}
	inv.TotalAmount = total
	inv.PaidAmount = paid
	inv.Status = status
	s.invoices[id] = inv
	return nil
}

func (s invoiceStore) Delete(ctx context.Context, id uint64) error {
	if _, ok := s.invoices[id]; !ok {
		return fmt.Errorf("invoice %d: %w", id, repository.ErrNotFound)
	}
	for pid, p := range s.payments {
		if p.InvoiceID == id {
			delete(s.payments, pid)
		}
	}
	delete(s.items, id)
	delete(s.invoices, id)
	return nil
}

// ---- PaymentStore ----

type paymentStore struct{ *memStore }

func (s paymentStore) Insert(ctx context.Context, p *model.Payment) error {
	p.ID = s.id()
	s.payments[p.ID] = *p
	return nil
}

func (s paymentStore) Get(ctx context.Context, id uint64) (*model.Payment, error) {
	p, ok := s.payments[id]
	if !ok {
		return nil, fmt.Errorf("payment %d: %w", id, repository.ErrNotFound)
	}
	return &p, nil
}

func (s paymentStore) UpdateMeta(ctx context.Context, id uint64, method, note string) error {
	p, ok := s.payments[id]
	if !ok {
		return fmt.Errorf("payment %d: %w", id, repository.ErrNotFound)
	}
	p.Method = method
	p.Note = note
	s.payments[id] = p
	return nil
}

func (s paymentStore) ListByInvoice(ctx context.Context, invoiceID uint64) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range s.payments {
		if p.InvoiceID == invoiceID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---- seeding helpers ----

func (s *memStore) addRoom(capacity, occupancy int, status model.RoomStatus) uint64 {
	id := s.id()
	s.rooms[id] = model.Room{
		ID:              id,
		BuildingID:      1,
		Number:          fmt.Sprintf("A-%d", 100+id),
		Capacity:        capacity,
		ActualOccupancy: occupancy,
		Status:          status,
	}
	return id
}

func (s *memStore) addStudent(status model.StudentStatus, roomID *uint64) uint64 {
	id := s.id()
	s.students[id] = model.Student{
		ID:       id,
		FullName: fmt.Sprintf("Student %d", id),
		Email:    fmt.Sprintf("student%d@dorm.example", id),
		RoomID:   roomID,
		Status:   status,
	}
	return id
}

func ptr(v uint64) *uint64 { return &v }
