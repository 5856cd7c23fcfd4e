package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory FullStore used by tests and ephemeral runs.
// It reproduces the SQLite ordering and rows-affected semantics.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	records map[int64]Birthday
	regs    map[int64]string

	// FailCreate, when set, makes Create fail for names in the set.
	// Used to exercise partial-failure import paths.
	FailCreate map[string]error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:  1,
		records: make(map[int64]Birthday),
		regs:    make(map[int64]string),
	}
}

func (m *MemoryStore) Create(_ context.Context, name, birthDate, note, notificationTime string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.FailCreate[name]; ok {
		return 0, err
	}

	if notificationTime == "" {
		notificationTime = "09:00"
	}

	id := m.nextID
	m.nextID++
	m.records[id] = Birthday{
		ID:               id,
		Name:             name,
		BirthDate:        birthDate,
		Note:             note,
		NotificationTime: notificationTime,
	}
	return id, nil
}

func (m *MemoryStore) Get(_ context.Context, id int64) (Birthday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.records[id]
	if !ok {
		return Birthday{}, ErrNotFound
	}
	return b, nil
}

func (m *MemoryStore) GetAll(_ context.Context) ([]Birthday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Birthday, 0, len(m.records))
	for _, b := range m.records {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BirthDate != out[j].BirthDate {
			return out[i].BirthDate < out[j].BirthDate
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) GetForDate(_ context.Context, monthDay string) ([]Birthday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Birthday
	for _, b := range m.records {
		if b.BirthDate == monthDay {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) Update(_ context.Context, id int64, name, birthDate, note, notificationTime string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return 0, nil
	}
	m.records[id] = Birthday{
		ID:               id,
		Name:             name,
		BirthDate:        birthDate,
		Note:             note,
		NotificationTime: notificationTime,
	}
	return 1, nil
}

func (m *MemoryStore) Delete(_ context.Context, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return 0, nil
	}
	delete(m.records, id)
	return 1, nil
}

func (m *MemoryStore) SetRegistration(_ context.Context, birthdayID int64, registrationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regs[birthdayID] = registrationID
	return nil
}

func (m *MemoryStore) Registration(_ context.Context, birthdayID int64) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.regs[birthdayID], nil
}

func (m *MemoryStore) ClearRegistration(_ context.Context, birthdayID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.regs, birthdayID)
	return nil
}
