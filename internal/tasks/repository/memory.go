package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/taskpulse/taskpulse-go/internal/tasks"
)

// MemoryRepo is an in-memory repository for the dev server and tests.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	store  map[int64]*tasks.Task
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[int64]*tasks.Task)}
}

func (m *MemoryRepo) Create(_ context.Context, t *tasks.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t.ID = m.nextID
	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	m.store[t.ID] = &cp
	return nil
}

func (m *MemoryRepo) Get(_ context.Context, owner, id int64) (*tasks.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.store[id]; ok && t.UserID == owner {
		cp := *t
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) List(_ context.Context, owner int64) ([]*tasks.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*tasks.Task, 0)
	for _, t := range m.store {
		if t.UserID == owner {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryRepo) Update(_ context.Context, owner, id int64, u tasks.TaskUpdate) (*tasks.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok || t.UserID != owner {
		return nil, ErrNotFound
	}
	u.Apply(t)
	t.UpdatedAt = time.Now().UTC()
	cp := *t
	return &cp, nil
}

func (m *MemoryRepo) Delete(_ context.Context, owner, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok || t.UserID != owner {
		return ErrNotFound
	}
	delete(m.store, id)
	return nil
}
