package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Lumos-Labs-HQ/datagen/internal/types"
)

// Memory keeps everything in process memory.
type Memory struct {
	mu       sync.RWMutex
	users    map[string]*types.User
	schemas  map[string]*types.Schema
	datasets map[string]*types.Dataset
}

func NewMemory() *Memory {
	return &Memory{
		users:    make(map[string]*types.User),
		schemas:  make(map[string]*types.Schema),
		datasets: make(map[string]*types.Dataset),
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) CreateUser(_ context.Context, u *types.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[u.ID]; exists {
		return ErrDuplicate
	}
	for _, other := range m.users {
		if other.Email == u.Email {
			return ErrDuplicate
		}
	}
	m.users[u.ID] = cloneUser(u)
	return nil
}

func (m *Memory) GetUser(_ context.Context, id string) (*types.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(u), nil
}

func (m *Memory) findUser(match func(*types.User) bool) (*types.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*types.User, error) {
	return m.findUser(func(u *types.User) bool { return u.Email == email })
}

func (m *Memory) GetUserByTokenHash(_ context.Context, hash string) (*types.User, error) {
	if hash == "" {
		return nil, ErrNotFound
	}
	return m.findUser(func(u *types.User) bool { return u.TokenHash == hash })
}

func (m *Memory) GetUserByAPIKeyHash(_ context.Context, hash string) (*types.User, error) {
	if hash == "" {
		return nil, ErrNotFound
	}
	return m.findUser(func(u *types.User) bool { return u.APIKeyHash == hash })
}

func (m *Memory) UpdateUser(_ context.Context, u *types.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	m.users[u.ID] = cloneUser(u)
	return nil
}

func (m *Memory) IncrementUsage(_ context.Context, id string, datasets, apiCalls int, lastCall *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Usage.DatasetsCreated += datasets
	u.Usage.APICallsMade += apiCalls
	if lastCall != nil {
		t := *lastCall
		u.Usage.LastAPICall = &t
	}
	return nil
}

func (m *Memory) CreateSchema(_ context.Context, s *types.Schema) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.schemas[s.ID]; exists {
		return ErrDuplicate
	}
	m.schemas[s.ID] = cloneSchema(s)
	return nil
}

func (m *Memory) GetSchema(_ context.Context, id string) (*types.Schema, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.schemas[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSchema(s), nil
}

func (m *Memory) ListSchemas(_ context.Context, userID string) ([]*types.Schema, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := []*types.Schema{}
	for _, s := range m.schemas {
		if s.UserID == userID {
			list = append(list, cloneSchema(s))
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (m *Memory) CountSchemas(_ context.Context, userID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.schemas {
		if s.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *Memory) UpdateSchema(_ context.Context, s *types.Schema) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schemas[s.ID]; !ok {
		return ErrNotFound
	}
	m.schemas[s.ID] = cloneSchema(s)
	return nil
}

func (m *Memory) DeleteSchema(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schemas[id]; !ok {
		return ErrNotFound
	}
	delete(m.schemas, id)
	return nil
}

func (m *Memory) CreateDataset(_ context.Context, d *types.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.datasets[d.ID]; exists {
		return ErrDuplicate
	}
	m.datasets[d.ID] = cloneDataset(d, true)
	return nil
}

func (m *Memory) GetDataset(_ context.Context, id string) (*types.Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.datasets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDataset(d, true), nil
}

func (m *Memory) ListDatasets(_ context.Context, userID string) ([]*types.Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := []*types.Dataset{}
	for _, d := range m.datasets {
		if d.UserID == userID {
			list = append(list, cloneDataset(d, false))
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].GeneratedAt.After(list[j].GeneratedAt)
	})
	return list, nil
}

func (m *Memory) CountDatasets(_ context.Context, userID, schemaID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, d := range m.datasets {
		if d.UserID == userID && d.SchemaID == schemaID {
			n++
		}
	}
	return n, nil
}

func (m *Memory) UpdateDataset(_ context.Context, d *types.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.datasets[d.ID]; !ok {
		return ErrNotFound
	}
	m.datasets[d.ID] = cloneDataset(d, true)
	return nil
}

func (m *Memory) DeleteDataset(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.datasets[id]; !ok {
		return ErrNotFound
	}
	delete(m.datasets, id)
	return nil
}
