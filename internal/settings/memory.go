package settings

import (
	"context"
	"sync"

	"pharmacy-dashboard/internal/models"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]models.Settings
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]models.Settings)}
}

func (m *MemoryStore) Load(_ context.Context, id string) (models.Settings, error) {
	if err := checkID(id); err != nil {
		return models.Settings{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.data[id]; ok {
		return s, nil
	}
	return models.DefaultSettings(), nil
}

func (m *MemoryStore) Save(_ context.Context, id string, s models.Settings) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := Validate(s); err != nil {
		return err
	}
	m.mu.Lock()
	m.data[id] = s
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error { return nil }
