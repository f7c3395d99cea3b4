package store

import (
	"context"
	"sort"
	"sync"

	"kosfinder/internal/listing/models"
)

// InMemory serves facility types from a seeded slice. Intended for tests.
type InMemory struct {
	mu    sync.RWMutex
	types []models.FacilityType
}

func NewInMemory(types ...models.FacilityType) *InMemory {
	return &InMemory{types: types}
}

func (s *InMemory) ListAll(_ context.Context) ([]models.FacilityType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]models.FacilityType, len(s.types))
	copy(result, s.types)
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}
