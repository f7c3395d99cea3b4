package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"kosfinder/internal/user/models"
	"kosfinder/pkg/platform/sentinel"
)

// InMemory is the map-backed Store used by unit tests and local development.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]string // lowercased email -> id
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]string),
	}
}

func (s *InMemory) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, exists := s.byID[user.ID]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.byEmail[key]; exists {
		return sentinel.ErrConflict
	}
	cp := *user
	s.byID[user.ID] = &cp
	s.byEmail[key] = user.ID
	return nil
}

func (s *InMemory) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[user.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byEmail, strings.ToLower(existing.Email))
	cp := *user
	s.byID[user.ID] = &cp
	s.byEmail[strings.ToLower(user.Email)] = user.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.byID[id]
	return &cp, nil
}

func (s *InMemory) UpdateRole(_ context.Context, id string, role models.Role) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	user.Role = role
	cp := *user
	return &cp, nil
}

func (s *InMemory) ListAll(_ context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*models.User, 0, len(s.byID))
	for _, user := range s.byID {
		cp := *user
		users = append(users, &cp)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}
