package media

import (
	"context"
	"sync"

	"kosfinder/pkg/platform/sentinel"
)

// InMemoryBlobStore keeps uploaded objects in a map. Intended for tests and
// local development without MinIO.
type InMemoryBlobStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string
}

func NewInMemoryBlobStore(baseURL string) *InMemoryBlobStore {
	return &InMemoryBlobStore{
		objects: make(map[string][]byte),
		baseURL: baseURL,
	}
}

func (s *InMemoryBlobStore) Upload(_ context.Context, objectKey string, data []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	s.objects[objectKey] = stored
	return s.baseURL + "/" + objectKey, nil
}

func (s *InMemoryBlobStore) Remove(_ context.Context, objectKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[objectKey]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.objects, objectKey)
	return nil
}

// Object returns the stored payload for assertions in tests.
func (s *InMemoryBlobStore) Object(objectKey string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[objectKey]
	return data, ok
}

// Len reports how many objects are stored.
func (s *InMemoryBlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
