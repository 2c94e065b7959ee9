package filestore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"collab-service/internal/models"

	"github.com/google/uuid"
)

type memoryKey struct {
	projectID string
	name      string
}

// MemoryStore keeps files in process memory. It backs DB_DRIVER=memory and
// the tests.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]*models.File
	byName map[memoryKey]string
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]*models.File),
		byName: make(map[memoryKey]string),
		now:    time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Create(ctx context.Context, projectID, name, content string) (*models.File, error) {
	name = Normalize(name)
	if projectID == "" || name == "" {
		return nil, fmt.Errorf("create file: %w", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := memoryKey{projectID, name}
	if _, exists := s.byName[key]; exists {
		return nil, fmt.Errorf("create %s: %w", name, ErrAlreadyExists)
	}
	return clone(s.insertLocked(key, content)), nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (*models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, ErrNotFound)
	}
	return clone(f), nil
}

func (s *MemoryStore) GetByName(ctx context.Context, projectID, name string) (*models.File, error) {
	name = Normalize(name)

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[memoryKey{projectID, name}]
	if !ok {
		return nil, fmt.Errorf("file %s in project %s: %w", name, projectID, ErrNotFound)
	}
	return clone(s.byID[id]), nil
}

// ListByProject returns the project's files ordered by name.
func (s *MemoryStore) ListByProject(ctx context.Context, projectID string) ([]*models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files := make([]*models.File, 0)
	for key, id := range s.byName {
		if key.projectID == projectID {
			files = append(files, clone(s.byID[id]))
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func (s *MemoryStore) UpdateContent(ctx context.Context, id, content string) (*models.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, ErrNotFound)
	}
	f.Content = content
	f.UpdatedAt = s.now()
	return clone(f), nil
}

func (s *MemoryStore) Upsert(ctx context.Context, projectID, name, content string) (*models.File, error) {
	name = Normalize(name)
	if projectID == "" || name == "" {
		return nil, fmt.Errorf("upsert file: %w", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := memoryKey{projectID, name}
	if id, exists := s.byName[key]; exists {
		f := s.byID[id]
		f.Content = content
		f.UpdatedAt = s.now()
		return clone(f), nil
	}
	return clone(s.insertLocked(key, content)), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("file %s: %w", id, ErrNotFound)
	}
	delete(s.byID, id)
	delete(s.byName, memoryKey{f.ProjectID, f.Name})
	return nil
}

func (s *MemoryStore) insertLocked(key memoryKey, content string) *models.File {
	now := s.now()
	f := &models.File{
		ID:        uuid.New().String(),
		ProjectID: key.projectID,
		Name:      key.name,
		Content:   content,
		Language:  Language(key.name),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.byID[f.ID] = f
	s.byName[key] = f.ID
	return f
}

func clone(f *models.File) *models.File {
	c := *f
	return &c
}
