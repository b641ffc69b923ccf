package courses

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	courses map[string]Course
}

// NewMemoryRepository builds an in-memory course store.
func NewMemoryRepository() Repository {
	return &memoryRepository{courses: make(map[string]Course)}
}

func (r *memoryRepository) Create(_ context.Context, c Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.courses[c.ID] = c
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Course, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.courses[id]
	if !ok {
		return Course{}, ErrNotFound
	}
	return c, nil
}

func (r *memoryRepository) List(_ context.Context) ([]Course, error) {
	r.mu.RLock()
	out := make([]Course, 0, len(r.courses))
	for _, c := range r.courses {
		out = append(out, c)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryRepository) Update(_ context.Context, c Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courses[c.ID]; !ok {
		return ErrNotFound
	}
	r.courses[c.ID] = c
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.courses[id]; !ok {
		return ErrNotFound
	}
	delete(r.courses, id)
	return nil
}
