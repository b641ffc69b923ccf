package otp

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for development and tests.
type MemoryStore struct {
	mu         sync.Mutex
	challenges map[string]Challenge
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{challenges: make(map[string]Challenge)}
}

func (s *MemoryStore) Put(_ context.Context, email string, ch Challenge, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[email] = ch
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, email, digest string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.challenges[email]
	if !ok {
		return ErrNotFound
	}
	if !now.Before(ch.ExpiresAt) {
		return ErrExpired
	}
	if ch.Digest != digest {
		ch.Attempts--
		if ch.Attempts <= 0 {
			delete(s.challenges, email)
		} else {
			s.challenges[email] = ch
		}
		return ErrMismatch
	}
	delete(s.challenges, email)
	return nil
}
