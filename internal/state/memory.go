package state

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"
)

type entry[T any] struct {
	payload   T
	createdAt time.Time
}

// MemoryStore is the in-process Store implementation. It is a plain map
// behind a mutex; entries are removed on explicit deletion, lazily when a
// lookup finds them expired, and in a sweep triggered by every Create.
type MemoryStore[T any] struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]entry[T]

	nowFunc       func() time.Time
	generateToken func() ([16]byte, error)
}

// NewMemoryStore returns an empty store. A non-positive ttl falls back to
// DefaultTTL.
func NewMemoryStore[T any](ttl time.Duration) *MemoryStore[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore[T]{
		ttl:     ttl,
		entries: make(map[string]entry[T]),
		nowFunc: time.Now,
	}
}

// Create implements Store.
func (m *MemoryStore[T]) Create(_ context.Context, payload T) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFunc()
	m.sweepLocked(now)

	for {
		generateToken := generateSecureToken
		if m.generateToken != nil {
			generateToken = m.generateToken
		}
		b, err := generateToken()
		if err != nil {
			return "", fmt.Errorf("failed to generate state token: %w", err)
		}
		token := base64.RawURLEncoding.EncodeToString(b[:])
		if _, ok := m.entries[token]; ok {
			continue
		}
		m.entries[token] = entry[T]{payload: payload, createdAt: now}
		return token, nil
	}
}

// Get implements Store. The entry stays in place on success; an expired
// entry found here is removed as a side effect.
func (m *MemoryStore[T]) Get(_ context.Context, token string) (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[token]
	if !ok {
		var zero T
		return zero, false
	}
	if m.expired(e, m.nowFunc()) {
		delete(m.entries, token)
		var zero T
		return zero, false
	}
	return e.payload, true
}

// GetAndDelete implements Store. Lookup and removal happen under one
// mutex hold, so two concurrent callbacks racing on the same token can
// never both observe it.
func (m *MemoryStore[T]) GetAndDelete(_ context.Context, token string) (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[token]
	if !ok {
		var zero T
		return zero, false
	}
	delete(m.entries, token)
	if m.expired(e, m.nowFunc()) {
		var zero T
		return zero, false
	}
	return e.payload, true
}

// Delete implements Store.
func (m *MemoryStore[T]) Delete(_ context.Context, token string) {
	m.mu.Lock()
	delete(m.entries, token)
	m.mu.Unlock()
}

// SweepExpired implements Store.
func (m *MemoryStore[T]) SweepExpired(_ context.Context) {
	m.mu.Lock()
	m.sweepLocked(m.nowFunc())
	m.mu.Unlock()
}

func (m *MemoryStore[T]) sweepLocked(now time.Time) {
	for token, e := range m.entries {
		if m.expired(e, now) {
			delete(m.entries, token)
		}
	}
}

func (m *MemoryStore[T]) expired(e entry[T], now time.Time) bool {
	return now.Sub(e.createdAt) > m.ttl
}

// generateSecureToken generates a random 128-bit token. Encoded with
// base64url it is safe to carry as a query parameter.
func generateSecureToken() ([16]byte, error) {
	var b [16]byte
	_, err := rand.Read(b[:])
	return b, err
}
