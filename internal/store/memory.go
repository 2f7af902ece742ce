package store

import (
	"context"
	"sort"
	"sync"

	"github.com/lox/stakeledger/internal/game"
)

// Memory is a Store that keeps sessions in process memory.
type Memory struct {
	base
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewMemory returns an empty in-memory store.
func NewMemory(opts ...Option) *Memory {
	return &Memory{base: newBase(opts), sessions: make(map[string]Session)}
}

// Save implements Store.
func (m *Memory) Save(_ context.Context, s Session) (Session, error) {
	s, err := m.stamp(s)
	if err != nil {
		return Session{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.Clone()
	return s, nil
}

// Load implements Store.
func (m *Memory) Load(_ context.Context, id string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s.Clone(), nil
}

// List implements Store.
func (m *Memory) List(_ context.Context, accountID string, gameType game.Variant) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Summary
	for _, s := range m.sessions {
		if s.AccountID == accountID && s.GameType == gameType {
			out = append(out, s.Summary())
		}
	}
	sortSummaries(out)
	return out, nil
}

// Delete implements Store.
func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// sortSummaries orders summaries newest first, breaking ties by id.
func sortSummaries(s []Summary) {
	sort.Slice(s, func(i, j int) bool {
		if !s[i].LastUpdated.Equal(s[j].LastUpdated) {
			return s[i].LastUpdated.After(s[j].LastUpdated)
		}
		return s[i].ID > s[j].ID
	})
}
