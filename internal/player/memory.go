package player

import (
	"context"
	"sync"
	"time"
)

// MemStore is an in-memory [Store] for console mode and tests. Safe for
// concurrent use.
type MemStore struct {
	mu      sync.RWMutex
	players map[string]*Player
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{players: make(map[string]*Player)}
}

// Load returns a copy of the stored state for id, or (nil, nil) when absent.
func (s *MemStore) Load(_ context.Context, id string) (*Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return nil, nil
	}
	return clonePlayer(p), nil
}

// Save stores a copy of p, replacing any previous state.
func (s *MemStore) Save(_ context.Context, p *Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := clonePlayer(p)
	if prev, ok := s.players[p.ID]; ok {
		cp.CreatedAt = prev.CreatedAt
	} else {
		cp.CreatedAt = time.Now()
	}
	cp.UpdatedAt = time.Now()
	s.players[p.ID] = cp
	return nil
}

// ResetProgress clears attributes and progress for id, keeping the entry.
func (s *MemStore) ResetProgress(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.players[id]; ok {
		p.Attributes = make(map[string]int)
		p.Progress = make(map[string]string)
		p.UpdatedAt = time.Now()
	}
	return nil
}

// Delete removes the player for id.
func (s *MemStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, id)
	return nil
}

func clonePlayer(p *Player) *Player {
	cp := &Player{
		ID:         p.ID,
		Attributes: make(map[string]int, len(p.Attributes)),
		Progress:   make(map[string]string, len(p.Progress)),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
	for k, v := range p.Attributes {
		cp.Attributes[k] = v
	}
	for k, v := range p.Progress {
		cp.Progress[k] = v
	}
	return cp
}
