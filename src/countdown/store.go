package countdown

import (
	"fmt"
	"slices"
	"sync"
)

// Store holds the active countdowns keyed by id. Callers own its lifetime and pass it
// to whatever needs to look countdowns up.
type Store struct {
	mu         sync.RWMutex
	countdowns map[string]*Countdown
}

func NewStore() *Store {
	return &Store{countdowns: make(map[string]*Countdown)}
}

// Create registers an empty countdown.
func (s *Store) Create(id string, settings Settings) (*Countdown, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.countdowns[id]; ok {
		return nil, fmt.Errorf("create %s: %w", id, ErrCountdownExists)
	}
	c := New(id, settings)
	s.countdowns[id] = c
	return c, nil
}

// Get looks a countdown up by id.
func (s *Store) Get(id string) (*Countdown, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.countdowns[id]
	return c, ok
}

// Delete removes a countdown. It reports whether the id was registered.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.countdowns[id]
	delete(s.countdowns, id)
	return ok
}

// IDs returns the registered ids in ascending order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.countdowns))
	for id := range s.countdowns {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// InGuild returns the countdowns belonging to a guild, ordered by id.
func (s *Store) InGuild(guildID string) []*Countdown {
	var out []*Countdown
	for _, id := range s.IDs() {
		if c, ok := s.Get(id); ok && c.Settings().GuildID == guildID {
			out = append(out, c)
		}
	}
	return out
}
