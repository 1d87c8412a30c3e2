package credstore

import "sync"

// Scratch is the ephemeral per-session slot for display data such as the
// signed-in email. It is wiped wholesale on logout.
type Scratch struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewScratch() *Scratch {
	return &Scratch{values: map[string]string{}}
}

func (s *Scratch) Set(key, value string) {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
}

func (s *Scratch) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Clear removes every entry.
func (s *Scratch) Clear() {
	s.mu.Lock()
	s.values = map[string]string{}
	s.mu.Unlock()
}

func (s *Scratch) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
