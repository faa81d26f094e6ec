package amenities

import "sync"

// Selection holds the entities queued up for the next comparison. It
// is bounded; adding past capacity evicts the oldest entry first.
type Selection struct {
	mu       sync.Mutex
	capacity int
	items    []Entity
}

func NewSelection(capacity int) *Selection {
	if capacity < 2 {
		capacity = 2
	}
	if capacity > 3 {
		capacity = 3
	}
	return &Selection{capacity: capacity}
}

func (s *Selection) Add(entity Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) >= s.capacity {
		s.items = s.items[1:]
	}
	s.items = append(s.items, entity)
}

func (s *Selection) Items() []Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entity, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}
