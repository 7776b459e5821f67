package errorhandling

import (
	"sync"
	"sync/atomic"
)

// Stats aggregates dead-letter counters for the whole process. Counters
// only grow; a restart resets them.
type Stats struct {
	total      atomic.Int64
	mu         sync.RWMutex
	byTopic    map[string]int64
	byCategory map[Category]int64
}

func NewStats() *Stats {
	return &Stats{
		byTopic:    make(map[string]int64),
		byCategory: make(map[Category]int64),
	}
}

// Record counts one dead-lettered message
func (s *Stats) Record(topic string, category Category) {
	s.total.Add(1)
	s.mu.Lock()
	s.byTopic[topic]++
	s.byCategory[category]++
	s.mu.Unlock()
}

// Total returns the number of messages dead-lettered since startup
func (s *Stats) Total() int64 {
	return s.total.Load()
}

// ByTopic returns a copy of the per-topic counters
func (s *Stats) ByTopic() map[string]int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int64, len(s.byTopic))
	for k, v := range s.byTopic {
		out[k] = v
	}
	return out
}

// ByCategory returns a copy of the per-category counters
func (s *Stats) ByCategory() map[Category]int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Category]int64, len(s.byCategory))
	for k, v := range s.byCategory {
		out[k] = v
	}
	return out
}
