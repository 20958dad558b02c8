package state

import (
	"fmt"
	"sync"
	"time"
)

// Stream names one of the background fetch loops whose health is tracked.
type Stream string

const (
	StreamTail      Stream = "tail"
	StreamGroupings Stream = "groupings"
)

// Health summarizes the recent outcome of one stream's fetches.
type Health struct {
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive failed fetches
}

// IsOffline returns true when the server has been unreachable for multiple fetches.
func (h Health) IsOffline() bool {
	return h.ConsecutiveFailures >= 2
}

// Snapshot is a copy of every stream's health at a point in time.
type Snapshot map[Stream]Health

// Offline reports whether any stream is offline.
func (s Snapshot) Offline() bool {
	for _, h := range s {
		if h.IsOffline() {
			return true
		}
	}
	return false
}

// Store records fetch outcomes from concurrent pollers. The zero value is
// ready to use and a nil *Store ignores updates.
type Store struct {
	mu      sync.RWMutex
	streams map[Stream]Health
}

// Record notes the outcome of one fetch on stream. A nil err clears the
// failure count; a non-nil err keeps counting.
func (s *Store) Record(stream Stream, err error) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streams == nil {
		s.streams = make(map[Stream]Health)
	}
	h := s.streams[stream]
	h.LastUpdated = time.Now()
	if err != nil {
		h.LastError = err
		h.ConsecutiveFailures++
	} else {
		h.LastError = nil
		h.ConsecutiveFailures = 0
	}
	s.streams[stream] = h
}

// Health returns a copy of stream's health.
func (s *Store) Health(stream Stream) Health {
	if s == nil {
		return Health{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneHealth(s.streams[stream])
}

// Snapshot returns a copy of every stream's health.
func (s *Store) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(Snapshot, len(s.streams))
	for name, h := range s.streams {
		snap[name] = cloneHealth(h)
	}
	return snap
}

func cloneHealth(h Health) Health {
	if h.LastError != nil {
		h.LastError = fmt.Errorf("%w", h.LastError)
	}
	return h
}
