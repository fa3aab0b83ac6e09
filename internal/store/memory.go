package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/weather-proxy/internal/weather"
)

var (
	// ErrNotFound is returned when no probe has been recorded yet.
	ErrNotFound = errors.New("no probe results recorded")
)

// MemoryStore is a concurrency-safe in-memory history of provider probes.
type MemoryStore struct {
	mu sync.RWMutex

	// oldest first
	probes []weather.ProbeResult

	// retention configuration
	maxHistory int           // max number of probes kept
	maxAge     time.Duration // optional max age for probes

	now func() time.Time
}

var _ weather.ProbeStore = (*MemoryStore)(nil)

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveProbe appends a probe result and enforces retention.
func (s *MemoryStore) SaveProbe(result weather.ProbeResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.probes = append(s.probes, result)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(s.probes) > s.maxHistory {
		over := len(s.probes) - s.maxHistory
		s.probes = s.probes[over:]
	}

	// Enforce retention by age. The newest probe is always kept.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(s.probes)-1; i++ {
			if !s.probes[i].Timestamp.Before(cutoff) {
				break
			}
		}
		if i > 0 {
			s.probes = s.probes[i:]
		}
	}
}

// LatestProbe returns the most recent probe result.
func (s *MemoryStore) LatestProbe() (weather.ProbeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.probes) == 0 {
		return weather.ProbeResult{}, ErrNotFound
	}
	return s.probes[len(s.probes)-1], nil
}

// RecentProbes returns up to limit probes, newest first. limit <= 0 returns all.
func (s *MemoryStore) RecentProbes(limit int) []weather.ProbeResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.probes)
	if limit > 0 && limit < n {
		n = limit
	}

	result := make([]weather.ProbeResult, 0, n)
	for i := len(s.probes) - 1; i >= 0 && len(result) < n; i-- {
		result = append(result, s.probes[i])
	}
	return result
}
