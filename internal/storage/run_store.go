package storage

import (
	"sync"
	"time"

	"bizdash/internal/models"
)

const DefaultRunCapacity = 100

// RunStore keeps metadata about the most recent pipeline runs. Results are
// never stored; every request recomputes them from disk.
type RunStore struct {
	mu       sync.RWMutex
	runs     []models.RunRecord
	capacity int
	lastRun  time.Time
}

func NewRunStore(capacity int) *RunStore {
	if capacity <= 0 {
		capacity = DefaultRunCapacity
	}
	return &RunStore{
		runs:     make([]models.RunRecord, 0, capacity),
		capacity: capacity,
	}
}

// Add appends a run, evicting the oldest once capacity is reached.
func (s *RunStore) Add(record models.RunRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.runs) == s.capacity {
		copy(s.runs, s.runs[1:])
		s.runs = s.runs[:len(s.runs)-1]
	}
	s.runs = append(s.runs, record)
	s.lastRun = record.StartedAt
}

// GetRuns returns runs newest first, optionally limited to one pipeline.
func (s *RunStore) GetRuns(pipeline string) []models.RunRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]models.RunRecord, 0, len(s.runs))
	for i := len(s.runs) - 1; i >= 0; i-- {
		if pipeline == "" || s.runs[i].Pipeline == pipeline {
			runs = append(runs, s.runs[i])
		}
	}
	return runs
}

func (s *RunStore) GetLastRunTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun
}

func (s *RunStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}
