package metrics

import (
	"sync"
	"time"

	"callwire/internal/model"
)

// Store keeps a rolling evaluation summary per active call, capped to limit
// calls with oldest-updated eviction.
type Store struct {
	mu        sync.RWMutex
	byCall    map[string]model.CallStats
	updatedAt map[string]time.Time
	limit     int
}

func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = 1000
	}
	return &Store{
		byCall:    make(map[string]model.CallStats),
		updatedAt: make(map[string]time.Time),
		limit:     limit,
	}
}

// Record folds one evaluation's outcome into the call's running stats.
func (s *Store) Record(callID string, transcriptChars int, result model.EvaluationResult) {
	if callID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.byCall[callID]
	if !ok {
		st = model.CallStats{CallID: callID, BySeverity: make(map[string]int)}
	}
	st.Segments++
	st.TranscriptChars = transcriptChars
	st.Evaluations++
	st.Alerts += len(result.Alerts)
	for _, a := range result.Alerts {
		st.BySeverity[string(a.Severity)]++
	}
	st.Suggestions += len(result.SuggestedNextLines)
	s.byCall[callID] = st
	s.updatedAt[callID] = time.Now().UTC()
	if len(s.byCall) > s.limit {
		s.evictOldest()
	}
}

func (s *Store) Get(callID string) (model.CallStats, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.byCall[callID]
	if !ok {
		return model.CallStats{}, time.Time{}, false
	}
	return st, s.updatedAt[callID], true
}

func (s *Store) GetAll() []model.CallStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.CallStats, 0, len(s.byCall))
	for _, st := range s.byCall {
		out = append(out, st)
	}
	return out
}

func (s *Store) evictOldest() {
	var oldestCall string
	var oldest time.Time
	for call, ts := range s.updatedAt {
		if oldestCall == "" || ts.Before(oldest) {
			oldestCall = call
			oldest = ts
		}
	}
	if oldestCall != "" {
		delete(s.byCall, oldestCall)
		delete(s.updatedAt, oldestCall)
	}
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byCall = make(map[string]model.CallStats)
	s.updatedAt = make(map[string]time.Time)
}
