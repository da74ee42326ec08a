package api

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/kdarko/ecgbill/internal/storage"
	"github.com/kdarko/ecgbill/internal/tariff"
)

// scheduleSession owns the live (possibly edited) schedule per policy
// revision. The engine and schedule values are immutable; the session is
// the single place edits are serialized, per the single-operator model.
type scheduleSession struct {
	mu        sync.RWMutex
	schedules map[string]tariff.Schedule
	st        storage.Storage
}

// newScheduleSession seeds the session for every registered policy from
// the latest stored snapshot, falling back to the policy defaults.
func newScheduleSession(ctx context.Context, st storage.Storage) *scheduleSession {
	s := &scheduleSession{
		schedules: make(map[string]tariff.Schedule),
		st:        st,
	}
	for _, p := range tariff.Policies() {
		sched := p.Defaults.Clone()
		if snap, err := st.GetScheduleSnapshot(ctx, p.Key); err == nil && snap != nil && len(snap.Payload) > 0 {
			var restored tariff.Schedule
			if err := json.Unmarshal(snap.Payload, &restored); err == nil {
				sched = restored
			}
		}
		s.schedules[p.Key] = sched
	}
	return s
}

// Get returns the live schedule for a policy key.
func (s *scheduleSession) Get(policyKey string) (tariff.Schedule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sched, ok := s.schedules[policyKey]
	return sched, ok
}

// Apply runs one edit under the session lock, stores the result, and
// persists a snapshot. Snapshot writes are best effort; a storage error
// never undoes the edit.
func (s *scheduleSession) Apply(ctx context.Context, policyKey string, e tariff.Edit, editor string) (tariff.Schedule, bool) {
	p, ok := tariff.GetPolicy(policyKey)
	if !ok {
		return nil, false
	}

	s.mu.Lock()
	next := tariff.Apply(p, s.schedules[policyKey], e)
	s.schedules[policyKey] = next
	s.mu.Unlock()

	if payload, err := json.Marshal(next); err == nil {
		if err := s.st.SaveScheduleSnapshot(ctx, storage.ScheduleSnapshot{
			Policy:  policyKey,
			Payload: payload,
			SavedAt: time.Now(),
			SavedBy: editor,
		}); err != nil {
			log.Printf("save schedule snapshot for %s failed: %v", policyKey, err)
		}
	}

	return next, true
}
