package services

import (
	"sync"
	"time"
)

// ResponseStore holds the current answer values and save status for one
// session, independent of any UI. It is mutated only through the owning
// session's Answer and hydration paths.
type ResponseStore struct {
	mu        sync.RWMutex
	catalog   *Catalog
	responses map[string]*Response
	// pending holds hydration data that arrived before the catalog was
	// bound; it is applied on BindCatalog.
	pending map[string]Value
}

func NewResponseStore() *ResponseStore {
	return &ResponseStore{responses: map[string]*Response{}}
}

// BindCatalog attaches the loaded catalog and applies any hydration that
// was deferred while it was missing.
func (s *ResponseStore) BindCatalog(c *Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = c
	if len(s.pending) > 0 {
		s.applyLocked(s.pending)
		s.pending = nil
	}
}

// Get returns the current value for questionID and whether one exists.
func (s *ResponseStore) Get(questionID string) (Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.responses[questionID]
	if !ok {
		return Value{}, false
	}
	return r.Value, true
}

// Response returns a copy of the full response record for questionID.
func (s *ResponseStore) Response(questionID string) (Response, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.responses[questionID]
	if !ok {
		return Response{}, false
	}
	return *r, true
}

// Set overwrites the answer for questionID in place and marks it pending.
// It performs no I/O; persistence is scheduled by the session.
func (s *ResponseStore) Set(questionID string, v Value, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.responses[questionID]
	if !ok {
		r = &Response{QuestionID: questionID}
		s.responses[questionID] = r
	}
	r.Value = v
	r.SavedAt = at
	r.SaveState = SavePending
}

// Hydrate bulk-loads previously persisted responses. When the catalog has
// not been bound yet the mapping is stashed and applied on BindCatalog,
// since filtering stale keys needs the catalog.
func (s *ResponseStore) Hydrate(values map[string]Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.catalog == nil {
		if s.pending == nil {
			s.pending = map[string]Value{}
		}
		for k, v := range values {
			s.pending[k] = v
		}
		return
	}
	s.applyLocked(values)
}

// applyLocked merges hydrated values, silently dropping question ids that
// are not in the bound catalog (schema drift) and never downgrading an
// answer the user already edited this session.
func (s *ResponseStore) applyLocked(values map[string]Value) {
	for id, v := range values {
		if !s.catalog.Contains(id) {
			continue
		}
		if _, edited := s.responses[id]; edited {
			continue
		}
		s.responses[id] = &Response{QuestionID: id, Value: v, SaveState: SaveDone}
	}
}

// MarkSaveState records the outcome of a persist attempt. The response is
// retained regardless of outcome so navigation never blocks on a failure.
func (s *ResponseStore) MarkSaveState(questionID string, state SaveState, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.responses[questionID]; ok {
		r.SaveState = state
		r.SavedAt = at
	}
}

// AnsweredCount returns the number of questions with a non-empty answer.
func (s *ResponseStore) AnsweredCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, r := range s.responses {
		if !r.Value.IsEmpty() {
			n++
		}
	}
	return n
}

// Snapshot returns a copy of every stored response keyed by question id.
func (s *ResponseStore) Snapshot() map[string]Response {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Response, len(s.responses))
	for id, r := range s.responses {
		out[id] = *r
	}
	return out
}
