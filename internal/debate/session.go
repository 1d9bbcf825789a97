package debate

import (
	"sync"
	"time"

	"github.com/yeoul-ai/debate-server/internal/domain"
)

// Session is the full state of one debate interaction. Transcript is
// append-only and unbounded; TokensEarned only ever grows.
//
// Sessions are not internally locked. The calling layer must ensure at most
// one in-flight Process/Initialize per session key; concurrent calls on the
// same key race on transcript and reward updates. UpdatedAt is the one field
// shared with the TTL sweeper: it belongs to the SessionStore and is read and
// written only under the store mutex (Touch, SweepExpired).
type Session struct {
	ID             string
	Topic          string
	UserPosition   string
	Positions      domain.PositionAssignment
	LectureContext string
	Transcript     []domain.TranscriptEntry
	TokensEarned   int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// appendTranscript records one utterance. Activity time is bumped through
// SessionStore.Touch, never here.
func (s *Session) appendTranscript(role domain.Role, message string) {
	s.Transcript = append(s.Transcript, domain.TranscriptEntry{Role: role, Message: message})
}

// userEntries returns only the user's transcript entries, in order.
func (s *Session) userEntries() []domain.TranscriptEntry {
	var out []domain.TranscriptEntry
	for _, e := range s.Transcript {
		if e.Role == domain.RoleUser {
			out = append(out, e)
		}
	}
	return out
}

// SessionStore is a process-wide keyed map of live sessions. Lookup and
// insertion are concurrency-safe; the Session values themselves are not.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Get returns the session for the key, or nil when unknown.
func (st *SessionStore) Get(id string) *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.sessions[id]
}

// Put inserts or replaces the session under its ID.
func (st *SessionStore) Put(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
}

// Delete removes the session for the key, if present.
func (st *SessionStore) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Touch bumps the session's activity timestamp, if present. Holding the
// store mutex here keeps the sweeper's UpdatedAt read race-free and
// guarantees a just-touched session cannot expire within the TTL.
func (st *SessionStore) Touch(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok {
		s.UpdatedAt = time.Now()
	}
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// SweepExpired removes sessions idle for longer than ttl and returns their
// IDs so callers can release associated state.
func (st *SessionStore) SweepExpired(ttl time.Duration) []string {
	cutoff := time.Now().Add(-ttl)

	st.mu.Lock()
	defer st.mu.Unlock()

	var expired []string
	for id, s := range st.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(st.sessions, id)
			expired = append(expired, id)
		}
	}
	return expired
}
