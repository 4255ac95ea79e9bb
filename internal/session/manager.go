package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"docqa/internal/access"
	"docqa/internal/contextutil"
)

var (
	// ErrOwnershipConflict is returned when an owned session is addressed by another caller.
	ErrOwnershipConflict = errors.New("session belongs to another user")
	// ErrNotFound is returned when reading a session that does not exist.
	ErrNotFound = errors.New("session not found")
)

// Manager is the process-wide session store.
type Manager struct {
	store *cache.Cache
	ttl   time.Duration
}

// NewManager creates an empty store. A positive idleTTL expires sessions that have not
// been touched for that long; zero keeps sessions until cleared.
func NewManager(idleTTL time.Duration) *Manager {
	if idleTTL <= 0 {
		return &Manager{store: cache.New(cache.NoExpiration, 0)}
	}
	return &Manager{store: cache.New(idleTTL, idleTTL/2), ttl: idleTTL}
}

// GetOrCreate returns the session for id, creating an empty one when it does not exist.
// An empty id creates a session with a new identifier. The boolean reports creation.
func (m *Manager) GetOrCreate(ctx context.Context, id string, u *access.User) (*Session, bool, error) {
	logger := contextutil.LoggerFromContext(ctx)
	if id == "" {
		id = uuid.NewString()
	}

	for {
		if s, ok := m.lookup(id); ok {
			if err := checkOwner(s, u); err != nil {
				logger.WarnContext(ctx, "session ownership conflict", "session_id", id, "user_id", userID(u))
				return nil, false, err
			}
			m.touch(id, s)
			return s, false, nil
		}

		s := newSession(id, userID(u), time.Now())
		if err := m.store.Add(id, s, cache.DefaultExpiration); err == nil {
			logger.DebugContext(ctx, "session created", "session_id", id, "owner_id", s.OwnerID)
			return s, true, nil
		}
		// Another request created it first; read it back.
	}
}

// Get returns an existing session after the ownership check.
func (m *Manager) Get(ctx context.Context, id string, u *access.User) (*Session, error) {
	s, ok := m.lookup(id)
	if !ok {
		return nil, ErrNotFound
	}
	if err := checkOwner(s, u); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "session ownership conflict", "session_id", id, "user_id", userID(u))
		return nil, err
	}
	return s, nil
}

// Clear removes the session entirely. It reports whether a session was removed.
func (m *Manager) Clear(ctx context.Context, id string, u *access.User) (bool, error) {
	s, ok := m.lookup(id)
	if !ok {
		return false, nil
	}
	if err := checkOwner(s, u); err != nil {
		return false, err
	}
	m.store.Delete(id)
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "session cleared", "session_id", id)
	return true, nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	return m.store.ItemCount()
}

// Flush drops every session.
func (m *Manager) Flush() {
	m.store.Flush()
}

func (m *Manager) lookup(id string) (*Session, bool) {
	x, ok := m.store.Get(id)
	if !ok {
		return nil, false
	}
	s, ok := x.(*Session)
	return s, ok
}

// touch refreshes the idle expiration. Replace fails when the session was removed
// concurrently, which keeps a cleared session from coming back.
func (m *Manager) touch(id string, s *Session) {
	if m.ttl > 0 {
		_ = m.store.Replace(id, s, cache.DefaultExpiration)
	}
}

// checkOwner rejects callers other than the recorded owner. Sessions created by
// anonymous callers have no owner and are addressable by anyone holding the id.
func checkOwner(s *Session, u *access.User) error {
	if s.OwnerID == "" {
		return nil
	}
	if u == nil || u.ID != s.OwnerID {
		return ErrOwnershipConflict
	}
	return nil
}

func userID(u *access.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
