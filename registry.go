package tempo

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Locator resolves a session identity.
type Locator interface {
	Locate(id string) (*Session, bool)
}

// Registry tracks live sessions by identity. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *slog.Logger
}

// NewRegistry creates an empty registry. A nil logger uses slog.Default().
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		logger:   logger,
	}
}

// Create registers a new session with a random UUID.
func (r *Registry) Create() *Session {
	for {
		sess, err := r.CreateWithID(uuid.NewString())
		if err == nil {
			return sess
		}
	}
}

// CreateWithID registers a new session under id.
func (r *Registry) CreateWithID(id string) (*Session, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty session id", ErrInvalidConfig)
	}

	r.mu.Lock()
	if _, exists := r.sessions[id]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrSessionExists, id)
	}
	sess := NewSession(id)
	r.sessions[id] = sess
	r.mu.Unlock()

	r.logger.Debug("session created", "session", id)
	return sess, nil
}

// Locate returns the live session for id.
func (r *Registry) Locate(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

// Hangup removes the session and runs its hangup hooks. It reports whether
// the session was live.
func (r *Registry) Hangup(id string) bool {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return false
	}
	sess.Hangup()
	r.logger.Debug("session hung up", "session", id)
	return true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// IDs returns the live session identities in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	slices.Sort(ids)
	return ids
}

// Close hangs up every live session.
func (r *Registry) Close() {
	for _, id := range r.IDs() {
		r.Hangup(id)
	}
}
