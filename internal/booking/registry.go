package booking

import (
	"context"
	"sync"
	"time"

	"github.com/easysalon/salon-concierge/pkg/logging"
)

// Registry tracks live booking sessions by session id. Sessions are
// created lazily on the first booking turn and removed once the dialogue
// reaches a terminal outcome or goes idle.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	cfg         SessionConfig
	idleTimeout time.Duration
	logger      *logging.Logger
}

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	Session SessionConfig

	// IdleTimeout is how long a session may exist before the sweeper
	// removes it. Zero disables the sweep.
	IdleTimeout time.Duration

	Logger *logging.Logger
}

// NewRegistry creates an empty session registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Registry{
		sessions:    make(map[string]*Session),
		cfg:         cfg.Session,
		idleTimeout: cfg.IdleTimeout,
		logger:      cfg.Logger,
	}
}

// Get returns the live session for an id, if any.
func (r *Registry) Get(sessionID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[sessionID]
	return sess, ok
}

// GetOrCreate returns the live session for an id, creating one when none
// exists yet.
func (r *Registry) GetOrCreate(sessionID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sess, ok := r.sessions[sessionID]; ok {
		return sess
	}
	sess := NewSessionWithState(r.cfg, NewState(sessionID))
	r.sessions[sess.SessionID()] = sess
	r.logger.Info("booking: session created", "session_id", sess.SessionID())
	return sess
}

// Adopt registers a session restored from a snapshot.
func (r *Registry) Adopt(sess *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.SessionID()] = sess
}

// Restore builds a session from a persisted state and registers it. An
// already-live session with the same id wins over the snapshot.
func (r *Registry) Restore(state *State) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.sessions[state.SessionID]; ok {
		return sess
	}
	sess := NewSessionWithState(r.cfg, state)
	r.sessions[sess.SessionID()] = sess
	r.logger.Info("booking: session restored", "session_id", sess.SessionID())
	return sess
}

// Delete removes a session from the registry.
func (r *Registry) Delete(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[sessionID]; ok {
		delete(r.sessions, sessionID)
		r.logger.Info("booking: session removed", "session_id", sessionID)
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep removes sessions older than the idle timeout and returns how many
// were dropped.
func (r *Registry) Sweep(now time.Time) int {
	if r.idleTimeout <= 0 {
		return 0
	}

	r.mu.Lock()
	var stale []string
	for id, sess := range r.sessions {
		if now.Sub(sess.StartedAt()) > r.idleTimeout {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if len(stale) > 0 {
		r.logger.Info("booking: swept idle sessions", "count", len(stale))
	}
	return len(stale)
}

// StartSweeper runs the idle sweep on the given interval until ctx is
// cancelled.
func (r *Registry) StartSweeper(ctx context.Context, interval time.Duration) {
	if r.idleTimeout <= 0 || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				r.Sweep(now)
			}
		}
	}()
}
