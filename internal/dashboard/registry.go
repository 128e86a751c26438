package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry maps session IDs to sessions.
type Registry struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	fetcher   Fetcher
	honorDate bool
	idleTTL   time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewRegistry creates a registry whose sessions share fetcher. Sessions not
// touched for idleTTL are dropped by Prune.
func NewRegistry(fetcher Fetcher, idleTTL time.Duration, honorDate bool, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sessions:  make(map[string]*Session),
		fetcher:   fetcher,
		honorDate: honorDate,
		idleTTL:   idleTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// Get returns the session for id and marks it as seen.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if ok {
		s.lastSeen = r.now()
	}
	return s, ok
}

// GetOrCreate returns the session for id, or a new session with a fresh ID
// when id is unknown or malformed. created reports the latter.
func (r *Registry) GetOrCreate(id string) (s *Session, created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		s.lastSeen = r.now()
		return s, false
	}

	s = &Session{
		ID:        uuid.NewString(),
		store:     NewStore(),
		fetcher:   r.fetcher,
		honorDate: r.honorDate,
		logger:    r.logger,
		lastSeen:  r.now(),
	}
	r.sessions[s.ID] = s
	return s, true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Prune drops sessions idle since before now-idleTTL and returns how many
// were removed.
func (r *Registry) Prune(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := now.Add(-r.idleTTL)
	removed := 0
	for id, s := range r.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// Run prunes idle sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.Prune(r.now()); n > 0 {
				r.logger.Debug("pruned idle sessions", "count", n, "remaining", r.Len())
			}
		}
	}
}
