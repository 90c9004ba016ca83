package session

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/eshaffer321/ledger-reconciler/internal/infrastructure/config"
)

// Manager keeps live sessions in memory and expires idle ones.
type Manager struct {
	cache   *cache.Cache
	ttl     time.Duration
	journal Journal
	logger  *slog.Logger
	opts    []Option
}

// NewManager creates a session registry. Sessions idle for longer than
// cfg.TTL are dropped.
func NewManager(cfg config.SessionsConfig, journal Journal, logger *slog.Logger, opts ...Option) *Manager {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	cleanup := cfg.CleanupInterval
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}

	m := &Manager{
		cache:   cache.New(ttl, cleanup),
		ttl:     ttl,
		journal: journal,
		logger:  logger,
		opts:    opts,
	}
	m.cache.OnEvicted(func(id string, _ interface{}) {
		m.logger.Debug("session evicted", "session", id)
	})
	return m
}

// Create starts a new session.
func (m *Manager) Create() *Session {
	s := New(uuid.NewString(), m.journal, m.logger, m.opts...)
	m.cache.Set(s.ID, s, cache.DefaultExpiration)
	m.logger.Info("session created", "session", s.ID)
	return s
}

// Get returns a live session and extends its lifetime.
func (m *Manager) Get(id string) (*Session, error) {
	v, ok := m.cache.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	s := v.(*Session)
	m.cache.Set(id, s, cache.DefaultExpiration)
	return s, nil
}

// Delete ends a session.
func (m *Manager) Delete(id string) error {
	if _, ok := m.cache.Get(id); !ok {
		return ErrSessionNotFound
	}
	m.cache.Delete(id)
	return nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	return m.cache.ItemCount()
}
