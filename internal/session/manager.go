package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"dictionary-annotator/internal/logger"
	"dictionary-annotator/internal/metrics"
	"dictionary-annotator/internal/vocab"
)

const minSweepInterval = time.Second

// Options configure a Manager.
type Options struct {
	// Remote may be nil for bundled-only operation.
	Remote   vocab.Provider
	Fallback vocab.Fallback
	Debounce time.Duration
	// TTL is the idle time after which a session is evicted; 0 disables eviction.
	TTL           time.Duration
	DefaultConfig string
	Log           *logger.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

type entry struct {
	session  *Session
	lastUsed time.Time
}

// Manager keeps the live sessions.
type Manager struct {
	opts    Options
	log     *logger.Logger
	configs *vocab.Resolver

	mu       sync.Mutex
	sessions map[string]*entry
}

// NewManager returns an empty manager.
func NewManager(opts Options) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	if opts.Fallback == nil {
		opts.Fallback = vocab.NewBundledProvider()
	}

	if opts.DefaultConfig == "" {
		opts.DefaultConfig = opts.Fallback.DefaultName()
	}

	log := logger.OrNop(opts.Log)

	return &Manager{
		opts:     opts,
		log:      log,
		configs:  vocab.NewResolver(opts.Remote, opts.Fallback, log),
		sessions: make(map[string]*entry),
	}
}

// ListConfigs returns the names of every selectable configuration.
func (m *Manager) ListConfigs(ctx context.Context) ([]string, error) {
	return m.configs.ListConfigs(ctx)
}

// Create starts a session with the named configuration ("" selects the
// default). The session is registered only when the configuration loaded.
func (m *Manager) Create(ctx context.Context, configName string) (*Session, error) {
	if configName == "" {
		configName = m.opts.DefaultConfig
	}

	s := New(uuid.NewString(), m.opts.Remote, m.opts.Fallback, m.opts.Debounce, m.log)

	if _, err := s.SelectConfig(ctx, configName); err != nil {
		s.Close()
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = &entry{session: s, lastUsed: m.opts.Now()}
	n := len(m.sessions)
	m.mu.Unlock()

	metrics.SetActiveSessions(n)
	m.log.Debug("session created", "session", s.ID, "config", configName)

	return s, nil
}

// Get returns the session and marks it used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	e.lastUsed = m.opts.Now()

	return e.session, nil
}

// Delete closes and forgets the session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	e.session.Close()
	metrics.SetActiveSessions(n)
	m.log.Debug("session deleted", "session", id)

	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sessions)
}

// EvictIdle closes sessions unused for longer than the TTL and returns how
// many were evicted.
func (m *Manager) EvictIdle() int {
	if m.opts.TTL <= 0 {
		return 0
	}

	cutoff := m.opts.Now().Add(-m.opts.TTL)

	var evicted []*Session

	m.mu.Lock()
	for id, e := range m.sessions {
		if e.lastUsed.Before(cutoff) {
			evicted = append(evicted, e.session)
			delete(m.sessions, id)
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	for _, s := range evicted {
		s.Close()
		m.log.Debug("session evicted", "session", s.ID)
	}

	if len(evicted) > 0 {
		metrics.SetActiveSessions(n)
	}

	return len(evicted)
}

// Run evicts idle sessions periodically until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	if m.opts.TTL <= 0 {
		return
	}

	interval := max(m.opts.TTL/4, minSweepInterval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.EvictIdle()
		}
	}
}

// Close closes every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*entry)
	m.mu.Unlock()

	for _, e := range sessions {
		e.session.Close()
	}

	metrics.SetActiveSessions(0)
}
