package session

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/patchbay/internal/config"
	"github.com/gyaneshwarpardhi/patchbay/internal/editor"
	"github.com/gyaneshwarpardhi/patchbay/internal/metrics"
	"github.com/gyaneshwarpardhi/patchbay/internal/nodedef"
)

// Settings are applied to sessions at creation time.
type Settings struct {
	Registry       *nodedef.Registry
	Editor         config.EditorConf
	QueueDepth     int
	CommandTimeout time.Duration
	MaxSessions    int
}

// SettingsFrom derives session settings from a loaded config.
func SettingsFrom(cfg *config.Config, reg *nodedef.Registry) Settings {
	return Settings{
		Registry:       reg,
		Editor:         cfg.Editor,
		QueueDepth:     cfg.Server.QueueDepth,
		CommandTimeout: time.Duration(cfg.Server.CommandTimeoutMs) * time.Millisecond,
		MaxSessions:    cfg.Server.MaxSessions,
	}
}

// Info describes an open session.
type Info struct {
	ID      string    `json:"id"`
	Created time.Time `json:"created"`
	Project string    `json:"project"`
}

// Manager owns every open session.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	settings atomic.Pointer[Settings]
	logger   *slog.Logger
}

func NewManager(settings Settings, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		sessions: make(map[string]*Session),
		logger:   logger,
	}
	m.settings.Store(&settings)
	return m
}

// SetSettings atomically replaces the settings used for new sessions (used
// on hot-reload). Open sessions keep theirs.
func (m *Manager) SetSettings(s Settings) {
	m.settings.Store(&s)
	m.logger.Info("session settings updated", "queue_depth", s.QueueDepth, "max_sessions", s.MaxSessions)
}

func (m *Manager) Settings() Settings { return *m.settings.Load() }

// Create opens a new session with an empty graph.
func (m *Manager) Create() (*Session, error) {
	st := m.settings.Load()
	m.mu.Lock()
	defer m.mu.Unlock()
	if st.MaxSessions > 0 && len(m.sessions) >= st.MaxSessions {
		return nil, fmt.Errorf("%w (limit %d)", ErrTooManySessions, st.MaxSessions)
	}
	id := uuid.NewString()
	ed := editor.New(st.Registry, st.Editor, m.logger.With("session", id))
	s := newSession(id, ed, st.QueueDepth, st.CommandTimeout)
	m.sessions[id] = s
	metrics.ActiveSessions.Inc()
	m.logger.Info("session created", "session", id)
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// Close drains and removes a session.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.close()
	metrics.ActiveSessions.Dec()
	m.logger.Info("session closed", "session", id)
	return nil
}

// List returns the open sessions, oldest first.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Created.Equal(out[j].Created) {
			return out[i].ID < out[j].ID
		}
		return out[i].Created.Before(out[j].Created)
	})
	return out
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Shutdown drains every session loop.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.close()
		metrics.ActiveSessions.Dec()
	}
	m.logger.Info("sessions drained", "count", len(sessions))
}
