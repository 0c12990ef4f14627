package session

import (
	"fmt"
	"sync"
	"time"

	"review-service/internal/ledger"
	"review-service/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Manager is a registry of live controllers keyed by session id. Idle
// sessions are collected in the background so the registry stays bounded.
type Manager struct {
	cfg     Config
	records RecordSource
	votes   ledger.Ledger
	logger  *zap.Logger
	idleTTL time.Duration

	mu       sync.Mutex
	sessions map[string]*liveSession
	stop     chan struct{}
	stopOnce sync.Once
}

type liveSession struct {
	controller *Controller
	lastSeen   time.Time
}

// NewManager creates a new session manager and starts the idle sweep
func NewManager(cfg Config, records RecordSource, votes ledger.Ledger, idleTTL, sweepInterval time.Duration, logger *zap.Logger) *Manager {
	m := &Manager{
		cfg:      cfg,
		records:  records,
		votes:    votes,
		logger:   logger,
		idleTTL:  idleTTL,
		sessions: make(map[string]*liveSession),
		stop:     make(chan struct{}),
	}

	go m.sweep(sweepInterval)

	return m
}

// Create starts a new session and returns its id
func (m *Manager) Create() (string, *Controller) {
	id := uuid.New().String()
	ctl := NewController(m.cfg, m.records, m.votes, m.logger)

	m.mu.Lock()
	m.sessions[id] = &liveSession{
		controller: ctl,
		lastSeen:   time.Now(),
	}
	m.mu.Unlock()

	m.logger.Info("Session created", zap.String("session_id", id))
	return id, ctl
}

// Get returns the controller for a session id and marks it as active
func (m *Manager) Get(id string) (*Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown session %q", models.ErrValidation, id)
	}
	s.lastSeen = time.Now()
	return s.controller, nil
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-m.idleTTL)
			var expired []string

			m.mu.Lock()
			for id, s := range m.sessions {
				if s.lastSeen.Before(cutoff) {
					delete(m.sessions, id)
					expired = append(expired, id)
				}
			}
			m.mu.Unlock()

			for _, id := range expired {
				m.logger.Info("Idle session expired", zap.String("session_id", id))
			}
		}
	}
}

// Close stops the background sweep
func (m *Manager) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}
