// Package wsserver implements the WebSocket Session Manager: one fiber
// route accepting typed JSON messages and streaming workflow execution
// progress back to the originating connection.
//
// Grounded on the teacher's internal/api/websocket.go (Client +
// ClientManager register/unregister/broadcast channels), generalised
// from its ignore-all-inbound-messages placeholder to the spec's typed
// dispatch table.
package wsserver

import (
	"context"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Narcis13/workscript-sub004/internal/metrics"
)

// Session is one connected websocket client.
type Session struct {
	ID            string
	conn          *websocket.Conn
	send          chan []byte
	mu            sync.Mutex
	subscriptions map[string]bool
	cancels       map[string]context.CancelFunc // executionId -> cancel
}

func newSession(conn *websocket.Conn) *Session {
	return &Session{
		ID:            uuid.NewString(),
		conn:          conn,
		send:          make(chan []byte, 256),
		subscriptions: make(map[string]bool),
		cancels:       make(map[string]context.CancelFunc),
	}
}

func (s *Session) emit(b []byte) {
	select {
	case s.send <- b:
	default:
		// slow consumer: drop rather than block the dispatch goroutine.
	}
}

func (s *Session) registerCancel(executionID string, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels[executionID] = cancel
}

func (s *Session) cancelExecution(executionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cancel, ok := s.cancels[executionID]
	if ok {
		cancel()
		delete(s.cancels, executionID)
	}
	return ok
}

func (s *Session) clearExecution(executionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cancels, executionID)
}

// Manager tracks connected sessions and wires them to Dispatcher.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   zerolog.Logger
	metrics  *metrics.Collector
	dispatch Dispatcher
}

// Dispatcher handles one decoded inbound Envelope for a Session. It is
// satisfied by *wsserver.WorkflowDispatcher (handler.go).
type Dispatcher interface {
	Handle(ctx context.Context, s *Session, env Envelope)
}

// NewManager builds a Manager. metrics may be nil.
func NewManager(logger zerolog.Logger, metrics *metrics.Collector, dispatch Dispatcher) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		logger:   logger,
		metrics:  metrics,
		dispatch: dispatch,
	}
}

func (m *Manager) add(s *Session) {
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	if m.metrics != nil {
		m.metrics.WSSessionsActive.Inc()
	}
}

func (m *Manager) remove(s *Session) {
	m.mu.Lock()
	delete(m.sessions, s.ID)
	m.mu.Unlock()
	if m.metrics != nil {
		m.metrics.WSSessionsActive.Dec()
	}
}

// Broadcast sends raw bytes to every session subscribed to channel.
func (m *Manager) Broadcast(channel string, b []byte) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		s.mu.Lock()
		subscribed := s.subscriptions[channel]
		s.mu.Unlock()
		if subscribed {
			s.emit(b)
		}
	}
}
