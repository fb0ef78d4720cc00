package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/plexpatrol/plexpatrol/internal/domain/shared/events"
	"github.com/plexpatrol/plexpatrol/internal/shared/biztime"
	"github.com/plexpatrol/plexpatrol/internal/shared/logger"
)

const sendBuffer = 64

// SSEConn is one operator stream subscribed to monitor events.
type SSEConn struct {
	ID          string
	Send        chan []byte
	Types       map[string]bool // nil means every event type
	ConnectedAt time.Time
	closed      atomic.Bool
}

// TrySend queues data without blocking. It returns false when the
// connection is closed or its buffer is full.
func (c *SSEConn) TrySend(data []byte) (sent bool) {
	if c.closed.Load() {
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			sent = false
		}
	}()

	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

func (c *SSEConn) Close() {
	if c.closed.CompareAndSwap(false, true) {
		close(c.Send)
	}
}

func (c *SSEConn) ShouldReceive(eventType string) bool {
	if c.Types == nil {
		return true
	}
	return c.Types[eventType]
}

// EventHub fans dispatcher events out to SSE connections. It is registered
// on the dispatcher as a wildcard handler.
type EventHub struct {
	conns    map[string]*SSEConn
	connsMu  sync.RWMutex
	maxConns int
	shutdown atomic.Bool
	logger   logger.Interface
}

var _ events.EventHandler = (*EventHub)(nil)

func NewEventHub(maxConns int, log logger.Interface) *EventHub {
	if maxConns <= 0 {
		maxConns = 16
	}
	return &EventHub{
		conns:    make(map[string]*SSEConn),
		maxConns: maxConns,
		logger:   log,
	}
}

// Shutdown closes every connection. Safe to call multiple times.
func (h *EventHub) Shutdown() {
	if !h.shutdown.CompareAndSwap(false, true) {
		return
	}

	h.connsMu.Lock()
	for _, conn := range h.conns {
		conn.Close()
	}
	h.conns = make(map[string]*SSEConn)
	h.connsMu.Unlock()
}

// RegisterConn adds a connection. It returns nil when the hub is shut down
// or full.
func (h *EventHub) RegisterConn(connID string, types []string) *SSEConn {
	if h.shutdown.Load() {
		return nil
	}

	var filter map[string]bool
	if len(types) > 0 {
		filter = make(map[string]bool, len(types))
		for _, t := range types {
			filter[t] = true
		}
	}

	conn := &SSEConn{
		ID:          connID,
		Send:        make(chan []byte, sendBuffer),
		Types:       filter,
		ConnectedAt: biztime.NowUTC(),
	}

	h.connsMu.Lock()
	defer h.connsMu.Unlock()

	if len(h.conns) >= h.maxConns {
		h.logger.Warnw("SSE connection limit exceeded", "limit", h.maxConns)
		return nil
	}
	h.conns[connID] = conn

	h.logger.Infow("SSE connection registered", "conn_id", connID, "types", types)
	return conn
}

func (h *EventHub) UnregisterConn(connID string) {
	h.connsMu.Lock()
	conn, ok := h.conns[connID]
	if ok {
		delete(h.conns, connID)
	}
	h.connsMu.Unlock()

	if ok {
		conn.Close()
		h.logger.Infow("SSE connection unregistered", "conn_id", connID)
	}
}

// Count returns the number of open connections.
func (h *EventHub) Count() int {
	h.connsMu.RLock()
	defer h.connsMu.RUnlock()
	return len(h.conns)
}

func (h *EventHub) CanHandle(string) bool {
	return true
}

// Handle broadcasts one event. Slow connections lose the event rather than
// stalling the dispatcher.
func (h *EventHub) Handle(event events.DomainEvent) error {
	eventType := event.GetEventType()
	data, err := formatSSEEvent(eventType, event)
	if err != nil {
		return err
	}

	h.connsMu.RLock()
	defer h.connsMu.RUnlock()

	for _, conn := range h.conns {
		if !conn.ShouldReceive(eventType) {
			continue
		}
		if !conn.TrySend(data) {
			h.logger.Warnw("failed to send SSE event, channel full",
				"conn_id", conn.ID,
				"event_type", eventType,
			)
		}
	}
	return nil
}

// formatSSEEvent renders "event: <type>\ndata: <json>\n\n".
func formatSSEEvent(eventType string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", eventType, data)), nil
}
