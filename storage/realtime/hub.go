package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/renshulabs/academy/core"
)

// channel every table trigger notifies on; the payload names the table.
const pgChannel = "table_changes"

// Change is one row-level mutation reported by the database.
type Change struct {
	Table string `json:"table"`
	Op    string `json:"op"` // INSERT, UPDATE or DELETE
}

// Handler reacts to a Change. Handlers drop whatever cached or in-memory state
// the change invalidates and refetch on the next read; the notification does
// not carry row data.
type Handler func(Change)

// Hub fans database change notifications out to per-table handlers. It owns a
// single LISTEN connection with automatic reconnection.
type Hub struct {
	listener *pq.Listener
	logger   core.Logger

	mu       sync.RWMutex
	handlers map[string][]Handler

	done chan struct{}
}

// NewHub opens the LISTEN connection. Run must be called to start dispatching.
func NewHub(connStr string, logger core.Logger) (*Hub, error) {
	hub := &Hub{
		logger:   logger,
		handlers: make(map[string][]Handler),
		done:     make(chan struct{}),
	}

	hub.listener = pq.NewListener(connStr, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Error("realtime: listener event", err)
		}
	})
	if err := hub.listener.Listen(pgChannel); err != nil {
		_ = hub.listener.Close()
		return nil, errors.Wrap(err, "listening on change channel")
	}
	return hub, nil
}

// Subscribe registers a handler for one table's changes. Registration is
// explicit and scoped: callers unsubscribe via the returned function when the
// consuming view goes away.
func (hub *Hub) Subscribe(table string, h Handler) (unsubscribe func()) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	hub.handlers[table] = append(hub.handlers[table], h)
	idx := len(hub.handlers[table]) - 1

	return func() {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		handlers := hub.handlers[table]
		if idx < len(handlers) {
			handlers[idx] = nil
		}
	}
}

// Run dispatches notifications until the context is canceled. A periodic ping
// keeps the connection honest across idle periods.
func (hub *Hub) Run(ctx context.Context) {
	defer close(hub.done)

	pingTicker := time.NewTicker(90 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-pingTicker.C:
			if err := hub.listener.Ping(); err != nil {
				hub.logger.Error("realtime: ping failed", err)
			}
		case n := <-hub.listener.Notify:
			if n == nil {
				// reconnect; pq re-establishes the LISTEN automatically
				continue
			}
			var change Change
			if err := json.Unmarshal([]byte(n.Extra), &change); err != nil {
				hub.logger.Error("realtime: bad notification payload", err)
				continue
			}
			hub.dispatch(change)
		}
	}
}

func (hub *Hub) dispatch(change Change) {
	hub.mu.RLock()
	handlers := make([]Handler, 0, len(hub.handlers[change.Table]))
	for _, h := range hub.handlers[change.Table] {
		if h != nil {
			handlers = append(handlers, h)
		}
	}
	hub.mu.RUnlock()

	for _, h := range handlers {
		h(change)
	}
}

// Close tears the LISTEN connection down and waits for Run to return.
func (hub *Hub) Close() error {
	err := hub.listener.Close()
	<-hub.done
	return err
}
