package socketsrv

import (
	"fmt"
	"sync"

	"github.com/vk/wirestate/internal/config"
	"github.com/vk/wirestate/internal/debounce"
	"github.com/vk/wirestate/internal/registry"
	"github.com/vk/wirestate/internal/session"
	"github.com/zishang520/socket.io/v2/socket"
)

// conn is the per-connection state: a debouncer for live property updates
// plus the buffered values waiting for their quiet interval to elapse. It
// talks to the rest of the transport through the dispatch and emitErr
// functions rather than the socket directly.
type conn struct {
	reg      *registry.Registry
	dispatch func(*session.UpdateRequest)
	emitErr  func(errorPayload)
	deb      *debounce.Debouncer

	mu      sync.Mutex
	pending map[string]any
}

func newConn(srv *Server, client *socket.Socket) *conn {
	return &conn{
		reg:      srv.reg,
		dispatch: func(req *session.UpdateRequest) { srv.dispatch(client, req) },
		emitErr:  func(p errorPayload) { client.Emit("update_error", p) },
		deb:      debounce.New(),
		pending:  make(map[string]any),
	}
}

// onUpdate handles one "update" event. Updates to live properties with a
// debounce interval are buffered and flushed after the interval; everything
// else dispatches immediately. A request without an instance ID always
// dispatches immediately, because debounced flushes need a stable ID to
// land on.
func (c *conn) onUpdate(args ...any) {
	if len(args) == 0 {
		c.emitErr(errorPayload{Error: "update event carries no payload", Kind: "bad_request"})
		return
	}

	req, err := decodeRequest(args[0])
	if err != nil {
		c.emitErr(errorPayload{Error: err.Error(), Kind: "bad_request"})
		return
	}

	def, ok := c.reg.Definition(req.Component)
	if !ok || req.ID == "" {
		// Unknown components fail inside the session with a proper error.
		c.dispatch(req)
		return
	}

	immediate := &session.UpdateRequest{
		Component: req.Component,
		ID:        req.ID,
		Updates:   make(map[string]any),
		Calls:     req.Calls,
	}

	for name, value := range req.Updates {
		prop, declared := def.Properties[name]
		if declared && prop.Live {
			c.buffer(req, prop, value)
			continue
		}
		immediate.Updates[name] = value
	}

	if len(immediate.Updates) > 0 || len(immediate.Calls) > 0 || len(req.Updates) == 0 {
		c.dispatch(immediate)
	}
}

// buffer stores the latest value for a live property and (re)arms its timer.
// Only the trailing value within the quiet interval reaches the engine.
func (c *conn) buffer(req *session.UpdateRequest, prop *config.PropertyDefinition, value any) {
	key := fmt.Sprintf("%s/%s/%s", req.Component, req.ID, prop.Name)

	c.mu.Lock()
	c.pending[key] = value
	c.mu.Unlock()

	component, id, name := req.Component, req.ID, prop.Name
	c.deb.Do(key, prop.Debounce, func() {
		c.flush(key, component, id, name)
	})
}

// flush sends one buffered live property value through a cycle of its own.
func (c *conn) flush(key, component, id, name string) {
	c.mu.Lock()
	value, ok := c.pending[key]
	delete(c.pending, key)
	c.mu.Unlock()
	if !ok {
		return
	}

	c.dispatch(&session.UpdateRequest{
		Component: component,
		ID:        id,
		Updates:   map[string]any{name: value},
	})
}

// close cancels all pending debounced flushes for the connection.
func (c *conn) close() {
	c.deb.Stop()
	c.mu.Lock()
	c.pending = make(map[string]any)
	c.mu.Unlock()
}
