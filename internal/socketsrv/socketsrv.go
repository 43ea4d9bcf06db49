// Package socketsrv exposes the update cycle over socket.io. It speaks the
// same request and snapshot shapes as the HTTP transport, plus server-side
// debouncing of live property updates.
package socketsrv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/vk/wirestate/internal/ctxlog"
	"github.com/vk/wirestate/internal/engine"
	"github.com/vk/wirestate/internal/registry"
	"github.com/vk/wirestate/internal/session"
	"github.com/zishang520/socket.io/v2/socket"
)

// Server accepts socket.io connections and runs update cycles for them.
type Server struct {
	ctx  context.Context
	io   *socket.Server
	sess *session.Session
	reg  *registry.Registry
}

// New creates the socket.io transport. ctx is the application lifetime
// context; handler goroutines spawned for debounced updates derive from it.
func New(ctx context.Context, sess *session.Session, reg *registry.Registry) (*Server, error) {
	s := &Server{
		ctx:  ctx,
		io:   socket.NewServer(nil, nil),
		sess: sess,
		reg:  reg,
	}

	err := s.io.On("connection", func(clients ...any) {
		client, ok := clients[0].(*socket.Socket)
		if !ok {
			return
		}
		c := newConn(s, client)
		logger := ctxlog.FromContext(ctx)
		logger.Info("🔌 Client connected", "sid", client.Id())

		client.On("update", c.onUpdate)
		client.On("disconnect", func(...any) {
			logger.Debug("Client disconnected.", "sid", client.Id())
			c.close()
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to install connection listener: %w", err)
	}

	return s, nil
}

// Handler returns the http.Handler to mount at the socket.io path.
func (s *Server) Handler() http.Handler {
	return s.io.ServeHandler(nil)
}

// Close disconnects all clients and stops the underlying server.
func (s *Server) Close() {
	s.io.Close(nil)
}

// errorPayload is the JSON body of the "update_error" event.
type errorPayload struct {
	Error    string `json:"error"`
	Kind     string `json:"kind"`
	Property string `json:"property,omitempty"`
}

// dispatch runs one cycle and emits the result back on the socket.
func (s *Server) dispatch(client *socket.Socket, req *session.UpdateRequest) {
	resp, err := s.sess.Update(s.ctx, "socketio", req)
	if err != nil {
		client.Emit("update_error", classify(err))
		return
	}
	client.Emit("snapshot", resp)
}

func classify(err error) errorPayload {
	var verr *engine.ValidationError
	if errors.As(err, &verr) {
		return errorPayload{Error: err.Error(), Kind: "validation", Property: verr.Property}
	}
	var nferr *engine.NotFoundError
	if errors.As(err, &nferr) {
		return errorPayload{Error: err.Error(), Kind: "not_found"}
	}
	return errorPayload{Error: err.Error(), Kind: "internal"}
}

// decodeRequest round-trips a socket.io event argument through JSON into the
// shared request shape.
func decodeRequest(raw any) (*session.UpdateRequest, error) {
	buf, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode update event payload: %w", err)
	}
	var req session.UpdateRequest
	if err := json.Unmarshal(buf, &req); err != nil {
		return nil, fmt.Errorf("malformed update event payload: %w", err)
	}
	if req.Component == "" {
		return nil, errors.New("update event is missing the component name")
	}
	return &req, nil
}
