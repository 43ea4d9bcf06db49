// Package server exposes the update cycle over plain HTTP: one POST per
// cycle, a health endpoint, and the prometheus scrape endpoint.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vk/wirestate/internal/ctxlog"
	"github.com/vk/wirestate/internal/engine"
	"github.com/vk/wirestate/internal/metrics"
	"github.com/vk/wirestate/internal/session"
)

// maxBodyBytes bounds an update request body.
const maxBodyBytes = 1 << 20

// Server handles the HTTP side of the wire protocol.
type Server struct {
	sess    *session.Session
	metrics *metrics.Metrics
	promReg *prometheus.Registry
	logger  *slog.Logger
}

// New creates the HTTP transport. promReg may be nil to scrape the default
// gatherer.
func New(sess *session.Session, m *metrics.Metrics, promReg *prometheus.Registry, logger *slog.Logger) *Server {
	return &Server{sess: sess, metrics: m, promReg: promReg, logger: logger}
}

// Handler returns the transport's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /wirestate/update", s.handleUpdate)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler(s.promReg))
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// errorResponse is the JSON body of a failed update.
type errorResponse struct {
	Error    string `json:"error"`
	Kind     string `json:"kind"`
	Property string `json:"property,omitempty"`
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := ctxlog.WithLogger(r.Context(), s.logger)

	var req session.UpdateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed update payload: " + err.Error(), Kind: "bad_request"})
		return
	}
	if req.Component == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing component name", Kind: "bad_request"})
		return
	}

	resp, err := s.sess.Update(ctx, "http", &req)
	if err != nil {
		status, body := classify(err)
		writeJSON(w, status, body)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// classify maps engine errors onto HTTP statuses: rejected values are the
// client's fault (422), unknown names are 404, anything else is a server
// error.
func classify(err error) (int, errorResponse) {
	var verr *engine.ValidationError
	if errors.As(err, &verr) {
		return http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Kind: "validation", Property: verr.Property}
	}
	var nferr *engine.NotFoundError
	if errors.As(err, &nferr) {
		return http.StatusNotFound, errorResponse{Error: err.Error(), Kind: "not_found"}
	}
	return http.StatusInternalServerError, errorResponse{Error: err.Error(), Kind: "internal"}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
