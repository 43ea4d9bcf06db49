// Package session orchestrates update cycles: it owns the mapping from an
// inbound update request to exactly one synchronous cycle against one
// component instance, shared by the HTTP and socket.io transports.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/vk/wirestate/internal/config"
	"github.com/vk/wirestate/internal/convert"
	"github.com/vk/wirestate/internal/ctxlog"
	"github.com/vk/wirestate/internal/engine"
	"github.com/vk/wirestate/internal/metrics"
	"github.com/vk/wirestate/internal/registry"
	"github.com/vk/wirestate/internal/store"
	"github.com/zclconf/go-cty/cty"
)

// Session binds the registry, the instance store, and the metrics together
// for the lifetime of the application.
type Session struct {
	reg     *registry.Registry
	store   *store.Store
	metrics *metrics.Metrics
}

// New creates a session. metrics may be nil.
func New(reg *registry.Registry, st *store.Store, m *metrics.Metrics) *Session {
	return &Session{reg: reg, store: st, metrics: m}
}

// UpdateRequest is one client-originated update: property values to merge
// and actions to call, against a component instance.
type UpdateRequest struct {
	Component string         `json:"component"`
	ID        string         `json:"id,omitempty"`
	Updates   map[string]any `json:"updates,omitempty"`
	Calls     []Call         `json:"calls,omitempty"`
}

// Call names one action invocation within an update request.
type Call struct {
	Action string         `json:"action"`
	Args   map[string]any `json:"args,omitempty"`
}

// Effects is the snapshot's side channel in JSON form.
type Effects struct {
	Redirect    string `json:"redirect,omitempty"`
	QueryString string `json:"query_string,omitempty"`
}

// UpdateResponse is the serialized snapshot sent back after a cycle.
type UpdateResponse struct {
	Component string         `json:"component"`
	ID        string         `json:"id"`
	State     map[string]any `json:"state"`
	Computed  map[string]any `json:"computed,omitempty"`
	Effects   Effects        `json:"effects"`
}

// Update runs one synchronous cycle: acquire the instance, apply updates in
// key-sorted order, run calls in order, then snapshot. The transport label
// only feeds metrics.
func (s *Session) Update(ctx context.Context, transport string, req *UpdateRequest) (*UpdateResponse, error) {
	started := time.Now()
	logger := ctxlog.FromContext(ctx).With("component", req.Component, "instance", req.ID)
	logger.Info("▶️ Starting update cycle", "updates", len(req.Updates), "calls", len(req.Calls))

	resp, evaluated, err := s.runCycle(ctx, req)

	outcome := "ok"
	if err != nil {
		outcome = "error"
		var verr *engine.ValidationError
		if errors.As(err, &verr) {
			s.metrics.ObserveValidationError(verr.Component, verr.Property)
		}
		logger.Warn("Update cycle failed.", "error", err)
	} else {
		logger.Info("✅ Finished update cycle", "instance", resp.ID)
	}
	s.metrics.ObserveCycle(req.Component, transport, outcome, time.Since(started), evaluated)
	s.metrics.SetInstancesLive(s.store.Len())

	return resp, err
}

func (s *Session) runCycle(ctx context.Context, req *UpdateRequest) (*UpdateResponse, int, error) {
	def, ok := s.reg.Definition(req.Component)
	if !ok {
		return nil, 0, &engine.NotFoundError{Component: req.Component, Kind: "component", Name: req.Component}
	}

	handle, err := s.acquire(ctx, def, req)
	if err != nil {
		return nil, 0, err
	}
	handle.Lock()
	defer handle.Unlock()

	inst := handle.Instance
	inst.BeginCycle()

	// Apply in key-sorted order so a request's outcome does not depend on
	// JSON map iteration.
	names := make([]string, 0, len(req.Updates))
	for name := range req.Updates {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		wire, err := convert.FromNative(req.Updates[name])
		if err != nil {
			return nil, 0, &engine.ValidationError{Component: def.Name, Property: name, Err: err}
		}
		if err := inst.Apply(name, wire); err != nil {
			return nil, 0, err
		}
	}

	for _, call := range req.Calls {
		args := make(map[string]cty.Value, len(call.Args))
		for name, raw := range call.Args {
			wire, err := convert.FromNative(raw)
			if err != nil {
				return nil, 0, &engine.ValidationError{Component: def.Name, Property: name, Err: err}
			}
			args[name] = wire
		}
		if err := inst.Call(ctx, call.Action, args); err != nil {
			return nil, inst.Stats().ComputedEvaluated, err
		}
	}

	snap, err := inst.Snapshot(ctx)
	if err != nil {
		return nil, inst.Stats().ComputedEvaluated, err
	}

	state, err := nativeMap(snap.State)
	if err != nil {
		return nil, inst.Stats().ComputedEvaluated, fmt.Errorf("failed to serialize state: %w", err)
	}
	computed, err := nativeMap(snap.Computed)
	if err != nil {
		return nil, inst.Stats().ComputedEvaluated, fmt.Errorf("failed to serialize computed values: %w", err)
	}

	return &UpdateResponse{
		Component: def.Name,
		ID:        inst.ID(),
		State:     state,
		Computed:  computed,
		Effects: Effects{
			Redirect:    snap.Effects.Redirect,
			QueryString: snap.Effects.QueryString,
		},
	}, inst.Stats().ComputedEvaluated, nil
}

// acquire finds the instance named by the request, or initializes a fresh
// one from def. The caller resolves def once at the top of the cycle; a hot
// reload may remove the component from the registry at any point after that,
// so acquire must not look it up again. A request without an ID always gets
// a new instance.
func (s *Session) acquire(ctx context.Context, def *config.ComponentDefinition, req *UpdateRequest) (*store.Handle, error) {
	id := req.ID
	if id != "" {
		if handle, ok := s.store.Get(id); ok {
			return handle, nil
		}
		// An unknown ID re-syncs onto a fresh instance under the same ID,
		// so clients survive a server restart.
		ctxlog.FromContext(ctx).Debug("Unknown instance ID, initializing fresh state.", "instance", id)
	} else {
		id = uuid.NewString()
	}

	inst, err := engine.New(def, s.reg, id)
	if err != nil {
		return nil, err
	}
	return s.store.Put(inst), nil
}

func nativeMap(values map[string]cty.Value) (map[string]any, error) {
	out := make(map[string]any, len(values))
	for name, val := range values {
		native, err := convert.ToNative(val)
		if err != nil {
			return nil, fmt.Errorf("in '%s': %w", name, err)
		}
		out[name] = native
	}
	return out, nil
}
