package engine

import (
	"context"
	"sort"

	"github.com/vk/wirestate/internal/convert"
	"github.com/vk/wirestate/internal/querystring"
	"github.com/zclconf/go-cty/cty"
)

// Effects carries the side channel of a snapshot: things the client should
// do besides patching state.
type Effects struct {
	Redirect    string
	QueryString string
}

// Snapshot is the external representation of an instance at the end of one
// update cycle. All values are in wire form.
type Snapshot struct {
	State    map[string]cty.Value
	Computed map[string]cty.Value
	Effects  Effects
}

// Snapshot serializes the instance: every property is lowered through its
// cast, every declared computed value is evaluated (memoized within the
// cycle), and the query-string representation is rendered. A value no cast
// can lower to a wire-safe kind fails with a ConfigurationError.
func (in *Instance) Snapshot(ctx context.Context) (*Snapshot, error) {
	state := make(map[string]cty.Value, len(in.values))

	for name, prop := range in.def.Properties {
		rich := in.values[name]

		c, err := in.castFor(prop)
		if err != nil {
			return nil, &ConfigurationError{Component: in.def.Name, Subject: "property '" + name + "'", Err: err}
		}

		wire := rich
		if c != nil {
			wire, err = c.Encode(rich)
			if err != nil {
				return nil, &ConfigurationError{Component: in.def.Name, Subject: "property '" + name + "'", Err: err}
			}
		}
		if !convert.WireSafe(wire) {
			return nil, &ConfigurationError{Component: in.def.Name, Subject: "property '" + name + "'", Err: errNotWireSafe(wire)}
		}
		state[name] = wire
	}

	computed := make(map[string]cty.Value, len(in.def.Computed))
	for _, name := range sortedComputedNames(in.def.Computed) {
		val, err := in.Computed(ctx, name)
		if err != nil {
			return nil, err
		}
		computed[name] = val
	}

	qs, err := querystring.Encode(in.def, state)
	if err != nil {
		return nil, &ConfigurationError{Component: in.def.Name, Subject: "query string", Err: err}
	}

	return &Snapshot{
		State:    state,
		Computed: computed,
		Effects: Effects{
			Redirect:    in.redirect,
			QueryString: qs,
		},
	}, nil
}

func sortedComputedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
