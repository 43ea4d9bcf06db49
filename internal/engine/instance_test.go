package engine

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/wirestate/internal/config"
	"github.com/vk/wirestate/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// fixture builds a small component with every engine feature in play: a
// cast-backed URL-bound number, a plain string, a datetime, one computed
// value, and two actions.
type fixture struct {
	def *config.ComponentDefinition
	reg *registry.Registry

	// doubleCalls counts derivation invocations, for memoization assertions.
	doubleCalls int
}

type doubleInput struct {
	Count int `wire:"count"`
}

type bumpInput struct {
	Step int `wire:"step"`
}

type gotoInput struct {
	Target string `wire:"target"`
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	zero := cty.NumberIntVal(0)
	anon := cty.StringVal("anon")

	f := &fixture{
		def: &config.ComponentDefinition{
			Name: "widget",
			Properties: map[string]*config.PropertyDefinition{
				"count": {
					Name:    "count",
					Type:    cty.Number,
					Cast:    "integer",
					Default: &zero,
					URL:     &config.URLBinding{Key: "c", Except: &zero},
				},
				"name": {
					Name:    "name",
					Type:    cty.String,
					Default: &anon,
				},
				"published": {
					Name: "published",
					Type: cty.String,
					Cast: "datetime",
				},
			},
			Computed: map[string]*config.ComputedDefinition{
				"double": {Name: "double", Handler: "Double"},
			},
			Actions: map[string]*config.ActionDefinition{
				"bump": {Name: "bump", Handler: "Bump"},
				"goto": {Name: "goto", Handler: "Goto"},
			},
		},
		reg: registry.New(),
	}

	f.reg.RegisterComputed("Double", &registry.RegisteredComputed{
		NewInput:  func() any { return new(doubleInput) },
		InputType: reflect.TypeOf(doubleInput{}),
		Fn: func(ctx context.Context, in *doubleInput) (int, error) {
			f.doubleCalls++
			return in.Count * 2, nil
		},
	})
	f.reg.RegisterAction("Bump", &registry.RegisteredAction{
		NewInput:  func() any { return new(bumpInput) },
		InputType: reflect.TypeOf(bumpInput{}),
		Fn: func(ctx context.Context, c *Ctx, in *bumpInput) error {
			current, err := c.Get("count")
			if err != nil {
				return err
			}
			step := int64(1)
			if in.Step != 0 {
				step = int64(in.Step)
			}
			cur, _ := current.AsBigFloat().Int64()
			return c.Set("count", cty.NumberIntVal(cur+step))
		},
	})
	f.reg.RegisterAction("Goto", &registry.RegisteredAction{
		NewInput:  func() any { return new(gotoInput) },
		InputType: reflect.TypeOf(gotoInput{}),
		Fn: func(ctx context.Context, c *Ctx, in *gotoInput) error {
			c.Redirect(in.Target)
			return nil
		},
	})

	return f
}

func (f *fixture) newInstance(t *testing.T) *Instance {
	t.Helper()
	inst, err := New(f.def, f.reg, "test-instance")
	require.NoError(t, err)
	return inst
}

func TestNew_Defaults(t *testing.T) {
	f := newFixture(t)
	inst := f.newInstance(t)

	count, err := inst.Get("count")
	require.NoError(t, err)
	assert.True(t, cty.NumberIntVal(0).RawEquals(count))

	name, err := inst.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "anon", name.AsString())

	// No default plus a cast means the cast's view of null.
	published, err := inst.Get("published")
	require.NoError(t, err)
	assert.True(t, published.IsNull())
}

func TestNew_UnknownCastIsConfigurationError(t *testing.T) {
	f := newFixture(t)
	f.def.Properties["count"].Cast = "no-such-cast"

	_, err := New(f.def, f.reg, "x")
	var cerr *ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "widget", cerr.Component)
}

func TestApply(t *testing.T) {
	f := newFixture(t)
	inst := f.newInstance(t)

	t.Run("converts through the cast", func(t *testing.T) {
		require.NoError(t, inst.Apply("count", cty.StringVal("5")))
		count, err := inst.Get("count")
		require.NoError(t, err)
		assert.True(t, cty.NumberIntVal(5).RawEquals(count))
	})

	t.Run("rejected value leaves state untouched", func(t *testing.T) {
		err := inst.Apply("count", cty.NumberFloatVal(1.5))
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "count", verr.Property)

		count, err := inst.Get("count")
		require.NoError(t, err)
		assert.True(t, cty.NumberIntVal(5).RawEquals(count), "failed apply must not mutate")
	})

	t.Run("unknown property", func(t *testing.T) {
		err := inst.Apply("nope", cty.StringVal("x"))
		var nferr *NotFoundError
		require.ErrorAs(t, err, &nferr)
		assert.Equal(t, "property", nferr.Kind)
	})

	t.Run("datetime cast produces a rich value", func(t *testing.T) {
		require.NoError(t, inst.Apply("published", cty.StringVal("2025-03-14T09:00:00Z")))
		published, err := inst.Get("published")
		require.NoError(t, err)
		parsed := published.EncapsulatedValue().(*time.Time)
		assert.Equal(t, time.March, parsed.Month())
	})
}

func TestReset(t *testing.T) {
	f := newFixture(t)
	inst := f.newInstance(t)

	require.NoError(t, inst.Apply("count", cty.NumberIntVal(9)))
	require.NoError(t, inst.Apply("name", cty.StringVal("zelda")))

	t.Run("single property", func(t *testing.T) {
		require.NoError(t, inst.Reset("count"))

		count, _ := inst.Get("count")
		assert.True(t, cty.NumberIntVal(0).RawEquals(count))
		name, _ := inst.Get("name")
		assert.Equal(t, "zelda", name.AsString(), "unnamed properties keep their value")
	})

	t.Run("unknown property", func(t *testing.T) {
		var nferr *NotFoundError
		require.ErrorAs(t, inst.Reset("nope"), &nferr)
	})

	t.Run("unknown name alongside known ones restores nothing", func(t *testing.T) {
		require.NoError(t, inst.Apply("count", cty.NumberIntVal(7)))

		var nferr *NotFoundError
		require.ErrorAs(t, inst.Reset("count", "nope"), &nferr)

		count, _ := inst.Get("count")
		assert.True(t, cty.NumberIntVal(7).RawEquals(count), "a rejected reset leaves state untouched")
	})

	t.Run("all properties", func(t *testing.T) {
		require.NoError(t, inst.Reset())
		name, _ := inst.Get("name")
		assert.Equal(t, "anon", name.AsString())
	})
}

func TestComputed_MemoizedPerCycle(t *testing.T) {
	f := newFixture(t)
	inst := f.newInstance(t)
	ctx := context.Background()

	require.NoError(t, inst.Apply("count", cty.NumberIntVal(4)))

	first, err := inst.Computed(ctx, "double")
	require.NoError(t, err)
	assert.True(t, cty.NumberIntVal(8).RawEquals(first))

	second, err := inst.Computed(ctx, "double")
	require.NoError(t, err)
	assert.True(t, first.RawEquals(second))
	assert.Equal(t, 1, f.doubleCalls, "second lookup in a cycle must hit the memo")
	assert.Equal(t, 1, inst.Stats().ComputedEvaluated)

	// A new cycle invalidates the memo.
	inst.BeginCycle()
	require.NoError(t, inst.Apply("count", cty.NumberIntVal(5)))
	third, err := inst.Computed(ctx, "double")
	require.NoError(t, err)
	assert.True(t, cty.NumberIntVal(10).RawEquals(third))
	assert.Equal(t, 2, f.doubleCalls)
}

func TestComputed_Unknown(t *testing.T) {
	f := newFixture(t)
	inst := f.newInstance(t)

	_, err := inst.Computed(context.Background(), "nope")
	var nferr *NotFoundError
	require.ErrorAs(t, err, &nferr)
	assert.Equal(t, "computed property", nferr.Kind)
}

func TestCall(t *testing.T) {
	f := newFixture(t)
	inst := f.newInstance(t)
	ctx := context.Background()

	t.Run("mutates through the action context", func(t *testing.T) {
		err := inst.Call(ctx, "bump", map[string]cty.Value{"step": cty.NumberIntVal(3)})
		require.NoError(t, err)

		count, _ := inst.Get("count")
		assert.True(t, cty.NumberIntVal(3).RawEquals(count))
		assert.Equal(t, 1, inst.Stats().CallsRun)
	})

	t.Run("unknown action", func(t *testing.T) {
		err := inst.Call(ctx, "vanish", nil)
		var nferr *NotFoundError
		require.ErrorAs(t, err, &nferr)
		assert.Equal(t, "action", nferr.Kind)
	})

	t.Run("redirect surfaces in the snapshot", func(t *testing.T) {
		require.NoError(t, inst.Call(ctx, "goto", map[string]cty.Value{"target": cty.StringVal("/elsewhere")}))
		snap, err := inst.Snapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, "/elsewhere", snap.Effects.Redirect)
	})
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t)
	inst := f.newInstance(t)
	ctx := context.Background()

	require.NoError(t, inst.Apply("count", cty.NumberIntVal(5)))
	require.NoError(t, inst.Apply("published", cty.StringVal("2025-03-14T09:00:00Z")))

	snap, err := inst.Snapshot(ctx)
	require.NoError(t, err)

	// State is wire form: the datetime capsule lowers back to its string.
	assert.Equal(t, "2025-03-14T09:00:00Z", snap.State["published"].AsString())
	assert.True(t, cty.NumberIntVal(5).RawEquals(snap.State["count"]))

	// Every declared computed value is present.
	assert.True(t, cty.NumberIntVal(10).RawEquals(snap.Computed["double"]))

	// Only the URL-bound, non-default property reaches the query string.
	assert.Equal(t, "c=5", snap.Effects.QueryString)
	assert.Empty(t, snap.Effects.Redirect)

	// Back at the default, the key disappears.
	require.NoError(t, inst.Reset("count"))
	snap, err = inst.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "", snap.Effects.QueryString)
}

func TestBeginCycle_ClearsEffects(t *testing.T) {
	f := newFixture(t)
	inst := f.newInstance(t)

	inst.Redirect("/somewhere")
	inst.BeginCycle()

	snap, err := inst.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Effects.Redirect)
}

func TestErrorKinds(t *testing.T) {
	inner := errors.New("boom")

	var err error = &ConfigurationError{Component: "w", Subject: "property 'x'", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "w")

	err = &ValidationError{Component: "w", Property: "x", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "x")

	err = &NotFoundError{Component: "w", Kind: "property", Name: "x"}
	assert.Contains(t, err.Error(), "property")
}
