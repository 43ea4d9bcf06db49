package engine

import (
	"context"
	"fmt"
	"reflect"

	"github.com/vk/wirestate/internal/convert"
	"github.com/vk/wirestate/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// Ctx is the mutable view of an instance handed to action handlers. It is
// valid only for the duration of the handler call.
type Ctx struct {
	in *Instance
}

// Set applies a wire value to a property, through its cast if one is
// declared.
func (c *Ctx) Set(name string, wire cty.Value) error {
	return c.in.Apply(name, wire)
}

// Get returns a property's current rich value.
func (c *Ctx) Get(name string) (cty.Value, error) {
	return c.in.Get(name)
}

// Computed returns a derived value, memoized for the current cycle.
func (c *Ctx) Computed(ctx context.Context, name string) (cty.Value, error) {
	return c.in.Computed(ctx, name)
}

// Reset restores the named properties, or all of them, to their initial
// values.
func (c *Ctx) Reset(names ...string) error {
	return c.in.Reset(names...)
}

// Redirect queues a client redirect for the current cycle's snapshot.
func (c *Ctx) Redirect(url string) {
	c.in.Redirect(url)
}

// Call runs a client-invoked action against the instance. Arguments arrive
// in wire form and are decoded into the handler's input struct.
func (in *Instance) Call(ctx context.Context, name string, args map[string]cty.Value) error {
	act, ok := in.def.Actions[name]
	if !ok {
		return &NotFoundError{Component: in.def.Name, Kind: "action", Name: name}
	}

	handler, ok := in.reg.Action(act.Handler)
	if !ok {
		return &ConfigurationError{Component: in.def.Name, Subject: "action '" + name + "'", Err: fmt.Errorf("handler '%s' not registered", act.Handler)}
	}

	logger := ctxlog.FromContext(ctx).With("component", in.def.Name, "action", name)
	logger.Debug("Calling action handler.", "handler", act.Handler)

	var input any
	if handler.NewInput != nil {
		input = handler.NewInput()
		if err := convert.DecodeObject(ctx, args, input); err != nil {
			return &ValidationError{Component: in.def.Name, Property: name, Err: err}
		}
	}

	fnVal := reflect.ValueOf(handler.Fn)
	callArgs := []reflect.Value{reflect.ValueOf(ctx), reflect.ValueOf(&Ctx{in: in})}
	if input == nil {
		callArgs = append(callArgs, reflect.Zero(fnVal.Type().In(2)))
	} else {
		callArgs = append(callArgs, reflect.ValueOf(input))
	}

	results := fnVal.Call(callArgs)
	if errResult := results[0].Interface(); errResult != nil {
		return fmt.Errorf("action '%s' failed: %w", name, errResult.(error))
	}

	in.stats.CallsRun++
	return nil
}
