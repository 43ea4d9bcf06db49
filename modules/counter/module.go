// Package counter is the minimal demo component: one number property, one
// derived value, one action.
package counter

import (
	"context"
	"reflect"

	"github.com/vk/wirestate/internal/engine"
	"github.com/vk/wirestate/internal/registry"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// DoubleInput carries the property values for the 'double' derivation.
type DoubleInput struct {
	Count int `wire:"count"`
}

// ComputeDouble is the handler for the 'double' computed property.
func ComputeDouble(ctx context.Context, input *DoubleInput) (int, error) {
	return input.Count * 2, nil
}

// IncrementInput defines the arguments for the 'increment' action.
type IncrementInput struct {
	Step int `wire:"step"`
}

// OnIncrement is the handler for the 'increment' action. A zero or missing
// step increments by one.
func OnIncrement(ctx context.Context, c *engine.Ctx, input *IncrementInput) error {
	current, err := c.Get("count")
	if err != nil {
		return err
	}

	var count int
	if !current.IsNull() {
		if err := gocty.FromCtyValue(current, &count); err != nil {
			return err
		}
	}

	step := 1
	if input != nil && input.Step != 0 {
		step = input.Step
	}

	return c.Set("count", cty.NumberIntVal(int64(count+step)))
}

// Register registers the handlers with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterComputed("ComputeDouble", &registry.RegisteredComputed{
		NewInput:  func() any { return new(DoubleInput) },
		InputType: reflect.TypeOf(DoubleInput{}),
		Fn:        ComputeDouble,
	})
	r.RegisterAction("OnIncrement", &registry.RegisteredAction{
		NewInput:  func() any { return new(IncrementInput) },
		InputType: reflect.TypeOf(IncrementInput{}),
		Fn:        OnIncrement,
	})
}
