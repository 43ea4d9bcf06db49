package engine

import (
	"context"
	"fmt"
	"reflect"

	"github.com/vk/wirestate/internal/convert"
	"github.com/vk/wirestate/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// Computed returns a derived value, invoking its registered derivation at
// most once per cycle. Repeated lookups within the same cycle hit the memo
// cache.
func (in *Instance) Computed(ctx context.Context, name string) (cty.Value, error) {
	comp, ok := in.def.Computed[name]
	if !ok {
		return cty.NilVal, &NotFoundError{Component: in.def.Name, Kind: "computed property", Name: name}
	}

	if val, ok := in.memo[name]; ok {
		return val, nil
	}

	handler, ok := in.reg.Computed(comp.Handler)
	if !ok {
		// Startup validation makes this unreachable for loaded manifests.
		return cty.NilVal, &ConfigurationError{Component: in.def.Name, Subject: "computed '" + name + "'", Err: fmt.Errorf("handler '%s' not registered", comp.Handler)}
	}

	logger := ctxlog.FromContext(ctx).With("component", in.def.Name, "computed", name)
	logger.Debug("Evaluating computed property.", "handler", comp.Handler)

	var input any
	if handler.NewInput != nil {
		input = handler.NewInput()
		if err := convert.DecodeObject(ctx, in.values, input); err != nil {
			return cty.NilVal, &ConfigurationError{Component: in.def.Name, Subject: "computed '" + name + "'", Err: err}
		}
	}

	out, err := callHandler(ctx, handler.Fn, input)
	if err != nil {
		return cty.NilVal, fmt.Errorf("computed '%s' failed: %w", name, err)
	}

	val, err := convert.ToCtyValue(out)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to convert computed '%s' result: %w", name, err)
	}

	in.memo[name] = val
	in.stats.ComputedEvaluated++
	return val, nil
}

// callHandler invokes a registered derivation of the form
// func(ctx, *Input) (Out, error) through reflection.
func callHandler(ctx context.Context, fn any, input any) (any, error) {
	fnVal := reflect.ValueOf(fn)
	args := []reflect.Value{reflect.ValueOf(ctx)}

	if input == nil {
		args = append(args, reflect.Zero(fnVal.Type().In(1)))
	} else {
		args = append(args, reflect.ValueOf(input))
	}

	results := fnVal.Call(args)
	out, errResult := results[0].Interface(), results[1].Interface()
	if errResult != nil {
		return nil, errResult.(error)
	}
	return out, nil
}
