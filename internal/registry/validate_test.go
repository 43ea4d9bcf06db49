package registry

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/wirestate/internal/config"
	"github.com/zclconf/go-cty/cty"
)

type widgetInput struct {
	Count int    `wire:"count"`
	Label string `wire:"label"`
}

func widgetModel() *config.Model {
	return &config.Model{
		Components: map[string]*config.ComponentDefinition{
			"widget": {
				Name: "widget",
				Properties: map[string]*config.PropertyDefinition{
					"count": {Name: "count", Type: cty.Number},
					"label": {Name: "label", Type: cty.String},
				},
				Computed: map[string]*config.ComputedDefinition{
					"summary": {Name: "summary", Handler: "Summarize"},
				},
				Actions: map[string]*config.ActionDefinition{
					"clear": {Name: "clear", Handler: "OnClear"},
				},
			},
		},
	}
}

func registerWidgetHandlers(r *Registry) {
	r.RegisterComputed("Summarize", &RegisteredComputed{
		NewInput:  func() any { return new(widgetInput) },
		InputType: reflect.TypeOf(widgetInput{}),
		Fn:        func(ctx context.Context, in *widgetInput) (string, error) { return "", nil },
	})
	r.RegisterAction("OnClear", &RegisteredAction{
		Fn: func(ctx context.Context, c any, in *struct{}) error { return nil },
	})
}

func TestValidate_Passes(t *testing.T) {
	r := New()
	registerWidgetHandlers(r)
	r.PopulateDefinitionsFromModel(widgetModel())

	assert.NoError(t, r.Validate(context.Background()))
}

func TestValidate_UnregisteredComputedHandler(t *testing.T) {
	r := New()
	r.RegisterAction("OnClear", &RegisteredAction{
		Fn: func(ctx context.Context, c any, in *struct{}) error { return nil },
	})
	r.PopulateDefinitionsFromModel(widgetModel())

	err := r.Validate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unregistered handler 'Summarize'")
}

func TestValidate_UnregisteredCast(t *testing.T) {
	r := New()
	registerWidgetHandlers(r)
	model := widgetModel()
	model.Components["widget"].Properties["count"].Cast = "no-such-cast"
	r.PopulateDefinitionsFromModel(model)

	err := r.Validate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unregistered cast 'no-such-cast'")
}

func TestValidate_UndeclaredPropertyInInput(t *testing.T) {
	r := New()
	registerWidgetHandlers(r)
	model := widgetModel()
	delete(model.Components["widget"].Properties, "label")
	r.PopulateDefinitionsFromModel(model)

	err := r.Validate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'label'")
	assert.Contains(t, err.Error(), "not declared in the manifest")
}

func TestValidate_TypeMismatch(t *testing.T) {
	r := New()
	registerWidgetHandlers(r)
	model := widgetModel()
	model.Components["widget"].Properties["count"].Type = cty.String
	r.PopulateDefinitionsFromModel(model)

	err := r.Validate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type mismatch")
}

func TestValidate_CastBackedPropertySkipsTypeCheck(t *testing.T) {
	r := New()
	registerWidgetHandlers(r)
	model := widgetModel()
	// The cast owns the rich type the field receives, so the static check
	// does not apply even when the declared wire type and the Go field
	// type disagree.
	model.Components["widget"].Properties["count"].Type = cty.String
	model.Components["widget"].Properties["count"].Cast = "integer"
	r.PopulateDefinitionsFromModel(model)

	assert.NoError(t, r.Validate(context.Background()))
}

func TestValidateModel_DoesNotSwap(t *testing.T) {
	r := New()
	registerWidgetHandlers(r)
	r.PopulateDefinitionsFromModel(widgetModel())

	broken := widgetModel()
	broken.Components["widget"].Computed["summary"].Handler = "Missing"
	require.Error(t, r.ValidateModel(context.Background(), broken))

	// The live definitions still validate.
	assert.NoError(t, r.Validate(context.Background()))
}

func TestRegisterComputed_DuplicatePanics(t *testing.T) {
	r := New()
	registerWidgetHandlers(r)
	assert.Panics(t, func() { registerWidgetHandlers(r) })
}

func TestReplaceDefinitions(t *testing.T) {
	r := New()
	registerWidgetHandlers(r)
	r.PopulateDefinitionsFromModel(widgetModel())

	fresh := widgetModel()
	fresh.Components["gadget"] = &config.ComponentDefinition{Name: "gadget"}
	r.ReplaceDefinitions(fresh)

	_, ok := r.Definition("gadget")
	assert.True(t, ok)
	assert.Len(t, r.Definitions(), 2)
}
