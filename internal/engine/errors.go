package engine

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// ConfigurationError reports an invalid component declaration: a default of
// a non-wire-safe type, an unregistered cast or handler, or a value the
// declared cast cannot lower at serialization time. These are fatal at
// startup.
type ConfigurationError struct {
	Component string
	Subject   string
	Err       error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("component '%s': invalid configuration for %s: %v", e.Component, e.Subject, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ValidationError reports an inbound value that fails the property's type or
// cast constraints. The instance's state is unchanged when one is returned.
type ValidationError struct {
	Component string
	Property  string
	Err       error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("component '%s': invalid value for property '%s': %v", e.Component, e.Property, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NotFoundError reports a reference to a property, computed value, or action
// the component does not declare.
type NotFoundError struct {
	Component string
	Kind      string
	Name      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("component '%s': no %s named '%s'", e.Component, e.Kind, e.Name)
}

func errNotWireSafe(v cty.Value) error {
	return fmt.Errorf("value of type %s is not a permitted wire kind", v.Type().FriendlyName())
}

func errUnknownCast(name string) error {
	return fmt.Errorf("cast '%s' is not registered", name)
}
