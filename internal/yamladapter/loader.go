// Package yamladapter is the YAML implementation of the config.Loader
// interface. It accepts the same component declarations as the HCL adapter
// in YAML form, with type expressions written as plain strings.
package yamladapter

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/vk/wirestate/internal/config"
	"github.com/vk/wirestate/internal/convert"
	"github.com/vk/wirestate/internal/ctxlog"
	"github.com/vk/wirestate/internal/fsutil"
	"github.com/vk/wirestate/internal/typeexpr"
	"gopkg.in/yaml.v3"
)

// Loader loads YAML component manifests.
type Loader struct{}

// NewLoader creates a new YAML manifest loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot mirrors the top level of a YAML manifest file.
type fileRoot struct {
	Components []*componentDoc `yaml:"components"`
}

type componentDoc struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Properties  []*propertyDoc `yaml:"properties"`
	Computed    []*handlerDoc  `yaml:"computed"`
	Actions     []*handlerDoc  `yaml:"actions"`
}

type propertyDoc struct {
	Name        string  `yaml:"name"`
	Type        string  `yaml:"type"`
	Description string  `yaml:"description"`
	Default     any     `yaml:"default"`
	Cast        string  `yaml:"cast"`
	Live        bool    `yaml:"live"`
	Debounce    string  `yaml:"debounce"`
	URL         *urlDoc `yaml:"url"`
}

type urlDoc struct {
	As     string `yaml:"as"`
	Except any    `yaml:"except"`
}

type handlerDoc struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Handler     string `yaml:"handler"`
}

// Load discovers and parses every .yaml and .yml file under the given paths
// and merges the declared components into one model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "path_count", len(paths))

	var files []string
	for _, ext := range []string{".yaml", ".yml"} {
		found, err := fsutil.FindFilesByExtension(ext, paths...)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	logger.Debug("Discovered YAML manifest files.", "count", len(files))

	model := &config.Model{Components: make(map[string]*config.ComponentDefinition)}

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read manifest: %w", err)
		}

		var root fileRoot
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("parse manifest %s: %w", file, err)
		}

		for _, comp := range root.Components {
			def, err := translateComponent(comp)
			if err != nil {
				return nil, fmt.Errorf("in %s: %w", file, err)
			}
			if _, exists := model.Components[def.Name]; exists {
				return nil, fmt.Errorf("in %s: component '%s' declared more than once", file, def.Name)
			}
			model.Components[def.Name] = def
		}
	}

	logger.Debug("YAML loading complete.", "components", len(model.Components))
	return model, nil
}

func translateComponent(comp *componentDoc) (*config.ComponentDefinition, error) {
	def := &config.ComponentDefinition{
		Name:        comp.Name,
		Description: comp.Description,
		Properties:  make(map[string]*config.PropertyDefinition, len(comp.Properties)),
		Computed:    make(map[string]*config.ComputedDefinition, len(comp.Computed)),
		Actions:     make(map[string]*config.ActionDefinition, len(comp.Actions)),
	}

	for _, prop := range comp.Properties {
		translated, err := translateProperty(prop, comp.Name)
		if err != nil {
			return nil, err
		}
		def.Properties[prop.Name] = translated
	}

	for _, derived := range comp.Computed {
		def.Computed[derived.Name] = &config.ComputedDefinition{
			Name:        derived.Name,
			Description: derived.Description,
			Handler:     derived.Handler,
		}
	}

	for _, act := range comp.Actions {
		def.Actions[act.Name] = &config.ActionDefinition{
			Name:        act.Name,
			Description: act.Description,
			Handler:     act.Handler,
		}
	}

	return def, nil
}

func translateProperty(prop *propertyDoc, component string) (*config.PropertyDefinition, error) {
	typeSrc := prop.Type
	if typeSrc == "" {
		typeSrc = "any"
	}
	parsedType, err := typeexpr.ParseString(typeSrc)
	if err != nil {
		return nil, fmt.Errorf("component '%s', property '%s': %w", component, prop.Name, err)
	}

	out := &config.PropertyDefinition{
		Name:        prop.Name,
		Type:        parsedType,
		Description: prop.Description,
		Cast:        prop.Cast,
		Live:        prop.Live,
	}

	if prop.Default != nil {
		val, err := convert.FromNative(prop.Default)
		if err != nil {
			return nil, fmt.Errorf("invalid default for property '%s' in component '%s': %w", prop.Name, component, err)
		}
		out.Default = &val
	}

	if prop.Debounce != "" {
		d, err := time.ParseDuration(prop.Debounce)
		if err != nil {
			return nil, fmt.Errorf("component '%s', property '%s': invalid debounce: %w", component, prop.Name, err)
		}
		out.Debounce = d
	}

	if prop.URL != nil {
		binding := &config.URLBinding{Key: prop.URL.As}
		if binding.Key == "" {
			binding.Key = prop.Name
		}
		if prop.URL.Except != nil {
			val, err := convert.FromNative(prop.URL.Except)
			if err != nil {
				return nil, fmt.Errorf("invalid url except for property '%s' in component '%s': %w", prop.Name, component, err)
			}
			binding.Except = &val
		}
		out.URL = binding
	}

	return out, nil
}
