// Package hcladapter is the HCL implementation of the config.Loader
// interface: it discovers .hcl manifest files, decodes their component
// blocks, and translates them into the format-agnostic model.
package hcladapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/wirestate/internal/config"
	"github.com/vk/wirestate/internal/ctxlog"
	"github.com/vk/wirestate/internal/fsutil"
	"github.com/vk/wirestate/internal/schema"
)

// Loader loads HCL component manifests.
type Loader struct{}

// NewLoader creates a new HCL manifest loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot decodes all recognized top-level blocks from a manifest file.
type fileRoot struct {
	Components []*schema.Component `hcl:"component,block"`
	Remain     hcl.Body            `hcl:",remain"`
}

// Load discovers and parses every .hcl file under the given paths and merges
// the declared components into one model. A component declared twice is a
// manifest error.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFilesByExtension(".hcl", paths...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL manifest files.", "count", len(files))

	model := &config.Model{Components: make(map[string]*config.ComponentDefinition)}
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
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

	logger.Debug("HCL loading complete.", "components", len(model.Components))
	return model, nil
}
