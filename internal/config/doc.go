// Package config defines the format-agnostic model for component
// declarations.
//
// Component manifests can be written in more than one format (HCL is the
// primary one, YAML is supported as an alternative). Each format has its own
// adapter package that parses source files and translates them into the
// model defined here. The rest of the application only ever sees this model,
// never the raw manifest syntax.
package config
