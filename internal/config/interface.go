package config

import "context"

// Loader abstracts the loading of component manifests from a specific file
// format into the unified model.
type Loader interface {
	// Load discovers manifest files under the given paths, parses them, and
	// returns the merged model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
