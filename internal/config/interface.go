package config

import "context"

// Loader is the interface for a format-specific model loader.
type Loader interface {
	// Load reads every model file under the given paths and merges them
	// into one format-agnostic Model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}
