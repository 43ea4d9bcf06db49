package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ManifestsPath  string // component manifest files
	ManifestFormat string // "hcl" or "yaml"

	ListenAddr string
	LogFormat  string
	LogLevel   string
	Watch      bool
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ManifestsPath == "" {
		return nil, errors.New("ManifestsPath is a required configuration field and cannot be empty")
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8089"
	}
	if cfg.ManifestFormat == "" {
		cfg.ManifestFormat = "hcl"
	}

	return &cfg, nil
}
