package config

import (
	"errors"
	"fmt"
	"os"
)

// Overrides carries command-line values that win over the file. Zero fields
// leave the file value in place.
type Overrides struct {
	Port     int
	Channels int
}

func (o Overrides) applyTo(cfg *Config) {
	if o.Port != 0 {
		cfg.Server.Port = o.Port
	}
	if o.Channels != 0 {
		cfg.TV.Channels = o.Channels
	}
}

// Loaded is the effective configuration and where it came from.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Load reads the file at the resolved path (defaults when it is missing),
// applies overrides, then validates the merged result once.
func Load(explicitPath string, overrides Overrides) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	loaded := Loaded{Path: resolvedPath, Exists: true}
	content, err := os.ReadFile(resolvedPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		loaded.Exists = false
		loaded.Warnings = append(loaded.Warnings, Warning{
			Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
		})
	case err != nil:
		return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
	}

	cfg, decodeWarnings, err := decode(string(content), Default())
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, err)
	}
	overrides.applyTo(&cfg)

	cfg, warnings, err := validated(cfg, decodeWarnings)
	if err != nil {
		if loaded.Exists {
			return Loaded{}, fmt.Errorf("config %q: %w", resolvedPath, err)
		}
		return Loaded{}, err
	}

	loaded.Config = cfg
	loaded.Warnings = append(loaded.Warnings, warnings...)
	return loaded, nil
}
