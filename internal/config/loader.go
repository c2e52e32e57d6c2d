package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "WIREGRAPH_"

// Load reads defaults, the YAML file at path (skipped when path is empty),
// and environment overrides, then validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := decode(bytes.NewReader(data), cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates. Environment variables
// are not consulted.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	if err := decode(r, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnv overlays WIREGRAPH_* variables.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPrefix + "HISTORY_MAX_SIZE"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%sHISTORY_MAX_SIZE: %w", EnvPrefix, err)
		}
		cfg.History.MaxSize = n
	}
	if v, ok := lookup(EnvPrefix + "LOG_LEVEL"); ok {
		cfg.Log.Level = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup(EnvPrefix + "LOG_FORMAT"); ok {
		cfg.Log.Format = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup(EnvPrefix + "START_TYPE"); ok {
		cfg.Workflow.StartType = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvPrefix + "END_TYPE"); ok {
		cfg.Workflow.EndType = strings.TrimSpace(v)
	}
	return nil
}
