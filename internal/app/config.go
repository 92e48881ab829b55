package app

import (
	"errors"
	"fmt"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	WorkflowPath string   // .hcl, .yaml, .yml or .json
	InputPaths   []string // input PDFs, in order
	OutputPath   string   // directory, or a .zip file
	Zip          bool     // bundle several outputs into one archive

	Timeout time.Duration // whole run; 0 disables
	Workers int           // concurrent operations; 0 uses the number of CPUs

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	ServiceURL  string // PDF service for the remote operations
	ProgressURL string // socket.io server for progress events

	ValidateOnly bool // load, compile and check the workflow, then stop
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.WorkflowPath == "" {
		return nil, errors.New("WorkflowPath is a required configuration field and cannot be empty")
	}
	if len(cfg.InputPaths) == 0 && !cfg.ValidateOnly {
		return nil, errors.New("at least one input document is required")
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout cannot be negative, got %s", cfg.Timeout)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("workers cannot be negative, got %d", cfg.Workers)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("healthcheck port out of range: %d", cfg.HealthcheckPort)
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	if cfg.OutputPath == "" {
		cfg.OutputPath = "out"
	}
	return &cfg, nil
}
