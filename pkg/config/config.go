// Package config loads sort settings from an optional YAML file and the
// environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-extsort/pkg/extsort"
	"github.com/dd0wney/cluso-extsort/pkg/logging"
)

// Environment overrides, applied after the file.
const (
	EnvScratchDir = "EXTSORT_SCRATCH_DIR"
	EnvWorkers    = "EXTSORT_WORKERS"
	EnvLogLevel   = "LOG_LEVEL"
)

// File is the on-disk configuration.
//
//	sort:
//	  memory_bytes: 67108864
//	  block_bytes: 16777216
//	  scratch_dir: /var/tmp
//	  workers: 4
//	  verify: true
//	log_level: debug
//	metrics_file: /var/lib/node_exporter/extsort.prom
type File struct {
	Sort        extsort.Config `yaml:"sort"`
	LogLevel    string         `yaml:"log_level"`
	MetricsFile string         `yaml:"metrics_file"`
}

// Level returns the parsed log level.
func (f *File) Level() logging.Level {
	return logging.ParseLevel(f.LogLevel)
}

// Default returns the built-in configuration. Unlike extsort.DefaultConfig
// it verifies every sort; set verify: false to keep memory bounded.
func Default() *File {
	cfg := &File{
		Sort:     extsort.DefaultConfig(),
		LogLevel: "info",
	}
	cfg.Sort.Verify = true
	return cfg
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*File, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Sort.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *File) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *File) error {
	if v, ok := os.LookupEnv(EnvScratchDir); ok {
		cfg.Sort.ScratchDir = v
	}
	if v, ok := os.LookupEnv(EnvWorkers); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		cfg.Sort.Workers = n
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		cfg.LogLevel = v
	}
	return nil
}
