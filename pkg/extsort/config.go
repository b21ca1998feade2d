package extsort

import (
	"fmt"
	"os"

	"github.com/dd0wney/cluso-extsort/pkg/logging"
	"github.com/dd0wney/cluso-extsort/pkg/metrics"
	"github.com/dd0wney/cluso-extsort/pkg/record"
	"github.com/dd0wney/cluso-extsort/pkg/validation"
)

const (
	MiB = 1 << 20

	DefaultMemoryBytes = 64 * MiB
	DefaultBlockBytes  = 16 * MiB
	MaxWorkers         = 256
)

// Config controls one sort invocation.
type Config struct {
	// MemoryBytes is the in-memory budget. It sets the run length of the
	// partition phase and the base chunk length of the first merge pass.
	MemoryBytes int64 `yaml:"memory_bytes" validate:"gt=0,records"`
	// BlockBytes is the unit of every disk transfer and must not exceed
	// MemoryBytes.
	BlockBytes int64 `yaml:"block_bytes" validate:"gt=0,records"`
	// ScratchDir holds the ping-pong file and the input snapshot.
	// Empty means os.TempDir().
	ScratchDir string `yaml:"scratch_dir"`
	// Workers > 1 merges the pairs of one pass concurrently. At most
	// MaxWorkers.
	Workers int `yaml:"workers" validate:"-"`
	// Verify snapshots the input and checks the output against it.
	Verify bool `yaml:"verify"`
	// ExpectedBytes, when non-zero, must equal the input length.
	ExpectedBytes int64 `yaml:"expected_bytes" validate:"gte=0,records"`

	Logger  logging.Logger    `yaml:"-" validate:"-"`
	Metrics *metrics.Registry `yaml:"-" validate:"-"`
}

// DefaultConfig returns the 64 MiB memory / 16 MiB block configuration.
func DefaultConfig() Config {
	return Config{
		MemoryBytes: DefaultMemoryBytes,
		BlockBytes:  DefaultBlockBytes,
		Workers:     1,
	}
}

// Validate checks sizes and paths. Per-field rules come from the struct
// tags; rules between fields and the scratch directory are collected
// together. Failures match ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return configError(err)
	}

	cv := validation.NewConfigValidator("Config").
		MaxInt64("BlockBytes", c.BlockBytes, "MemoryBytes", c.MemoryBytes).
		RangeInt("Workers", c.Workers, 0, MaxWorkers).
		When(c.ScratchDir != "", func(cv *validation.ConfigValidator) {
			cv.Custom("ScratchDir", func() error {
				info, err := os.Stat(c.ScratchDir)
				if err != nil {
					return err
				}
				if !info.IsDir() {
					return fmt.Errorf("%s is not a directory", c.ScratchDir)
				}
				return nil
			})
		})
	if err := cv.Validate(); err != nil {
		return configError(err)
	}
	return nil
}

// MemElems returns the memory budget in records.
func (c *Config) MemElems() int {
	return int(c.MemoryBytes / record.Width)
}

// BlockElems returns the block size in records.
func (c *Config) BlockElems() int {
	return int(c.BlockBytes / record.Width)
}

func (c *Config) scratchDir() string {
	return validation.DefaultOr(c.ScratchDir, os.TempDir())
}

func (c *Config) logger() logging.Logger {
	if c.Logger == nil {
		return logging.DefaultLogger()
	}
	return c.Logger
}

func (c *Config) metrics() *metrics.Registry {
	if c.Metrics == nil {
		return metrics.DefaultRegistry()
	}
	return c.Metrics
}
