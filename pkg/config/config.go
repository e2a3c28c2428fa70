// Package config holds the run-generation configuration and its JSON
// file representation.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rotaki/runsort/pkg/runfile"
	"github.com/rotaki/runsort/pkg/sortio"
)

const (
	// DefaultHeapCapacity is the default maximum number of resident
	// records. At 100 bytes per record this bounds the heap near 1GB.
	DefaultHeapCapacity = 10_000_000

	// DefaultRunPrefix is the default run file name prefix.
	DefaultRunPrefix = "run"
)

// ErrInvalidConfig is returned when a configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config controls one run-generation pass.
type Config struct {
	// HeapCapacity is the maximum number of records resident in the
	// selection heap. Memory use is bounded by HeapCapacity fixed-size
	// records regardless of input length.
	HeapCapacity int `json:"heap_capacity"`

	// RunPrefix names run files <RunPrefix>_<NNN>.bin.
	RunPrefix string `json:"run_prefix"`

	// OutputDir is the directory run files are written to.
	// Empty means the current directory.
	OutputDir string `json:"output_dir"`

	// BlockSize is the alignment unit for run file writes.
	BlockSize int `json:"block_size"`

	// DirectIO requests unbuffered run file writes where the platform
	// supports them.
	DirectIO bool `json:"direct_io"`

	// InputCodec names the compression applied to the input stream:
	// "none", "zstd" or "snappy".
	InputCodec string `json:"input_codec"`
}

// NewDefaultConfig returns a Config with recommended defaults.
func NewDefaultConfig() *Config {
	return &Config{
		HeapCapacity: DefaultHeapCapacity,
		RunPrefix:    DefaultRunPrefix,
		BlockSize:    runfile.DefaultBlockSize,
		InputCodec:   string(sortio.CodecNone),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.HeapCapacity <= 0 {
		return fmt.Errorf("%w: heap capacity must be positive, got %d", ErrInvalidConfig, c.HeapCapacity)
	}
	if c.RunPrefix == "" {
		return fmt.Errorf("%w: run prefix not specified", ErrInvalidConfig)
	}
	if c.BlockSize <= 0 || c.BlockSize&(c.BlockSize-1) != 0 {
		return fmt.Errorf("%w: block size must be a positive power of two, got %d", ErrInvalidConfig, c.BlockSize)
	}
	if _, err := sortio.ParseCodec(c.InputCodec); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Codec returns the parsed input codec. Validate must have succeeded.
func (c *Config) Codec() sortio.Codec {
	codec, err := sortio.ParseCodec(c.InputCodec)
	if err != nil {
		return sortio.CodecNone
	}
	return codec
}

// LoadConfig reads and validates a configuration from a JSON file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := NewDefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a JSON file, replacing it atomically.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename config file: %w", err)
	}
	return nil
}
