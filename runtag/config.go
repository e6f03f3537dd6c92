// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package runtag

import (
	"os"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultChunkSizes is the set of chunk sizes the chunked
// implementations are swept over.
var DefaultChunkSizes = []int{16, 32, 64, 256, 1024, 4096}

// A Config holds the naming conventions a Decoder applies. A Config
// is passed explicitly to every decoder, so runs with different
// conventions can be decoded side by side.
type Config struct {
	// RuntimePrefix is the tag prefix identifying the data-parallel
	// runtime variant.
	RuntimePrefix string `yaml:"runtime_prefix"`

	// RuntimeImplementation is the implementation name recorded for
	// runtime-variant runs. If empty, RuntimePrefix is used.
	RuntimeImplementation string `yaml:"runtime_implementation"`

	// ChunkSizes is the tracked set of chunk sizes. Runs of the
	// chunk-size agnostic runtime variant are replicated across all
	// of them.
	ChunkSizes []int `yaml:"chunk_sizes"`

	// Boards maps raw board identifiers, as found in config names
	// and log directories, to logical board names. Several raw
	// identifiers may map to one board, for example two machines of
	// the same model. Unmapped identifiers are used as is.
	Boards map[string]string `yaml:"boards"`

	// Implementations maps raw implementation names to display
	// names. Unmapped names are used as is.
	Implementations map[string]string `yaml:"implementations"`
}

// DefaultConfig returns the conventions used by the benchmark job
// scripts.
func DefaultConfig() *Config {
	return &Config{
		RuntimePrefix:         "openmp",
		RuntimeImplementation: "openmp",
		ChunkSizes:            append([]int(nil), DefaultChunkSizes...),
	}
}

// LoadConfig reads a YAML configuration file. Fields missing from the
// file take their DefaultConfig values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading naming config")
	}
	return ParseConfig(data)
}

// ParseConfig parses a YAML configuration. Fields missing from data
// take their DefaultConfig values.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parsing naming config")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.RuntimePrefix == "" {
		return errors.New("naming config: runtime_prefix must not be empty")
	}
	if len(c.ChunkSizes) == 0 {
		return errors.New("naming config: chunk_sizes must not be empty")
	}
	seen := make(map[int]bool)
	for _, cs := range c.ChunkSizes {
		if cs <= 0 {
			return errors.Errorf("naming config: chunk size %d is not positive", cs)
		}
		if seen[cs] {
			return errors.Errorf("naming config: chunk size %d listed twice", cs)
		}
		seen[cs] = true
	}
	sort.Ints(c.ChunkSizes)
	return nil
}

// Board returns the logical board name for a raw identifier.
func (c *Config) Board(raw string) string {
	if name, ok := c.Boards[raw]; ok {
		return name
	}
	return raw
}

// Implementation returns the display name of a raw implementation name.
func (c *Config) Implementation(raw string) string {
	if name, ok := c.Implementations[raw]; ok {
		return name
	}
	return raw
}

// RuntimeName returns the display name recorded for runtime-variant
// runs.
func (c *Config) RuntimeName() string {
	return c.Implementation(c.runtimeImplementation())
}

func (c *Config) runtimeImplementation() string {
	if c.RuntimeImplementation != "" {
		return c.RuntimeImplementation
	}
	return c.RuntimePrefix
}
