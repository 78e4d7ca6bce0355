// Package pipeline models a configurable instruction pipeline for
// throughput and hazard analysis. The model is purely statistical: it
// observes instruction words and addresses, never architectural state, so
// it can be driven alongside any functional engine.
package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
)

// StageKind names the modeled behavior of one pipeline stage.
type StageKind string

// Stage kinds. Custom stages occupy a slot and add latency through
// occupancy but model no work of their own.
const (
	StageFetch     StageKind = "fetch"
	StageDecode    StageKind = "decode"
	StageExecute   StageKind = "execute"
	StageMemory    StageKind = "memory"
	StageWriteback StageKind = "writeback"
	StageCustom    StageKind = "custom"
)

func (k StageKind) valid() bool {
	switch k {
	case StageFetch, StageDecode, StageExecute, StageMemory,
		StageWriteback, StageCustom:
		return true
	}
	return false
}

// Pipeline depth bounds.
const (
	MinDepth = 1
	MaxDepth = 8
)

// CacheConfig holds the parameters of one modeled cache.
type CacheConfig struct {
	// Enabled selects cache modeling. A disabled cache charges the flat
	// memory latency and keeps no hit/miss counters.
	Enabled bool `json:"enabled"`

	// Size in bytes.
	Size int `json:"size"`

	// LineSize in bytes.
	LineSize int `json:"line_size"`

	// Associativity (number of ways).
	Associativity int `json:"associativity"`

	// HitLatency in cycles.
	HitLatency uint64 `json:"hit_latency"`

	// MissPenalty in cycles.
	MissPenalty uint64 `json:"miss_penalty"`
}

// Config describes one pipeline shape. It is supplied once per run;
// changing it requires an explicit Configure, which clears the pipeline.
type Config struct {
	// Name labels the configuration in reports.
	Name string `json:"name"`

	// Stages is the ordered stage list. Its length must equal Depth.
	Stages []StageKind `json:"stages"`

	// Depth is the number of stages, 1 through 8.
	Depth int `json:"depth"`

	// ForwardingEnabled suppresses data-hazard stalls when set.
	ForwardingEnabled bool `json:"forwarding_enabled"`

	// BranchPredictionEnabled runs branches through a predictor and
	// charges the branch penalty only on mispredictions. When clear,
	// every branch charges the penalty.
	BranchPredictionEnabled bool `json:"branch_prediction_enabled"`

	// OutOfOrderExecution only widens the theoretical IPC ceiling used
	// for the efficiency ratio; issue stays in order.
	OutOfOrderExecution bool `json:"out_of_order_execution"`

	// ClockFrequency in MHz, for report output.
	ClockFrequency uint32 `json:"clock_frequency"`

	// MemoryLatency in cycles, charged per access when a cache is
	// disabled.
	MemoryLatency uint64 `json:"memory_latency"`

	// BranchPenalty in cycles.
	BranchPenalty uint64 `json:"branch_penalty"`

	// ICache is the instruction cache, consulted at fetch.
	ICache CacheConfig `json:"icache"`

	// DCache is the data cache, consulted at the memory stage.
	DCache CacheConfig `json:"dcache"`

	// UseDetailedCaches replaces the fixed-rate hit classifier with real
	// tag/index/LRU cache models.
	UseDetailedCaches bool `json:"use_detailed_caches"`
}

// DefaultConfig returns the classic five-stage in-order pipeline with
// forwarding on and both caches enabled.
func DefaultConfig() *Config {
	return &Config{
		Name: "Default 5-Stage Pipeline",
		Stages: []StageKind{
			StageFetch, StageDecode, StageExecute, StageMemory, StageWriteback,
		},
		Depth:                   5,
		ForwardingEnabled:       true,
		BranchPredictionEnabled: false,
		OutOfOrderExecution:     false,
		ClockFrequency:          100,
		MemoryLatency:           1,
		BranchPenalty:           2,
		ICache: CacheConfig{
			Enabled:       true,
			Size:          4096,
			LineSize:      32,
			Associativity: 1,
			HitLatency:    1,
			MissPenalty:   10,
		},
		DCache: CacheConfig{
			Enabled:       true,
			Size:          4096,
			LineSize:      32,
			Associativity: 1,
			HitLatency:    1,
			MissPenalty:   10,
		},
	}
}

// LoadConfig loads a Config from a JSON file. Missing fields keep their
// default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline config: %w", err)
	}

	return config, nil
}

// SaveConfig writes the Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize pipeline config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write pipeline config file: %w", err)
	}

	return nil
}

// Validate checks depth bounds, the stage list, and cache geometry.
func (c *Config) Validate() error {
	if c.Depth < MinDepth || c.Depth > MaxDepth {
		return fmt.Errorf("depth must be %d through %d, got %d",
			MinDepth, MaxDepth, c.Depth)
	}
	if len(c.Stages) != c.Depth {
		return fmt.Errorf("stage list has %d entries for depth %d",
			len(c.Stages), c.Depth)
	}
	for i, kind := range c.Stages {
		if !kind.valid() {
			return fmt.Errorf("stage %d: unknown kind %q", i, kind)
		}
	}
	if c.ClockFrequency == 0 {
		return fmt.Errorf("clock_frequency must be > 0")
	}
	if err := c.ICache.validate("icache"); err != nil {
		return err
	}
	if err := c.DCache.validate("dcache"); err != nil {
		return err
	}
	return nil
}

func (cc *CacheConfig) validate(name string) error {
	if !cc.Enabled {
		return nil
	}
	if cc.Size <= 0 {
		return fmt.Errorf("%s: size must be > 0", name)
	}
	if cc.LineSize <= 0 {
		return fmt.Errorf("%s: line_size must be > 0", name)
	}
	if cc.Associativity <= 0 {
		return fmt.Errorf("%s: associativity must be > 0", name)
	}
	if cc.Size < cc.LineSize*cc.Associativity {
		return fmt.Errorf("%s: size %d too small for %d ways of %d-byte lines",
			name, cc.Size, cc.Associativity, cc.LineSize)
	}
	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Stages = make([]StageKind, len(c.Stages))
	copy(clone.Stages, c.Stages)
	return &clone
}
