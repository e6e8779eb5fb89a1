// Package config loads the geometry and cache tuning parameters for a
// blocktree index from an optional YAML file, grounded on neurodb's
// pkg/config: a struct of defaults, an optional file that overrides them,
// and a normalization pass that clamps anything the file left invalid.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Geometry describes the fixed-width key/value sizes and block substrate
// dimensions an index fixes at construction time.
type Geometry struct {
	KeySize   int `yaml:"key_size"`
	ValueSize int `yaml:"value_size"`
	BlockSize int `yaml:"block_size"`
	NumBlocks int `yaml:"num_blocks"`
}

// CacheTuning configures the ristretto-backed read cache in
// blockcache.Cached.
type CacheTuning struct {
	NumCounters int64 `yaml:"num_counters"`
	MaxCost     int64 `yaml:"max_cost"`
	BufferItems int64 `yaml:"buffer_items"`
}

// Config is the top-level document loaded from YAML.
type Config struct {
	Geometry Geometry    `yaml:"geometry"`
	Cache    CacheTuning `yaml:"cache"`
}

func defaults() *Config {
	return &Config{
		Geometry: Geometry{
			KeySize:   8,
			ValueSize: 8,
			BlockSize: 4096,
			NumBlocks: 1024,
		},
		Cache: CacheTuning{
			NumCounters: 1e6,
			MaxCost:     1 << 26, // 64 MiB of cached block bytes
			BufferItems: 64,
		},
	}
}

// Load reads configPath and overlays it onto the defaults. An empty
// configPath searches the same fallback locations neurodb's Load does for
// its own config file, then falls back to defaults with no error if none
// is found. A configPath that is explicitly provided but missing is an
// error.
func Load(configPath string) (*Config, error) {
	cfg := defaults()

	if configPath == "" {
		for _, p := range []string{"configs/blocktree.yaml", "blocktree.yaml"} {
			data, err := os.ReadFile(p)
			if err != nil {
				continue
			}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return cfg, err
			}
			applyDefaults(cfg)
			return cfg, nil
		}
		applyDefaults(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	d := defaults()
	if cfg.Geometry.KeySize <= 0 {
		cfg.Geometry.KeySize = d.Geometry.KeySize
	}
	if cfg.Geometry.ValueSize <= 0 {
		cfg.Geometry.ValueSize = d.Geometry.ValueSize
	}
	if cfg.Geometry.BlockSize <= 0 {
		cfg.Geometry.BlockSize = d.Geometry.BlockSize
	}
	if cfg.Geometry.NumBlocks <= 0 {
		cfg.Geometry.NumBlocks = d.Geometry.NumBlocks
	}
	if cfg.Cache.NumCounters <= 0 {
		cfg.Cache.NumCounters = d.Cache.NumCounters
	}
	if cfg.Cache.MaxCost <= 0 {
		cfg.Cache.MaxCost = d.Cache.MaxCost
	}
	if cfg.Cache.BufferItems <= 0 {
		cfg.Cache.BufferItems = d.Cache.BufferItems
	}
}
