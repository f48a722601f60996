// Package config loads settings of the formula engine, its cache and the HTTP server
// from TOML or YAML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lunfardo314/widgetfl/formula"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Engine Engine `toml:"engine" yaml:"engine"`
	Cache  Cache  `toml:"cache" yaml:"cache"`
	Server Server `toml:"server" yaml:"server"`
	Log    Log    `toml:"log" yaml:"log"`
}

type Engine struct {
	MaxTokens        int    `toml:"max_tokens" yaml:"max_tokens"`
	MaxDepth         int    `toml:"max_depth" yaml:"max_depth"`
	Placeholder      string `toml:"placeholder" yaml:"placeholder"`
	LegacyTruthiness bool   `toml:"legacy_truthiness" yaml:"legacy_truthiness"`
}

type Cache struct {
	MaxEntries int `toml:"max_entries" yaml:"max_entries"`
}

type Server struct {
	Addr string `toml:"addr" yaml:"addr"`
}

type Log struct {
	Debug bool `toml:"debug" yaml:"debug"`
}

const DefaultAddr = ":8080"

func Default() *Config {
	return &Config{
		Engine: Engine{
			MaxTokens:   formula.DefaultMaxTokens,
			MaxDepth:    formula.DefaultMaxDepth,
			Placeholder: formula.DefaultPlaceholder,
		},
		Cache:  Cache{MaxEntries: formula.DefaultCacheEntries},
		Server: Server{Addr: DefaultAddr},
	}
}

// Load reads the file over defaults and validates the result
func Load(path string) (*Config, error) {
	ret := Default()
	if err := DecodeFile(path, ret); err != nil {
		return nil, err
	}
	if err := ret.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return ret, nil
}

// DecodeFile decodes TOML or YAML file into v, the format is chosen by extension
func DecodeFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, v)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, v)
	default:
		return fmt.Errorf("unsupported file format of %s, expected .toml, .yaml or .yml", path)
	}
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// Validate reports all problems at once
func (c *Config) Validate() error {
	var err error
	if c.Engine.MaxTokens <= 0 {
		err = multierr.Append(err, fmt.Errorf("engine.max_tokens must be positive, got %d", c.Engine.MaxTokens))
	}
	if c.Engine.MaxDepth <= 0 {
		err = multierr.Append(err, fmt.Errorf("engine.max_depth must be positive, got %d", c.Engine.MaxDepth))
	}
	if !formula.ValidPlaceholder(c.Engine.Placeholder) {
		err = multierr.Append(err, fmt.Errorf("engine.placeholder '%s' is not a valid identifier or is reserved", c.Engine.Placeholder))
	}
	if c.Cache.MaxEntries <= 0 {
		err = multierr.Append(err, fmt.Errorf("cache.max_entries must be positive, got %d", c.Cache.MaxEntries))
	}
	if c.Server.Addr == "" {
		err = multierr.Append(err, fmt.Errorf("server.addr is empty"))
	}
	return err
}

// FormulaOptions are compile options matching the engine section
func (c *Config) FormulaOptions() []formula.Option {
	ret := []formula.Option{
		formula.WithLimits(formula.Limits{MaxTokens: c.Engine.MaxTokens, MaxDepth: c.Engine.MaxDepth}),
		formula.WithPlaceholder(c.Engine.Placeholder),
	}
	if c.Engine.LegacyTruthiness {
		ret = append(ret, formula.WithLegacyTruthiness())
	}
	return ret
}
