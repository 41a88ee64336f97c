// Package config loads the engine's tunable knobs (spec section 6.5) from
// YAML, the convention aretext's config package and sqlcode's
// DatabaseConfig both use for process configuration. A Session is always
// constructible from config.Default() without touching a file.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nucleuslang/nucleus/internal/document"
)

// GrepFlags mirrors document.GrepFlags with yaml tags, so the on-disk
// representation doesn't force yaml struct tags onto the document package.
type GrepFlags struct {
	CaseInsensitive bool `yaml:"case_insensitive"`
	Multiline       bool `yaml:"multiline"`
	Global          bool `yaml:"global"`
}

func (g GrepFlags) toDocument() document.GrepFlags {
	return document.GrepFlags{CaseInsensitive: g.CaseInsensitive, Multiline: g.Multiline, Global: g.Global}
}

// Config is the full set of spec section 6.5 knobs plus the ambient log
// level. Zero-value Config is not valid; use Default() or Load().
type Config struct {
	HistoryDepth      int       `yaml:"history_depth"`
	MaxCandidates     int       `yaml:"max_candidates"`
	DefaultFuzzyLimit int       `yaml:"default_fuzzy_limit"`
	PreviewListCap    int       `yaml:"preview_list_cap"`
	PreviewStringCap  int       `yaml:"preview_string_cap"`
	GrepDefaultFlags  GrepFlags `yaml:"grep_default_flags"`
	LogLevel          string    `yaml:"log_level"`
}

// Default returns spec section 6.5's defaults.
func Default() *Config {
	return &Config{
		HistoryDepth:      32,
		MaxCandidates:     100,
		DefaultFuzzyLimit: 10,
		PreviewListCap:    20,
		PreviewStringCap:  4096,
		GrepDefaultFlags:  GrepFlags{CaseInsensitive: true, Multiline: true, Global: true},
		LogLevel:          "info",
	}
}

// DocumentGrepFlags adapts the config's GrepFlags to document.GrepFlags.
func (c *Config) DocumentGrepFlags() document.GrepFlags {
	return c.GrepDefaultFlags.toDocument()
}

// Load reads path and overlays it onto Default(), so an absent key (or an
// absent file, or an empty one) falls back to the documented default rather
// than a zero value.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrap(err, "reading config file")
	}
	if len(data) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config file")
	}
	return cfg, nil
}
