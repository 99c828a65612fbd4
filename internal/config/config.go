// Package config loads surface.yaml and applies environment overrides.
package config

import (
	"fmt"
	"os"

	"github.com/gobwas/glob"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the project-level configuration of one analysis target.
type Config struct {
	// Entry is the entry-point source file, relative to the project root.
	Entry string `yaml:"entry"`

	// BundledPackages lists glob patterns over bare import specifiers that
	// are analyzed as part of the local project instead of as external
	// dependencies.
	BundledPackages []string `yaml:"bundledPackages"`

	// PolicyScript is an optional Risor filter applied at report time.
	PolicyScript string `yaml:"policyScript"`

	// DBPath is the snapshot database; empty disables snapshots.
	DBPath string `yaml:"dbPath"`

	// ReportPath is where `surface analyze` writes the report by default.
	ReportPath string `yaml:"reportPath"`

	bundled []glob.Glob
}

// Load reads a YAML config file, merging in a .env file when present and
// then SURFACE_* environment variables, which win over both.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if entry := os.Getenv("SURFACE_ENTRY"); entry != "" {
		cfg.Entry = entry
	}
	if db := os.Getenv("SURFACE_DB"); db != "" {
		cfg.DBPath = db
	}
	if script := os.Getenv("SURFACE_POLICY"); script != "" {
		cfg.PolicyScript = script
	}
}

func (c *Config) validate() error {
	if c.Entry == "" {
		return fmt.Errorf("config: entry is required")
	}
	for _, pattern := range c.BundledPackages {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return fmt.Errorf("config: bundledPackages pattern %q: %w", pattern, err)
		}
		c.bundled = append(c.bundled, g)
	}
	return nil
}

// BundledMatcher returns the predicate deciding whether a bare specifier
// belongs to the bundled set. Returns nil when no patterns are configured.
func (c *Config) BundledMatcher() func(specifier string) bool {
	if len(c.bundled) == 0 {
		return nil
	}
	globs := c.bundled
	return func(specifier string) bool {
		for _, g := range globs {
			if g.Match(specifier) {
				return true
			}
		}
		return false
	}
}
