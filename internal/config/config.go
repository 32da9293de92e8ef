// Package config loads the project settings for batch precompilation.
//
// Settings come from the "handlebarsInlinePrecompile" field of package.json,
// or failing that from .config/handlebars-inline-precompile.{yaml,yml,json}.
// With neither present the defaults apply.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goccy/go-json"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"bennypowers.dev/hbsip/internal/log"
	"bennypowers.dev/hbsip/internal/precompile"
)

// PackageJSONField is the package.json key holding the configuration
const PackageJSONField = "handlebarsInlinePrecompile"

// configFileNames are tried in order under .config/
var configFileNames = []string{
	"handlebars-inline-precompile.yaml",
	"handlebars-inline-precompile.yml",
	"handlebars-inline-precompile.json",
}

// ErrInvalidConfig indicates a configuration value is out of range
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the batch settings
type Config struct {
	// Include lists doublestar patterns, relative to the root, of files to transform
	Include []string `json:"include" yaml:"include"`
	// Exclude lists patterns removed from Include's matches
	Exclude []string `json:"exclude" yaml:"exclude"`
	// OutDir receives the transformed files, mirroring the source tree
	OutDir string `json:"outDir" yaml:"outDir"`
	// Compiler selects the precompiler backend: "native" or "node"
	Compiler string `json:"compiler" yaml:"compiler"`
	// NodeBinary is the node executable used by the "node" backend
	NodeBinary string `json:"nodeBinary" yaml:"nodeBinary"`
	// LogLevel is one of debug, info, warn, error
	LogLevel string `json:"logLevel" yaml:"logLevel"`

	// Source is the file the settings were read from; empty for defaults
	Source string `json:"-" yaml:"-"`
}

// Default returns the configuration used when the project has none
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if len(c.Include) == 0 {
		c.Include = []string{"**/*.js", "**/*.mjs", "**/*.jsx"}
	}
	if c.OutDir == "" {
		c.OutDir = "dist"
	}
	if c.Compiler == "" {
		c.Compiler = precompile.BackendNative
	}
	if c.NodeBinary == "" {
		c.NodeBinary = "node"
	}
	if c.LogLevel == "" {
		c.LogLevel = log.LevelInfo.String()
	}
}

// Validate checks enumerated values and glob syntax
func (c *Config) Validate() error {
	switch c.Compiler {
	case precompile.BackendNative, precompile.BackendNode:
	default:
		return fmt.Errorf("%w: compiler must be %q or %q, got %q",
			ErrInvalidConfig, precompile.BackendNative, precompile.BackendNode, c.Compiler)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	for _, pattern := range slices.Concat(c.Include, c.Exclude) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: bad glob pattern %q", ErrInvalidConfig, pattern)
		}
	}
	if filepath.Clean(c.OutDir) == "." {
		return fmt.Errorf("%w: outDir must not be the project root", ErrInvalidConfig)
	}
	return nil
}

// Level returns the parsed log level. Call Validate first.
func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.LevelInfo
	}
	return level
}

// Load reads the configuration for the project at rootPath, falling back to
// defaults. The result is validated.
func Load(rootPath string) (*Config, error) {
	c, err := readPackageJSONConfig(rootPath)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c, err = readConfigFile(rootPath)
		if err != nil {
			return nil, err
		}
	}
	if c == nil {
		c = &Config{}
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		if c.Source != "" {
			return nil, fmt.Errorf("%s: %w", c.Source, err)
		}
		return nil, err
	}
	return c, nil
}

// readPackageJSONConfig returns nil when package.json or its field is absent
func readPackageJSONConfig(rootPath string) (*Config, error) {
	packageJSONPath := filepath.Join(rootPath, "package.json")

	data, err := os.ReadFile(packageJSONPath) //nolint:gosec // G304: Reading workspace package.json - local trusted environment
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read package.json: %w", err)
	}

	// Parse as JSONC (allows comments)
	data = jsonc.ToJSON(data)

	var pkgJSON map[string]json.RawMessage
	if err := json.Unmarshal(data, &pkgJSON); err != nil {
		return nil, fmt.Errorf("failed to parse package.json: %w", err)
	}

	raw, ok := pkgJSON[PackageJSONField]
	if !ok {
		return nil, nil
	}
	if !isObject(raw) {
		return nil, fmt.Errorf("%w: %s must be an object", ErrInvalidConfig, PackageJSONField)
	}

	c := &Config{Source: packageJSONPath}
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("failed to parse %s in package.json: %w", PackageJSONField, err)
	}
	return c, nil
}

// readConfigFile returns nil when no .config file exists
func readConfigFile(rootPath string) (*Config, error) {
	for _, name := range configFileNames {
		path := filepath.Join(rootPath, ".config", name)
		data, err := os.ReadFile(path) //nolint:gosec // G304: Reading workspace config - local trusted environment
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		c := &Config{Source: path}
		if filepath.Ext(name) == ".json" {
			err = json.Unmarshal(jsonc.ToJSON(data), c)
		} else {
			err = yaml.Unmarshal(data, c)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return c, nil
	}
	return nil, nil
}

func isObject(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b == '{'
	}
	return false
}
