// Package config loads and validates rspeclint configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the inspected root.
const FileName = ".rspeclint.yml"

// DefaultMaxFileSize is the size above which files are skipped.
const DefaultMaxFileSize = 1_000_000 // 1 MB

// ErrInvalidStyle is returned for an EnforcedStyle outside the recognized values.
var ErrInvalidStyle = errors.New("invalid enforced style")

// Style selects which missing or empty descriptions are reported.
type Style string

const (
	AlwaysAllow    Style = "always_allow"
	SingleLineOnly Style = "single_line_only"
	Disallow       Style = "disallow"
)

// Styles lists the recognized styles in documentation order.
var Styles = []Style{AlwaysAllow, SingleLineOnly, Disallow}

// ParseStyle converts a configuration value into a Style.
func ParseStyle(s string) (Style, error) {
	switch Style(s) {
	case AlwaysAllow, SingleLineOnly, Disallow:
		return Style(s), nil
	}
	return "", fmt.Errorf("%w %q (want one of %s)", ErrInvalidStyle, s, styleList())
}

func styleList() string {
	names := make([]string, len(Styles))
	for i, s := range Styles {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// String implements pflag.Value.
func (s *Style) String() string {
	return string(*s)
}

// Set implements pflag.Value.
func (s *Style) Set(v string) error {
	parsed, err := ParseStyle(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Type implements pflag.Value.
func (s *Style) Type() string {
	return "style"
}

// UnmarshalYAML rejects unknown styles while decoding.
func (s *Style) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseStyle(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*s = parsed
	return nil
}

// Config mirrors the RuboCop configuration layout.
type Config struct {
	AllCops                   AllCops   `yaml:"AllCops"`
	ExampleWithoutDescription CopConfig `yaml:"RSpec/ExampleWithoutDescription"`
}

// AllCops holds settings shared by every cop.
type AllCops struct {
	Include     []string `yaml:"Include,omitempty"`
	Exclude     []string `yaml:"Exclude,omitempty"`
	MaxFileSize *int     `yaml:"MaxFileSize,omitempty"` // 0 disables the limit
}

// CopConfig configures RSpec/ExampleWithoutDescription.
type CopConfig struct {
	Enabled       *bool `yaml:"Enabled,omitempty"`
	EnforcedStyle Style `yaml:"EnforcedStyle,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	enabled := true
	maxFileSize := DefaultMaxFileSize
	return &Config{
		AllCops: AllCops{
			Include:     []string{"*_spec.rb"},
			MaxFileSize: &maxFileSize,
		},
		ExampleWithoutDescription: CopConfig{
			Enabled:       &enabled,
			EnforcedStyle: AlwaysAllow,
		},
	}
}

// Enabled reports whether the cop should run.
func (c *Config) Enabled() bool {
	return c.ExampleWithoutDescription.Enabled == nil || *c.ExampleWithoutDescription.Enabled
}

// Style returns the configured enforcement style.
func (c *Config) Style() Style {
	return c.ExampleWithoutDescription.EnforcedStyle
}

// MaxFileSize returns the size limit in bytes for inspected files. Zero means
// no limit.
func (c *Config) MaxFileSize() int {
	if c.AllCops.MaxFileSize == nil {
		return DefaultMaxFileSize
	}
	return *c.AllCops.MaxFileSize
}

// Validate checks values that cannot be enforced while decoding.
func (c *Config) Validate() error {
	if _, err := ParseStyle(string(c.ExampleWithoutDescription.EnforcedStyle)); err != nil {
		return err
	}
	if n := c.MaxFileSize(); n < 0 {
		return fmt.Errorf("AllCops.MaxFileSize must not be negative, got %d", n)
	}
	return nil
}

// Parse decodes YAML configuration and fills unset fields from Default.
func Parse(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	def := Default()
	if cfg.AllCops.Include == nil {
		cfg.AllCops.Include = def.AllCops.Include
	}
	if cfg.AllCops.MaxFileSize == nil {
		cfg.AllCops.MaxFileSize = def.AllCops.MaxFileSize
	}
	if cfg.ExampleWithoutDescription.Enabled == nil {
		cfg.ExampleWithoutDescription.Enabled = def.ExampleWithoutDescription.Enabled
	}
	if cfg.ExampleWithoutDescription.EnforcedStyle == "" {
		cfg.ExampleWithoutDescription.EnforcedStyle = def.ExampleWithoutDescription.EnforcedStyle
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Find loads root/.rspeclint.yml, or returns the defaults when it does not exist.
// The returned path is empty when the defaults were used.
func Find(root string) (*Config, string, error) {
	path := filepath.Join(root, FileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), "", nil
		}
		return nil, "", fmt.Errorf("config path: %w", err)
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) (string, error) {
	var b bytes.Buffer
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return b.String(), nil
}
