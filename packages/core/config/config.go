package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the rest configuration
type Config struct {
	Timeout         Duration `yaml:"timeout,omitempty"`
	FollowRedirects *bool    `yaml:"followRedirects,omitempty"`
	MaxRedirects    int      `yaml:"maxRedirects,omitempty"`
	ValidateSSL     *bool    `yaml:"validateSSL,omitempty"`
	Proxy           string   `yaml:"proxy,omitempty"`
	Headers         Headers  `yaml:"headers,omitempty"` // Default headers for all requests
	Verbose         *bool    `yaml:"verbose,omitempty"`
	NoColor         *bool    `yaml:"noColor,omitempty"`
	Rate            float64  `yaml:"rate,omitempty"`    // Requests per second, 0 = unlimited
	History         string   `yaml:"history,omitempty"` // Path to the history database
}

// Duration is a time.Duration written as "30s" or "1m" in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", node.Line, s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Headers is an ordered list of default headers, written as a YAML mapping.
type Headers []Header

type Header struct {
	Name  string
	Value string
}

func (h *Headers) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: headers must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		*h = append(*h, Header{
			Name:  node.Content[i].Value,
			Value: node.Content[i+1].Value,
		})
	}
	return nil
}

func (h Headers) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, header := range h {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: header.Name},
			&yaml.Node{Kind: yaml.ScalarNode, Value: header.Value},
		)
	}
	return node, nil
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetTimeout returns the request timeout as a time.Duration
func (c *Config) GetTimeout() time.Duration {
	return time.Duration(c.Timeout)
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

// GetVerbose returns the verbose setting, defaulting to false
func (c *Config) GetVerbose() bool {
	return getBool(c.Verbose, false)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".rest.yaml",
	".rest.yml",
	"rest.yaml",
	".restrc",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	// Search for config file in current directory
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if config.Rate < 0 {
		return nil, errors.New("rate must not be negative")
	}

	return config, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.Rate > 0 {
		result.Rate = other.Rate
	}
	if other.History != "" {
		result.History = other.History
	}

	// Boolean flags - only override if explicitly set in other config
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.Verbose != nil {
		result.Verbose = other.Verbose
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	// Headers from other replace same-named headers and append new ones
	if len(other.Headers) > 0 {
		merged := make(Headers, 0, len(result.Headers)+len(other.Headers))
		for _, h := range result.Headers {
			if !other.Headers.Has(h.Name) {
				merged = append(merged, h)
			}
		}
		result.Headers = append(merged, other.Headers...)
	}

	return &result
}

// Has reports whether a header named name is present, ignoring case.
func (h Headers) Has(name string) bool {
	for _, header := range h {
		if strings.EqualFold(header.Name, name) {
			return true
		}
	}
	return false
}

// SaveConfig saves the configuration to a file
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
