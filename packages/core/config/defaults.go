package config

import "time"

const (
	// DefaultTimeout matches the transport's own default
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRedirects is the redirect limit when following redirects
	DefaultMaxRedirects = 10
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:         Duration(DefaultTimeout),
		FollowRedirects: BoolPtr(true),
		MaxRedirects:    DefaultMaxRedirects,
		ValidateSSL:     BoolPtr(true),
		Verbose:         BoolPtr(false),
		NoColor:         BoolPtr(false),
	}
}
