package config

import (
	"path/filepath"
	"time"
)

// Config holds runtime settings for the HomeFinder CLI.
//
// Fields:
//   - APIBaseURL: root URL of the marketplace REST API.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - RequestTimeout: upper bound for a single API request.
//   - LogoutTimeout: upper bound for the logout notification sent to the
//     server; local logout never waits longer than this.
//   - DataDir: directory holding the local database.
//   - DatabaseFile: file name of the local database inside DataDir.
//   - Debug: log at debug level.
type Config struct {
	APIBaseURL          string
	OnlineCheckInterval time.Duration
	RequestTimeout      time.Duration
	LogoutTimeout       time.Duration
	DataDir             string
	DatabaseFile        string
	Debug               bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8080"
	c.OnlineCheckInterval = 3 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.LogoutTimeout = 5 * time.Second
	c.DataDir = ".homefinder"
	c.DatabaseFile = "session.db"
	c.Debug = false
}

// DatabasePath is DatabaseFile joined to DataDir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, c.DatabaseFile)
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones. args are the program arguments without the
// program name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
