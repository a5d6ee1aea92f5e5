package config

import "time"

// Config holds runtime settings for the DocVault CLI.
//
// Fields:
//   - ServerBaseURL: root of the backend HTTP API, including the path prefix.
//   - DatabasePath: sqlite file holding persisted client state.
//   - RequestTimeout: upper bound on any single API request.
//   - ConfirmDelay: how long confirmation messages stay visible before the
//     client navigates on (e.g. back to login after a password reset).
type Config struct {
	ServerBaseURL  string
	DatabasePath   string
	RequestTimeout time.Duration
	ConfirmDelay   time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://127.0.0.1:8080/api"
	c.DatabasePath = "docvault.db"
	c.RequestTimeout = 30 * time.Second
	c.ConfirmDelay = 1500 * time.Millisecond
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
