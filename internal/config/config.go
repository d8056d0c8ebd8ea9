package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the wallet CLI.
//
// Fields:
//   - DataDir: directory for the durable key/value store.
//   - LedgerEndpoint: base URL of the ledger gateway.
//   - SessionTimeout: how long an unlocked session stays valid.
//
// Units: SessionTimeout is a time.Duration (e.g., 30*time.Minute).
type Config struct {
	DataDir        string
	LedgerEndpoint string
	SessionTimeout time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DataDir = defaultDataDir()
	c.LedgerEndpoint = "http://127.0.0.1:8080"
	c.SessionTimeout = 30 * time.Minute
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tundra"
	}
	return filepath.Join(home, ".tundra")
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
