package config

import "time"

// Config holds runtime settings for the passvault CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the daemon's gRPC endpoint.
//   - AccessToken: channel token printed by "server -issue-token"; empty when the daemon runs without one.
//   - RequestTimeout: deadline applied to every request.
type Config struct {
	ServerEndpointAddr string
	AccessToken        string
	RequestTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50551"
	c.AccessToken = ""
	c.RequestTimeout = 5 * time.Second
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
