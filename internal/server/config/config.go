// Package config handles configuration for the passvault daemon:
// defaults, an optional JSON overlay and command-line flags.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/passvault/internal/cryptox"
	"github.com/dmitrijs2005/passvault/internal/logging"
)

// Config holds runtime settings for the vault daemon.
//
// Fields:
//   - EndpointAddrGRPC: bind address of the local request/response channel.
//   - DatabaseDSN: SQLite file holding the durable store.
//   - AutoLockTimeout: idle time after which the vault locks itself.
//   - KDF: key derivation function for newly created vaults.
//   - SessionDir: directory for the session-scoped store; empty keeps it in memory.
//   - SecretKey: HMAC secret for channel access tokens; empty disables channel auth.
//   - TokenValidityDuration: lifetime of tokens minted with -issue-token.
//   - ClearPendingOnLock: drop the pending save candidate whenever the vault locks.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	EndpointAddrGRPC      string
	DatabaseDSN           string
	AutoLockTimeout       time.Duration
	KDF                   string
	SessionDir            string
	SecretKey             string
	TokenValidityDuration time.Duration
	ClearPendingOnLock    bool
	LogLevel              string
}

// LoadDefaults populates Config with defaults suitable for a single local user.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = "127.0.0.1:50551"
	c.DatabaseDSN = "passvault.db"
	c.AutoLockTimeout = 30 * time.Second
	c.KDF = string(cryptox.KDFPBKDF2)
	c.SessionDir = ""
	c.SecretKey = ""
	c.TokenValidityDuration = 60 * time.Minute
	c.ClearPendingOnLock = false
	c.LogLevel = "info"
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.AutoLockTimeout <= 0 {
		return errors.New("auto-lock timeout must be positive")
	}
	if _, err := cryptox.ParseKDF(c.KDF); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("database DSN is empty")
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
