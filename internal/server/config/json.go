package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/passvault/internal/flagx"
	"github.com/dmitrijs2005/passvault/internal/timex"
)

// JsonConfig is the on-disk shape of the daemon config. Durations accept
// "30s"-style strings or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrGRPC      string         `json:"endpoint_addr_grpc"`
	DatabaseDSN           string         `json:"database_dsn"`
	AutoLockTimeout       timex.Duration `json:"auto_lock_timeout"`
	KDF                   string         `json:"kdf"`
	SessionDir            string         `json:"session_dir"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	ClearPendingOnLock    *bool          `json:"clear_pending_on_lock"`
	LogLevel              string         `json:"log_level"`
}

// parseJson overlays config with the JSON file named by -c/-config.
// Only fields present in the file replace existing values. It panics when
// the file cannot be read or parsed.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	if c.EndpointAddrGRPC != "" {
		config.EndpointAddrGRPC = c.EndpointAddrGRPC
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.AutoLockTimeout.Duration != 0 {
		config.AutoLockTimeout = c.AutoLockTimeout.Duration
	}
	if c.KDF != "" {
		config.KDF = c.KDF
	}
	if c.SessionDir != "" {
		config.SessionDir = c.SessionDir
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.TokenValidityDuration.Duration != 0 {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.ClearPendingOnLock != nil {
		config.ClearPendingOnLock = *c.ClearPendingOnLock
	}
	if c.LogLevel != "" {
		config.LogLevel = c.LogLevel
	}
}
