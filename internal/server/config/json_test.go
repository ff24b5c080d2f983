package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "passvault.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParseJson_OverlaysPresentFields(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })

	path := writeTempJSON(t, `{
		"database_dsn": "/var/lib/passvault/vault.db",
		"auto_lock_timeout": "5m",
		"clear_pending_on_lock": true,
		"log_level": "warn"
	}`)
	os.Args = []string{"passvaultd", "-c", path}

	var c Config
	c.LoadDefaults()
	parseJson(&c)

	assert.Equal(t, "/var/lib/passvault/vault.db", c.DatabaseDSN)
	assert.Equal(t, 5*time.Minute, c.AutoLockTimeout)
	assert.True(t, c.ClearPendingOnLock)
	assert.Equal(t, "warn", c.LogLevel)
	// untouched
	assert.Equal(t, "127.0.0.1:50551", c.EndpointAddrGRPC)
	assert.Equal(t, "pbkdf2", c.KDF)
}

func TestParseJson_NoFile(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })
	os.Args = []string{"passvaultd"}

	c := Config{DatabaseDSN: "keep.db"}
	parseJson(&c)
	assert.Equal(t, "keep.db", c.DatabaseDSN)
}

func TestParseJson_Panics(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })

	os.Args = []string{"passvaultd", "-c", filepath.Join(t.TempDir(), "missing.json")}
	assert.Panics(t, func() { parseJson(&Config{}) })

	os.Args = []string{"passvaultd", "-c", writeTempJSON(t, `{not json`)}
	assert.Panics(t, func() { parseJson(&Config{}) })
}

func TestLoadConfig_FlagsOverrideJSON(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })

	path := writeTempJSON(t, `{"database_dsn": "json.db", "kdf": "argon2id"}`)
	os.Args = []string{"passvaultd", "-c", path, "-d", "flag.db"}

	c := LoadConfig()
	assert.Equal(t, "flag.db", c.DatabaseDSN)
	assert.Equal(t, "argon2id", c.KDF)
}
