package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/passvault/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   gRPC bind address (e.g., "127.0.0.1:50551")
//	-d string   SQLite database file
//	-l int      auto-lock timeout, seconds
//	-k string   key derivation function for new vaults (pbkdf2, argon2id)
//	-s string   session store directory (empty = in memory)
//	-j string   JWT HMAC secret for the channel (empty = no auth)
//	-t int      issued token validity, minutes
//	-p          clear the pending save candidate on lock
//	-v string   log level
//
// os.Args is filtered with flagx.FilterArgs first so flags owned by other
// components do not break parsing.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-l", "-k", "-s", "-j", "-t", "-p", "-v"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database file")
	autoLock := fs.Int("l", int(config.AutoLockTimeout.Seconds()), "auto-lock timeout (in seconds)")
	fs.StringVar(&config.KDF, "k", config.KDF, "key derivation function")
	fs.StringVar(&config.SessionDir, "s", config.SessionDir, "session store directory")
	fs.StringVar(&config.SecretKey, "j", config.SecretKey, "channel token secret")
	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token validity (in minutes)")
	fs.BoolVar(&config.ClearPendingOnLock, "p", config.ClearPendingOnLock, "clear pending save candidate on lock")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AutoLockTimeout = time.Duration(*autoLock) * time.Second
	config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
}
