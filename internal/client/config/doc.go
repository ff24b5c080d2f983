// Package config loads runtime configuration for the passvault CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the daemon
//	-t string   channel access token
//	-r int      request timeout (seconds)
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50551",
//	  "access_token": "eyJhbGciOi...",
//	  "request_timeout": "5s"
//	}
package config
