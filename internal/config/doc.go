// Package config loads runtime configuration for the wallet CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-d string   data directory for the durable store
//	-e string   base URL of the ledger gateway
//	-t int      session timeout (minutes)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for the timeout, so values can be
// either strings like "30m" or integer nanoseconds:
//
//	{
//	  "data_dir": "/var/lib/tundra",
//	  "ledger_endpoint": "http://127.0.0.1:8080",
//	  "session_timeout": "30m"
//	}
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
