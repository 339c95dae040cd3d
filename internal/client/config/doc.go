// Package config loads runtime configuration for the HomeFinder CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the API server
//	-i int      online status check interval (seconds)
//	-t int      logout notification timeout (seconds)
//	-d string   data directory
//	-v          debug logging
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds:
//
//	{
//	  "api_base_url": "http://127.0.0.1:8080",
//	  "online_check_interval": "3s",
//	  "request_timeout": "10s",
//	  "logout_timeout": "5s",
//	  "data_dir": ".homefinder",
//	  "database_file": "session.db",
//	  "debug": false
//	}
//
// This package does not read environment variables; use the JSON file or
// flags to configure values.
package config
