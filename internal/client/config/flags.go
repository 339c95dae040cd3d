package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/homefinder/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the API server
//	-i int      online check interval in seconds
//	-t int      logout notification timeout in seconds
//	-d string   data directory
//	-v          verbose (debug) logging
//
// Only the flags listed above are picked out of args with flagx.FilterArgs,
// so the -c/-config flag of the JSON loader does not interfere.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-i", "-t", "-d", "-v"})

	fs := flag.NewFlagSet("homefinder", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "base URL of the API server")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	logoutTimeout := fs.Int("t", int(cfg.LogoutTimeout.Seconds()), "logout notification timeout (in seconds)")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "directory for local data")
	fs.BoolVar(&cfg.Debug, "v", cfg.Debug, "debug logging")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	if *onlineCheckInterval <= 0 {
		return fmt.Errorf("parse flags: online check interval must be positive, got %d", *onlineCheckInterval)
	}
	if *logoutTimeout <= 0 {
		return fmt.Errorf("parse flags: logout timeout must be positive, got %d", *logoutTimeout)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.LogoutTimeout = time.Duration(*logoutTimeout) * time.Second
	return nil
}
