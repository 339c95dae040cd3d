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
//	-a string   HTTP bind address (e.g., ":8080")
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-o int      verification code validity, minutes
//	-e string   seeded admin email
//	-p string   seeded admin password
//
// Duration flags are accepted as integers in minutes and then converted to
// time.Duration values.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-s", "-t", "-o", "-e", "-p"})

	fs := flag.NewFlagSet("devapi", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	otpValidity := fs.Int("o", int(config.OTPValidityDuration.Minutes()), "otp_validity_duration (in minutes)")
	fs.StringVar(&config.AdminEmail, "e", config.AdminEmail, "seeded admin email")
	fs.StringVar(&config.AdminPassword, "p", config.AdminPassword, "seeded admin password")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	if *accessTokenValidity <= 0 || *otpValidity <= 0 {
		return fmt.Errorf("parse flags: validity durations must be positive")
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
	config.OTPValidityDuration = time.Duration(*otpValidity) * time.Minute
	return nil
}
