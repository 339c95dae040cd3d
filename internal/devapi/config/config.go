// Package config handles configuration for the dev API server, including
// defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the dev API.
//
// Fields:
//   - EndpointAddr: bind address of the HTTP endpoint.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use the default
//     outside local development.
//   - AccessTokenValidityDuration: access token lifetime.
//   - OTPValidityDuration: lifetime of a signup verification code.
//   - AdminEmail / AdminPassword: seeded admin account; no admin is seeded
//     when either is empty.
//   - AllowedOrigins: CORS origins allowed to call the API from a browser.
type Config struct {
	EndpointAddr                string
	SecretKey                   string
	AccessTokenValidityDuration time.Duration
	OTPValidityDuration         time.Duration
	AdminEmail                  string
	AdminPassword               string
	AllowedOrigins              []string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 24 * time.Hour
	c.OTPValidityDuration = 10 * time.Minute
	c.AdminEmail = "admin@homefinder.local"
	c.AdminPassword = "admin"
	c.AllowedOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags in args.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
