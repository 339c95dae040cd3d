package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/homefinder/internal/flagx"
	"github.com/dmitrijs2005/homefinder/internal/timex"
)

// JsonConfig is the JSON form of Config. Durations use timex.Duration so
// they may be written as "15m" or as integer nanoseconds.
type JsonConfig struct {
	EndpointAddr                string         `json:"endpoint_addr"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	OTPValidityDuration         timex.Duration `json:"otp_validity_duration"`
	AdminEmail                  *string        `json:"admin_email"`
	AdminPassword               *string        `json:"admin_password"`
	AllowedOrigins              []string       `json:"allowed_origins"`
}

// parseJson overlays config with the JSON file named by -c or -config in
// args. Fields absent from the file keep their values; admin_email and
// admin_password may be set to "" to disable the admin seed.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.OTPValidityDuration.Duration > 0 {
		config.OTPValidityDuration = c.OTPValidityDuration.Duration
	}
	if c.AdminEmail != nil {
		config.AdminEmail = *c.AdminEmail
	}
	if c.AdminPassword != nil {
		config.AdminPassword = *c.AdminPassword
	}
	if c.AllowedOrigins != nil {
		config.AllowedOrigins = c.AllowedOrigins
	}
	return nil
}
