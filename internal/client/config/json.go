package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/homefinder/internal/flagx"
	"github.com/dmitrijs2005/homefinder/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds.
type JsonConfig struct {
	APIBaseURL          string         `json:"api_base_url"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	LogoutTimeout       timex.Duration `json:"logout_timeout"`
	DataDir             string         `json:"data_dir"`
	DatabaseFile        string         `json:"database_file"`
	Debug               *bool          `json:"debug"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config in args. Without either flag it does nothing. Fields absent
// from the file keep their current values.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.APIBaseURL != "" {
		cfg.APIBaseURL = jc.APIBaseURL
	}
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.LogoutTimeout.Duration > 0 {
		cfg.LogoutTimeout = jc.LogoutTimeout.Duration
	}
	if jc.DataDir != "" {
		cfg.DataDir = jc.DataDir
	}
	if jc.DatabaseFile != "" {
		cfg.DatabaseFile = jc.DatabaseFile
	}
	if jc.Debug != nil {
		cfg.Debug = *jc.Debug
	}
	return nil
}
