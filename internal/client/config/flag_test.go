package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	defaults := func() *Config {
		c := &Config{}
		c.LoadDefaults()
		return c
	}

	tests := []struct {
		name      string
		args      []string
		expected  func() *Config
		expectErr bool
	}{
		{
			name: "all flags",
			args: []string{"-a", "http://10.0.0.1:9090", "-i", "10", "-t", "2", "-d", "/tmp/hf", "-v"},
			expected: func() *Config {
				c := defaults()
				c.APIBaseURL = "http://10.0.0.1:9090"
				c.OnlineCheckInterval = 10 * time.Second
				c.LogoutTimeout = 2 * time.Second
				c.DataDir = "/tmp/hf"
				c.Debug = true
				return c
			},
		},
		{
			name:     "no flags keeps defaults",
			args:     nil,
			expected: defaults,
		},
		{
			name: "foreign flags are ignored",
			args: []string{"-c", "cfg.json", "-x", "1", "-a=http://h:1"},
			expected: func() *Config {
				c := defaults()
				c.APIBaseURL = "http://h:1"
				return c
			},
		},
		{name: "incorrect check interval", args: []string{"-i", "abc"}, expectErr: true},
		{name: "zero logout timeout", args: []string{"-t", "0"}, expectErr: true},
		{name: "negative check interval", args: []string{"-i=-1"}, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			err := parseFlags(cfg, tt.args)

			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected(), cfg))
		})
	}
}
