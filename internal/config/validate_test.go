package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateDefaultsHasNoWarnings(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestValidateRejectsInvalidCoreFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "negative port", mutate: func(c *Config) { c.Server.Port = -1 }, wantErr: "server.port"},
		{name: "port too large", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "server.port"},
		{name: "negative read timeout", mutate: func(c *Config) { c.Server.ReadTimeoutMS = -1 }, wantErr: "read_timeout_ms"},
		{name: "negative write timeout", mutate: func(c *Config) { c.Server.WriteTimeoutMS = -5 }, wantErr: "write_timeout_ms"},
		{name: "negative max sessions", mutate: func(c *Config) { c.Server.MaxSessions = -1 }, wantErr: "max_sessions"},
		{name: "no channels", mutate: func(c *Config) { c.TV.Channels = 0 }, wantErr: "tv.channels"},
		{name: "health without address", mutate: func(c *Config) {
			c.Health.Enable = true
			c.Health.Address = " "
		}, wantErr: "health.address"},
		{name: "zero dial timeout", mutate: func(c *Config) { c.Client.DialTimeoutMS = 0 }, wantErr: "dial_timeout_ms"},
		{name: "unknown log level", mutate: func(c *Config) { c.Log.Level = "trace" }, wantErr: "log.level"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateWarnings(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 0
	cfg.Server.MaxSessions = 1

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 2)
	require.Contains(t, warnings[0].Message, "ephemeral")
	require.Contains(t, warnings[1].Message, "one client at a time")
}

func TestValidateHealthAddressIgnoredWhenDisabled(t *testing.T) {
	cfg := Default()
	cfg.Health.Address = ""
	_, err := Validate(cfg)
	require.NoError(t, err)
}
