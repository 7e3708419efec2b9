package config

import (
	"fmt"
	"strings"
)

var logLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("server.port must be within 0..65535")
	}
	if cfg.Server.ReadTimeoutMS < 0 {
		return nil, fmt.Errorf("server.read_timeout_ms must be >= 0")
	}
	if cfg.Server.WriteTimeoutMS < 0 {
		return nil, fmt.Errorf("server.write_timeout_ms must be >= 0")
	}
	if cfg.Server.MaxSessions < 0 {
		return nil, fmt.Errorf("server.max_sessions must be >= 0")
	}
	if cfg.TV.Channels < 1 {
		return nil, fmt.Errorf("tv.channels must be >= 1")
	}
	if cfg.Health.Enable && strings.TrimSpace(cfg.Health.Address) == "" {
		return nil, fmt.Errorf("health.address must not be empty when health.enable=true")
	}
	if cfg.Client.DialTimeoutMS <= 0 {
		return nil, fmt.Errorf("client.dial_timeout_ms must be > 0")
	}
	if _, ok := logLevels[strings.ToLower(strings.TrimSpace(cfg.Log.Level))]; !ok {
		return nil, fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}

	if cfg.Server.Port == 0 {
		warnings = append(warnings, Warning{Message: "server.port=0 selects an ephemeral port"})
	}
	if cfg.Server.MaxSessions == 1 {
		warnings = append(warnings, Warning{Message: "server.max_sessions=1 serves one client at a time"})
	}

	return warnings, nil
}
