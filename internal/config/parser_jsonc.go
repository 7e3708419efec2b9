package config

import "strings"

type jsoncConfig struct {
	Server *jsoncServer `json:"server"`
	TV     *jsoncTV     `json:"tv"`
	Health *jsoncHealth `json:"health"`
	Client *jsoncClient `json:"client"`
	Log    *jsoncLog    `json:"log"`
}

type jsoncServer struct {
	ListenHost     *string `json:"listen_host"`
	Port           *int    `json:"port"`
	ReadTimeoutMS  *int    `json:"read_timeout_ms"`
	WriteTimeoutMS *int    `json:"write_timeout_ms"`
	MaxSessions    *int    `json:"max_sessions"`
}

type jsoncTV struct {
	Channels *int `json:"channels"`
}

type jsoncHealth struct {
	Enable  *bool   `json:"enable"`
	Address *string `json:"address"`
}

type jsoncClient struct {
	DialTimeoutMS *int    `json:"dial_timeout_ms"`
	HistoryFile   *string `json:"history_file"`
}

type jsoncLog struct {
	Level *string `json:"level"`
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	plain, err := stripJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	var payload jsoncConfig
	if err := decodeStrict(plain, &payload); err != nil {
		return Config{}, nil, withPosition(plain, err)
	}

	cfg := base
	return cfg, payload.applyTo(&cfg), nil
}

func (payload jsoncConfig) applyTo(cfg *Config) []Warning {
	warnings := make([]Warning, 0)

	if payload.Server != nil {
		if payload.Server.ListenHost != nil {
			cfg.Server.ListenHost = strings.TrimSpace(*payload.Server.ListenHost)
		}
		if payload.Server.Port != nil {
			cfg.Server.Port = *payload.Server.Port
		}
		if payload.Server.ReadTimeoutMS != nil {
			cfg.Server.ReadTimeoutMS = *payload.Server.ReadTimeoutMS
		}
		if payload.Server.WriteTimeoutMS != nil {
			cfg.Server.WriteTimeoutMS = *payload.Server.WriteTimeoutMS
		}
		if payload.Server.MaxSessions != nil {
			cfg.Server.MaxSessions = *payload.Server.MaxSessions
		}
	}

	if payload.TV != nil && payload.TV.Channels != nil {
		cfg.TV.Channels = *payload.TV.Channels
	}

	if payload.Health != nil {
		if payload.Health.Enable != nil {
			cfg.Health.Enable = *payload.Health.Enable
		}
		if payload.Health.Address != nil {
			cfg.Health.Address = strings.TrimSpace(*payload.Health.Address)
		}
	}

	if payload.Client != nil {
		if payload.Client.DialTimeoutMS != nil {
			cfg.Client.DialTimeoutMS = *payload.Client.DialTimeoutMS
		}
		if payload.Client.HistoryFile != nil {
			cfg.Client.HistoryFile = strings.TrimSpace(*payload.Client.HistoryFile)
		}
	}

	if payload.Log != nil && payload.Log.Level != nil {
		level := strings.ToLower(strings.TrimSpace(*payload.Log.Level))
		if level == "warning" {
			warnings = append(warnings, Warning{Message: `log.level "warning" is treated as "warn"`})
			level = "warn"
		}
		cfg.Log.Level = level
	}

	return warnings
}
