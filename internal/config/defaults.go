package config

// DefaultPort is the well-known line-protocol port.
const DefaultPort = 1238

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			ListenHost:     "",
			Port:           DefaultPort,
			ReadTimeoutMS:  0,
			WriteTimeoutMS: 10000,
			MaxSessions:    0,
		},
		TV: TVConfig{Channels: 10},
		Health: HealthConfig{
			Enable:  false,
			Address: "127.0.0.1:1239",
		},
		Client: ClientConfig{
			DialTimeoutMS: 3000,
		},
		Log: LogConfig{Level: "info"},
	}
}
