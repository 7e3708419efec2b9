// Package config resolves, parses, validates, and defaults tvremote configuration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config is the fully materialized runtime configuration used by tvremote.
type Config struct {
	Server ServerConfig
	TV     TVConfig
	Health HealthConfig
	Client ClientConfig
	Log    LogConfig
}

// ServerConfig controls the line-protocol listener and per-session limits.
type ServerConfig struct {
	ListenHost     string
	Port           int
	ReadTimeoutMS  int
	WriteTimeoutMS int
	MaxSessions    int
}

// TVConfig shapes the simulated appliance.
type TVConfig struct {
	Channels int
}

// HealthConfig controls the optional gRPC health endpoint.
type HealthConfig struct {
	Enable  bool
	Address string
}

// ClientConfig controls console and one-shot client behavior.
type ClientConfig struct {
	DialTimeoutMS int
	HistoryFile   string
}

// LogConfig controls runtime log verbosity.
type LogConfig struct {
	Level string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

// Addr is the listen address for the line-protocol server.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.ListenHost, strconv.Itoa(s.Port))
}

func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutMS) * time.Millisecond
}

func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutMS) * time.Millisecond
}

func (c ClientConfig) DialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutMS) * time.Millisecond
}
