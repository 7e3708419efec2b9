// Package doctor runs readiness diagnostics for config, the line-protocol
// server, and its health endpoint.
package doctor

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rbright/tvremote/internal/config"
	"github.com/rbright/tvremote/internal/health"
	"github.com/rbright/tvremote/internal/transport"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes config and connectivity checks for a loaded config.
func Run(ctx context.Context, cfg config.Loaded) Report {
	checks := []Check{}

	configMessage := fmt.Sprintf("loaded %q", cfg.Path)
	if !cfg.Exists {
		configMessage = fmt.Sprintf("%q not found; using defaults", cfg.Path)
	}
	checks = append(checks, Check{Name: "config", Pass: true, Message: configMessage})

	checks = append(checks, Check{
		Name:    "tv.channels",
		Pass:    true,
		Message: fmt.Sprintf("%d channels", cfg.Config.TV.Channels),
	})

	timeout := cfg.Config.Client.DialTimeout()
	checks = append(checks, checkServer(ctx, ProbeAddr(cfg.Config.Server), timeout))

	if cfg.Config.Health.Enable {
		checks = append(checks, checkHealth(ctx, cfg.Config.Health.Address, timeout))
	}

	return Report{Checks: checks}
}

// ProbeAddr is the address a local client uses to reach the configured server.
func ProbeAddr(server config.ServerConfig) string {
	host := strings.TrimSpace(server.ListenHost)
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, strconv.Itoa(server.Port))
}

// checkServer sends PING to the line-protocol server.
func checkServer(ctx context.Context, addr string, timeout time.Duration) Check {
	alive, err := transport.Probe(ctx, addr, timeout)
	if err != nil {
		return Check{Name: "server", Pass: false, Message: err.Error()}
	}
	if !alive {
		return Check{Name: "server", Pass: false, Message: fmt.Sprintf("no server listening on %s", addr)}
	}
	return Check{Name: "server", Pass: true, Message: fmt.Sprintf("PING answered at %s", addr)}
}

// checkHealth queries the gRPC health endpoint.
func checkHealth(ctx context.Context, addr string, timeout time.Duration) Check {
	result, err := health.Check(ctx, addr, timeout)
	if err != nil {
		return Check{Name: "health", Pass: false, Message: err.Error()}
	}
	if !result.Serving {
		return Check{Name: "health", Pass: false, Message: fmt.Sprintf("%s at %s", result.Status, addr)}
	}
	return Check{Name: "health", Pass: true, Message: fmt.Sprintf("%s at %s", result.Status, addr)}
}
