// Package app wires parsed commands to the server, client, and diagnostics.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/rbright/tvremote/internal/cli"
	"github.com/rbright/tvremote/internal/config"
	"github.com/rbright/tvremote/internal/console"
	"github.com/rbright/tvremote/internal/dispatch"
	"github.com/rbright/tvremote/internal/doctor"
	"github.com/rbright/tvremote/internal/health"
	"github.com/rbright/tvremote/internal/logging"
	"github.com/rbright/tvremote/internal/protocol"
	"github.com/rbright/tvremote/internal/server"
	"github.com/rbright/tvremote/internal/transport"
	"github.com/rbright/tvremote/internal/tv"
	"github.com/rbright/tvremote/internal/version"
)

const historyFileName = ".tvremote_history"

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Stdin  *os.File
	Logger *slog.Logger

	// Listening is called with the bound address once serve accepts clients.
	Listening func(net.Addr)
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr, Stdin: os.Stdin}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText(version.Name))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText(version.Name))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath, config.Overrides{
		Port:     parsed.Port,
		Channels: parsed.Channels,
	})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	logRuntime, err := logging.New(cfgLoaded.Config.Log.Level)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandServe:
		return r.commandServe(ctx, cfgLoaded.Config, logger)
	case cli.CommandConsole:
		return r.commandConsole(ctx, cfgLoaded.Config, parsed.Target)
	case cli.CommandSend:
		return r.commandSend(ctx, cfgLoaded.Config, parsed.Target, parsed.Lines)
	case cli.CommandStatus:
		target := parsed.Target
		if target == "" {
			target = doctor.ProbeAddr(cfgLoaded.Config.Server)
		}
		return r.commandStatus(ctx, cfgLoaded.Config, target)
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandServe(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	appliance, err := tv.New(cfg.TV.Channels)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := net.Listen("tcp", cfg.Server.Addr())
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: listen %s: %v\n", cfg.Server.Addr(), err)
		logger.Error("listen failed", "addr", cfg.Server.Addr(), "error", err.Error())
		return 1
	}

	var healthListener net.Listener
	if cfg.Health.Enable {
		healthListener, err = net.Listen("tcp", cfg.Health.Address)
		if err != nil {
			_ = listener.Close()
			fmt.Fprintf(r.Stderr, "error: listen health %s: %v\n", cfg.Health.Address, err)
			return 1
		}
	}

	srv := server.New(dispatch.New(appliance), server.Options{
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
		MaxSessions:  cfg.Server.MaxSessions,
	}, logger)

	serveCtx, stop := context.WithCancel(ctx)
	defer stop()
	group, groupCtx := errgroup.WithContext(serveCtx)

	group.Go(func() error {
		defer stop()
		return srv.Serve(groupCtx, listener)
	})

	if healthListener != nil {
		healthSrv := health.NewServer()
		healthSrv.SetServing(true)
		group.Go(func() error {
			return healthSrv.Serve(groupCtx, healthListener)
		})
		logger.Info("health endpoint", "addr", healthListener.Addr().String())
	}

	fmt.Fprintf(r.Stdout, "listening on %s (%d channels)\n", listener.Addr(), cfg.TV.Channels)
	if r.Listening != nil {
		r.Listening(listener.Addr())
	}

	if err := group.Wait(); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("server failed", "error", err.Error())
		return 1
	}
	logger.Info("server stopped")
	return 0
}

func (r Runner) commandConsole(ctx context.Context, cfg config.Config, target string) int {
	fmt.Fprintf(r.Stdout, "Connecting to %s ...\n", target)

	client, err := transport.Dial(ctx, target, cfg.Client.DialTimeout())
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: could not connect: %v\n", err)
		return 1
	}
	defer client.Close()
	fmt.Fprintf(r.Stdout, "Connected to %s\n", client.RemoteAddr())

	stdin := r.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	editor := console.NewLineEditor(stdin, r.Stdout, historyPath(cfg.Client))
	defer editor.Close()

	if err := console.Run(editor, client, r.Stdout); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintln(r.Stdout, "Exiting ...")
	return 0
}

func (r Runner) commandSend(ctx context.Context, cfg config.Config, target string, lines []string) int {
	for _, line := range lines {
		if protocol.TrimLine(line) == "" {
			fmt.Fprintln(r.Stderr, "error: blank lines get no reply; refusing to send")
			return 2
		}
	}

	replies, err := transport.Exchange(ctx, target, lines, cfg.Client.DialTimeout())
	for _, reply := range replies {
		fmt.Fprintln(r.Stdout, reply)
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	for _, reply := range replies {
		resp, err := protocol.ParseResponse(reply)
		if err != nil || !resp.IsOK() {
			return 1
		}
	}
	return 0
}

func (r Runner) commandStatus(ctx context.Context, cfg config.Config, target string) int {
	replies, err := transport.Exchange(ctx, target, []string{protocol.CommandStatus.String()}, cfg.Client.DialTimeout())
	if err != nil {
		if transport.IsConnectionRefused(err) {
			fmt.Fprintln(r.Stdout, "unreachable")
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, err := protocol.ParseResponse(replies[0])
	if err != nil || !resp.IsOK() {
		fmt.Fprintf(r.Stderr, "error: unexpected reply %q\n", replies[0])
		return 1
	}
	fmt.Fprintln(r.Stdout, strings.ToLower(resp.Payload))
	return 0
}

func historyPath(cfg config.ClientConfig) string {
	if cfg.HistoryFile != "" {
		return cfg.HistoryFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, historyFileName)
}
