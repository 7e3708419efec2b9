package cli

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/spf13/pflag"
)

type Command string

const (
	CommandServe   Command = "serve"
	CommandConsole Command = "console"
	CommandSend    Command = "send"
	CommandStatus  Command = "status"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandServe:   {},
	CommandConsole: {},
	CommandSend:    {},
	CommandStatus:  {},
	CommandDoctor:  {},
	CommandVersion: {},
	CommandHelp:    {},
}

type Parsed struct {
	Command    Command
	ConfigPath string
	ShowHelp   bool

	// Port and Channels are zero unless the flag was given.
	Port     int
	Channels int

	// Target is host:port for client commands; empty means the configured server.
	Target string
	Lines  []string
}

func Parse(args []string) (Parsed, error) {
	fs := pflag.NewFlagSet("tvremote", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	configPath := fs.String("config", "", "config file path")
	showHelp := fs.BoolP("help", "h", false, "show help")
	showVersion := fs.Bool("version", false, "show version")
	port := fs.Int("port", 0, "serve: listen port")
	channels := fs.Int("channels", 0, "serve: channel count")

	if err := fs.Parse(args); err != nil {
		return Parsed{}, err
	}
	if fs.Changed("config") && *configPath == "" {
		return Parsed{}, errors.New("--config requires a path")
	}

	parsed := Parsed{Command: CommandHelp, ShowHelp: true, ConfigPath: *configPath}
	switch {
	case *showHelp:
		return parsed, nil
	case *showVersion:
		parsed.Command = CommandVersion
		parsed.ShowHelp = false
		return parsed, nil
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return parsed, nil
	}

	cmd := Command(rest[0])
	if _, ok := validCommands[cmd]; !ok {
		return Parsed{}, fmt.Errorf("unknown command: %s", rest[0])
	}
	parsed.Command = cmd
	parsed.ShowHelp = cmd == CommandHelp
	positional := rest[1:]

	if cmd != CommandServe && (fs.Changed("port") || fs.Changed("channels")) {
		return Parsed{}, fmt.Errorf("--port and --channels are only valid for %s", CommandServe)
	}

	switch cmd {
	case CommandServe:
		if fs.Changed("port") {
			if *port < 1 || *port > 65535 {
				return Parsed{}, fmt.Errorf("--port must be within 1..65535")
			}
			parsed.Port = *port
		}
		if fs.Changed("channels") {
			if *channels < 1 {
				return Parsed{}, fmt.Errorf("--channels must be >= 1")
			}
			parsed.Channels = *channels
		}
		return parsed, noPositional(cmd, positional)
	case CommandConsole:
		if len(positional) != 2 {
			return Parsed{}, fmt.Errorf("%s requires <host> <port>", cmd)
		}
	case CommandSend:
		if len(positional) < 3 {
			return Parsed{}, fmt.Errorf("%s requires <host> <port> <line>...", cmd)
		}
		parsed.Lines = append([]string(nil), positional[2:]...)
	case CommandStatus:
		if len(positional) == 0 {
			return parsed, nil
		}
		if len(positional) != 2 {
			return Parsed{}, fmt.Errorf("%s takes either no arguments or <host> <port>", cmd)
		}
	default:
		return parsed, noPositional(cmd, positional)
	}

	target, err := joinTarget(positional[0], positional[1])
	if err != nil {
		return Parsed{}, err
	}
	parsed.Target = target
	return parsed, nil
}

func noPositional(cmd Command, positional []string) error {
	if len(positional) > 0 {
		return fmt.Errorf("unexpected arguments after command %q", cmd)
	}
	return nil
}

func joinTarget(host, port string) (string, error) {
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return "", fmt.Errorf("invalid port %q", port)
	}
	return net.JoinHostPort(host, port), nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command> [args]

Commands:
  serve [--port N] [--channels N]    Run the TV server (default port 1238)
  console <host> <port>              Interactive remote control session
  send <host> <port> <line>...       Send each line and print one reply per line
  status [<host> <port>]             Print the TV power state (on|off)
  doctor                             Run configuration and connectivity checks
  version                            Print version information
  help                               Show this help

Flags:
  --config PATH   Config file path (default: $TVREMOTE_CONFIG, then $XDG_CONFIG_HOME/tvremote/config.jsonc)
  -h, --help      Show help
  --version       Show version

Lines starting with '-' must follow '--', e.g. %[1]s send host 1238 -- "SET -1"
`, binaryName)
}
