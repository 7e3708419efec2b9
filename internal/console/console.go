// Package console is the operator-facing remote control loop. Protocol lines
// are forwarded verbatim; help and exit are handled locally.
package console

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rbright/tvremote/internal/protocol"
	"github.com/rbright/tvremote/internal/transport"
)

const Prompt = "smarttv> "

// Exchanger performs one request/reply round trip.
type Exchanger interface {
	SendAndReceive(line string) (string, error)
}

// Run drives the console until the operator exits, input ends, or the server
// closes the connection. Only transport failures are returned.
func Run(source LineSource, client Exchanger, stdout io.Writer) error {
	printWelcome(stdout)

	for {
		raw, err := source.GetLine(Prompt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(stdout)
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		line := protocol.TrimLine(raw)
		if line == "" {
			continue
		}

		switch strings.ToLower(line) {
		case "exit", "quit":
			return nil
		case "help", "?":
			fmt.Fprint(stdout, HelpText)
			continue
		}

		reply, err := client.SendAndReceive(line)
		if err != nil {
			if errors.Is(err, transport.ErrClosed) {
				fmt.Fprintln(stdout, "(connection closed by server)")
				return nil
			}
			return err
		}
		fmt.Fprintln(stdout, reply)
	}
}

func printWelcome(w io.Writer) {
	fmt.Fprintln(w, "Type protocol commands (e.g., ON, OFF, STATUS, CHANNELS, GET, SET 5)")
	fmt.Fprintln(w, "Local commands: help, exit")
}

// HelpText lists the protocol commands and their replies.
const HelpText = `Commands (sent to server):
  STATUS                 -> OK ON|OFF
  ON / OFF               -> OK
  CHANNELS               -> OK C=<int>
  GET                    -> OK CH=<int>
  SET <n>                -> OK CH=<n> (ERR 404 outside 1..C)
  UP / DOWN              -> OK CH=<n> (ERR 409 at edges)
  PING                   -> OK
Errors: ERR 400 bad command, ERR 401 TV is off, ERR 500 server fault
Local commands:
  help, ?, exit, quit
`
