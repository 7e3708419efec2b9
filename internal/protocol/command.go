// Package protocol implements the smart TV line protocol: request parsing and
// the exact wire rendering of replies and events.
package protocol

import "strings"

// Command is the closed set of request kinds.
type Command int

const (
	CommandOn Command = iota + 1
	CommandOff
	CommandStatus
	CommandChannels
	CommandGet
	CommandSet
	CommandUp
	CommandDown
	CommandSub
	CommandUnsub
	CommandPing
)

var commandTokens = map[Command]string{
	CommandOn:       "ON",
	CommandOff:      "OFF",
	CommandStatus:   "STATUS",
	CommandChannels: "CHANNELS",
	CommandGet:      "GET",
	CommandSet:      "SET",
	CommandUp:       "UP",
	CommandDown:     "DOWN",
	CommandSub:      "SUB",
	CommandUnsub:    "UNSUB",
	CommandPing:     "PING",
}

var commandsByToken = func() map[string]Command {
	out := make(map[string]Command, len(commandTokens))
	for cmd, token := range commandTokens {
		out[token] = cmd
	}
	return out
}()

// Commands lists every command in declaration order.
func Commands() []Command {
	return []Command{
		CommandOn, CommandOff, CommandStatus, CommandChannels, CommandGet, CommandSet,
		CommandUp, CommandDown, CommandSub, CommandUnsub, CommandPing,
	}
}

// LookupCommand matches a token case-insensitively.
func LookupCommand(token string) (Command, bool) {
	cmd, ok := commandsByToken[strings.ToUpper(token)]
	return cmd, ok
}

func (c Command) String() string {
	if token, ok := commandTokens[c]; ok {
		return token
	}
	return "UNKNOWN"
}

// TakesArg reports whether the command carries an integer argument.
func (c Command) TakesArg() bool {
	return c == CommandSet
}
