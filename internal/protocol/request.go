package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxLineLength is the longest accepted trimmed line, in characters.
const MaxLineLength = 256

// ErrBadCommand matches every parse failure. All of them render as
// ERR 400 BAD_COMMAND on the wire.
var ErrBadCommand = errors.New("bad command")

// Reason is the diagnostic cause of a parse failure. It never reaches the wire.
type Reason string

const (
	ReasonEmptyLine   Reason = "EMPTY_LINE"
	ReasonLineTooLong Reason = "LINE_TOO_LONG"
	ReasonUnknownCmd  Reason = "UNKNOWN_CMD"
	ReasonArgCount    Reason = "ARG_COUNT"
	ReasonArgNotInt   Reason = "ARG_NOT_INT"
	ReasonExtraArgs   Reason = "EXTRA_ARGS"
)

// ParseError describes why a line could not become a Request.
type ParseError struct {
	Reason Reason
	Token  string
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("bad command: %s", e.Reason)
	}
	return fmt.Sprintf("bad command: %s (%q)", e.Reason, e.Token)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrBadCommand
}

// Request is one parsed line. Arg is only meaningful when Command.TakesArg.
type Request struct {
	Command Command
	Arg     int
}

func (r Request) String() string {
	if r.Command.TakesArg() {
		return r.Command.String() + " " + strconv.Itoa(r.Arg)
	}
	return r.Command.String()
}

// TrimLine strips leading and trailing ASCII control characters and spaces.
// Other Unicode spacing, such as U+00A0, stays part of the line.
func TrimLine(line string) string {
	return strings.TrimFunc(line, func(r rune) bool { return r <= ' ' })
}

// isSeparator reports the ASCII whitespace that splits tokens.
func isSeparator(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// ParseRequest parses a single line without its terminator.
func ParseRequest(line string) (Request, error) {
	trimmed := TrimLine(line)
	if trimmed == "" {
		return Request{}, &ParseError{Reason: ReasonEmptyLine}
	}
	if utf8.RuneCountInString(trimmed) > MaxLineLength {
		return Request{}, &ParseError{Reason: ReasonLineTooLong}
	}

	parts := strings.FieldsFunc(trimmed, isSeparator)
	cmd, ok := LookupCommand(parts[0])
	if !ok {
		return Request{}, &ParseError{Reason: ReasonUnknownCmd, Token: parts[0]}
	}
	args := parts[1:]

	if !cmd.TakesArg() {
		if len(args) != 0 {
			return Request{}, &ParseError{Reason: ReasonExtraArgs, Token: args[0]}
		}
		return Request{Command: cmd}, nil
	}

	if len(args) != 1 {
		return Request{}, &ParseError{Reason: ReasonArgCount, Token: strings.Join(args, " ")}
	}
	n, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		return Request{}, &ParseError{Reason: ReasonArgNotInt, Token: args[0]}
	}
	return Request{Command: cmd, Arg: int(n)}, nil
}
