package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// CRLF terminates every line on the wire.
const CRLF = "\r\n"

// Kind is the leading token of a server line.
type Kind int

const (
	KindOK Kind = iota + 1
	KindErr
	KindEvent
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "OK"
	case KindErr:
		return "ERR"
	case KindEvent:
		return "EVT"
	default:
		return "UNKNOWN"
	}
}

// Status codes carried by ERR replies.
const (
	CodeBadRequest   = 400
	CodeTVOff        = 401
	CodeOutOfRange   = 404
	CodeInvalidState = 409
	CodeServerError  = 500
)

// Error tokens carried by ERR replies.
const (
	TokenBadCommand   = "BAD_COMMAND"
	TokenLineTooLong  = "LINE_TOO_LONG"
	TokenTVOff        = "TV_OFF"
	TokenOutOfRange   = "OUT_OF_RANGE"
	TokenInvalidState = "INVALID_STATE"
	TokenServerError  = "SERVER_ERROR"
)

// ErrMalformedResponse is returned when a server line cannot be classified.
var ErrMalformedResponse = errors.New("malformed response")

// Response is one server line: OK with an optional payload, ERR with a code
// and token, or EVT with a payload.
type Response struct {
	Kind    Kind
	Payload string
	Code    int
	Token   string
}

// String renders the line without its terminator.
func (r Response) String() string {
	switch r.Kind {
	case KindOK:
		if r.Payload == "" {
			return "OK"
		}
		return "OK " + r.Payload
	case KindErr:
		return fmt.Sprintf("ERR %d %s", r.Code, r.Token)
	case KindEvent:
		return "EVT " + r.Payload
	default:
		return fmt.Sprintf("ERR %d %s", CodeServerError, TokenServerError)
	}
}

// Wire renders the line with its CRLF terminator.
func (r Response) Wire() string {
	return r.String() + CRLF
}

func (r Response) IsOK() bool {
	return r.Kind == KindOK
}

func ReplyOK() Response {
	return Response{Kind: KindOK}
}

func ReplyStatus(on bool) Response {
	if on {
		return Response{Kind: KindOK, Payload: "ON"}
	}
	return Response{Kind: KindOK, Payload: "OFF"}
}

func ReplyChannels(count int) Response {
	return Response{Kind: KindOK, Payload: "C=" + strconv.Itoa(count)}
}

func ReplyChannel(ch int) Response {
	return Response{Kind: KindOK, Payload: "CH=" + strconv.Itoa(ch)}
}

func ReplyPong() Response {
	return Response{Kind: KindOK, Payload: "PONG"}
}

func ReplyBadCommand() Response {
	return errReply(CodeBadRequest, TokenBadCommand)
}

func ReplyLineTooLong() Response {
	return errReply(CodeBadRequest, TokenLineTooLong)
}

func ReplyTVOff() Response {
	return errReply(CodeTVOff, TokenTVOff)
}

func ReplyOutOfRange() Response {
	return errReply(CodeOutOfRange, TokenOutOfRange)
}

func ReplyInvalidState() Response {
	return errReply(CodeInvalidState, TokenInvalidState)
}

func ReplyServerError() Response {
	return errReply(CodeServerError, TokenServerError)
}

// Events are rendered for the subscription extension point; no command path
// emits them yet.

func EventChannel(ch int) Response {
	return Response{Kind: KindEvent, Payload: "CHANNEL" + strconv.Itoa(ch)}
}

func EventPowerOn() Response {
	return Response{Kind: KindEvent, Payload: "POWER ON"}
}

func EventPowerOff() Response {
	return Response{Kind: KindEvent, Payload: "POWER OFF"}
}

func errReply(code int, token string) Response {
	return Response{Kind: KindErr, Code: code, Token: token}
}

// ParseResponse classifies a server line received by a client. The line may
// still carry its terminator.
func ParseResponse(line string) (Response, error) {
	line = strings.TrimRight(line, "\r\n")
	head, rest, _ := strings.Cut(line, " ")

	switch head {
	case "OK":
		return Response{Kind: KindOK, Payload: rest}, nil
	case "EVT":
		if rest == "" {
			return Response{}, fmt.Errorf("%w: %q", ErrMalformedResponse, line)
		}
		return Response{Kind: KindEvent, Payload: rest}, nil
	case "ERR":
		codeText, token, ok := strings.Cut(rest, " ")
		if !ok || token == "" {
			return Response{}, fmt.Errorf("%w: %q", ErrMalformedResponse, line)
		}
		code, err := strconv.Atoi(codeText)
		if err != nil {
			return Response{}, fmt.Errorf("%w: %q", ErrMalformedResponse, line)
		}
		return Response{Kind: KindErr, Code: code, Token: token}, nil
	default:
		return Response{}, fmt.Errorf("%w: %q", ErrMalformedResponse, line)
	}
}
