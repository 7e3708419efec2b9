// Package dispatch maps parsed protocol requests onto the appliance and
// translates domain failures into protocol replies.
package dispatch

import (
	"errors"
	"fmt"

	"github.com/rbright/tvremote/internal/protocol"
	"github.com/rbright/tvremote/internal/tv"
)

// ErrUnhandledCommand is returned for a command with no dispatch arm.
var ErrUnhandledCommand = errors.New("unhandled command")

// Appliance is the state the dispatcher drives.
type Appliance interface {
	TurnOn()
	TurnOff()
	IsOn() bool
	ChannelCount() (int, error)
	Channel() (int, error)
	SetChannel(n int) (int, error)
	ChannelUp() (int, error)
	ChannelDown() (int, error)
}

type failureReply struct {
	err   error
	reply func() protocol.Response
}

// failureReplies lists, per command, the domain failures that have a
// protocol reply. Anything else surfaces as an error.
var failureReplies = map[protocol.Command][]failureReply{
	protocol.CommandChannels: {
		{err: tv.ErrNotOn, reply: protocol.ReplyTVOff},
	},
	protocol.CommandGet: {
		{err: tv.ErrNotOn, reply: protocol.ReplyTVOff},
	},
	protocol.CommandSet: {
		{err: tv.ErrNotOn, reply: protocol.ReplyTVOff},
		{err: tv.ErrOutOfRange, reply: protocol.ReplyOutOfRange},
	},
	protocol.CommandUp: {
		{err: tv.ErrNotOn, reply: protocol.ReplyTVOff},
		{err: tv.ErrAtMax, reply: protocol.ReplyInvalidState},
	},
	protocol.CommandDown: {
		{err: tv.ErrNotOn, reply: protocol.ReplyTVOff},
		{err: tv.ErrAtMin, reply: protocol.ReplyInvalidState},
	},
}

// Dispatcher holds no state of its own beyond the appliance it drives.
type Dispatcher struct {
	appliance Appliance
}

func New(appliance Appliance) *Dispatcher {
	return &Dispatcher{appliance: appliance}
}

// HandleLine parses and dispatches one line. Every parse failure, including
// an empty line, becomes ERR 400 BAD_COMMAND. A non-nil error means the
// request could not be answered and the caller owns the fallback reply.
func (d *Dispatcher) HandleLine(line string) (protocol.Response, error) {
	req, err := protocol.ParseRequest(line)
	if err != nil {
		return protocol.ReplyBadCommand(), nil
	}
	return d.Dispatch(req)
}

// Dispatch executes one request.
func (d *Dispatcher) Dispatch(req protocol.Request) (protocol.Response, error) {
	switch req.Command {
	case protocol.CommandStatus:
		return protocol.ReplyStatus(d.appliance.IsOn()), nil
	case protocol.CommandOn:
		d.appliance.TurnOn()
		return protocol.ReplyOK(), nil
	case protocol.CommandOff:
		d.appliance.TurnOff()
		return protocol.ReplyOK(), nil
	case protocol.CommandChannels:
		count, err := d.appliance.ChannelCount()
		return result(req.Command, protocol.ReplyChannels, count, err)
	case protocol.CommandGet:
		ch, err := d.appliance.Channel()
		return result(req.Command, protocol.ReplyChannel, ch, err)
	case protocol.CommandSet:
		ch, err := d.appliance.SetChannel(req.Arg)
		return result(req.Command, protocol.ReplyChannel, ch, err)
	case protocol.CommandUp:
		ch, err := d.appliance.ChannelUp()
		return result(req.Command, protocol.ReplyChannel, ch, err)
	case protocol.CommandDown:
		ch, err := d.appliance.ChannelDown()
		return result(req.Command, protocol.ReplyChannel, ch, err)
	case protocol.CommandPing:
		return protocol.ReplyOK(), nil
	case protocol.CommandSub, protocol.CommandUnsub:
		// TODO: wire to an event subscription once EVT delivery is designed.
		return protocol.ReplyBadCommand(), nil
	default:
		return protocol.Response{}, fmt.Errorf("%w: %s", ErrUnhandledCommand, req.Command)
	}
}

func result(cmd protocol.Command, ok func(int) protocol.Response, value int, err error) (protocol.Response, error) {
	if err == nil {
		return ok(value), nil
	}
	for _, f := range failureReplies[cmd] {
		if errors.Is(err, f.err) {
			return f.reply(), nil
		}
	}
	return protocol.Response{}, fmt.Errorf("dispatch %s: %w", cmd, err)
}
