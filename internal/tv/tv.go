// Package tv holds the simulated appliance state shared by every session.
package tv

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rbright/tvremote/internal/fsm"
)

// MinChannel is the lowest valid channel number.
const MinChannel = 1

// Domain failures. They are expected outcomes of a state-dependent
// operation and never indicate a fault.
var (
	ErrNotOn      = errors.New("tv is not on")
	ErrOutOfRange = errors.New("channel out of range")
	ErrAtMax      = errors.New("already at highest channel")
	ErrAtMin      = errors.New("already at lowest channel")
)

// TV is the single shared appliance record.
//
// mu is the sole source of thread-safety: every operation that reads or
// writes channel state holds it for its full duration. on mirrors the power
// state so IsOn can answer without the lock.
type TV struct {
	mu       sync.Mutex
	power    fsm.State
	channels int
	current  int

	on atomic.Bool
}

// Snapshot is a consistent copy of the appliance state.
type Snapshot struct {
	On       bool
	Channels int
	Current  int
}

// New builds a powered-off TV on channel 1 with a fixed channel count.
func New(channels int) (*TV, error) {
	if channels < MinChannel {
		return nil, fmt.Errorf("channel count must be >= %d, got %d", MinChannel, channels)
	}
	return &TV{
		power:    fsm.StateOff,
		channels: channels,
		current:  MinChannel,
	}, nil
}

func (t *TV) TurnOn() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.apply(fsm.EventPowerOn)
}

func (t *TV) TurnOff() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.apply(fsm.EventPowerOff)
}

// IsOn reports the power state without taking the lock.
func (t *TV) IsOn() bool {
	return t.on.Load()
}

// ChannelCount returns the fixed number of channels.
func (t *TV) ChannelCount() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.ensureOn(); err != nil {
		return 0, err
	}
	return t.channels, nil
}

// Channel returns the current channel.
func (t *TV) Channel() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.ensureOn(); err != nil {
		return 0, err
	}
	return t.current, nil
}

// SetChannel tunes to n and returns the channel now selected.
func (t *TV) SetChannel(n int) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.ensureOn(); err != nil {
		return 0, err
	}
	if n < MinChannel || n > t.channels {
		return 0, fmt.Errorf("%w: %d not in [%d, %d]", ErrOutOfRange, n, MinChannel, t.channels)
	}
	t.current = n
	return t.current, nil
}

// ChannelUp moves one channel up. It fails at the highest channel instead of
// wrapping.
func (t *TV) ChannelUp() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.ensureOn(); err != nil {
		return 0, err
	}
	if t.current == t.channels {
		return 0, ErrAtMax
	}
	t.current++
	return t.current, nil
}

// ChannelDown moves one channel down. It fails at channel 1 instead of
// wrapping.
func (t *TV) ChannelDown() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.ensureOn(); err != nil {
		return 0, err
	}
	if t.current == MinChannel {
		return 0, ErrAtMin
	}
	t.current--
	return t.current, nil
}

// Snapshot returns the full state regardless of power.
func (t *TV) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		On:       t.power == fsm.StateOn,
		Channels: t.channels,
		Current:  t.current,
	}
}

// apply must be called with mu held. A rejected transition is a programming
// error in this package and panics.
func (t *TV) apply(event fsm.Event) {
	next, err := fsm.Transition(t.power, event)
	if err != nil {
		panic(fmt.Sprintf("tv: %v", err))
	}
	t.power = next
	t.on.Store(next == fsm.StateOn)
}

// ensureOn must be called with mu held.
func (t *TV) ensureOn() error {
	if t.power != fsm.StateOn {
		return ErrNotOn
	}
	return nil
}
