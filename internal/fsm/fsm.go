// Package fsm defines the appliance power state machine.
package fsm

import "fmt"

type State string

type Event string

const (
	StateOff State = "off"
	StateOn  State = "on"
)

const (
	EventPowerOn  Event = "power_on"
	EventPowerOff Event = "power_off"
)

// Transition is total for the power events: both are accepted in every
// known state, and re-entering the current state is a no-op.
func Transition(current State, event Event) (State, error) {
	switch current {
	case StateOff, StateOn:
		switch event {
		case EventPowerOn:
			return StateOn, nil
		case EventPowerOff:
			return StateOff, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
