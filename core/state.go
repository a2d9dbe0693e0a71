package orchestration

import "fmt"

// State is a session lifecycle state. Ended is terminal: one orchestrator
// serves exactly one conversation.
type State string

type Event string

const (
	StateUnconfigured State = "unconfigured"
	StateBuilding     State = "building"
	StateReady        State = "ready"
	StateActive       State = "active"
	StateEnded        State = "ended"
)

const (
	EventStart    Event = "start"
	EventBuilt    Event = "built"
	EventActivate Event = "activate"
	EventFail     Event = "fail"
	EventStop     Event = "stop"
)

func Transition(current State, event Event) (State, error) {
	switch current {
	case StateUnconfigured:
		switch event {
		case EventStart:
			return StateBuilding, nil
		case EventStop:
			return StateEnded, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateBuilding:
		switch event {
		case EventBuilt:
			return StateReady, nil
		case EventFail, EventStop:
			return StateEnded, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateReady:
		switch event {
		case EventActivate:
			return StateActive, nil
		case EventFail, EventStop:
			return StateEnded, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateActive:
		switch event {
		case EventFail, EventStop:
			return StateEnded, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateEnded:
		switch event {
		case EventStop:
			return StateEnded, nil
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
