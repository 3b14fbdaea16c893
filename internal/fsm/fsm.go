package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle           State = "idle"
	StateGreeting       State = "greeting"
	StateAwaitingAnswer State = "awaiting_answer"
	StateEvaluating     State = "evaluating"
	StateConcluded      State = "concluded"
)

const (
	EventStart     Event = "start"
	EventAsked     Event = "asked"
	EventAnswered  Event = "answered"
	EventResponded Event = "responded"
	EventExhausted Event = "exhausted"
	EventEnd       Event = "end"
)

func Transition(current State, event Event) (State, error) {
	switch current {
	case StateIdle, StateGreeting, StateAwaitingAnswer, StateEvaluating, StateConcluded:
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}

	if event == EventEnd {
		return StateConcluded, nil
	}

	switch current {
	case StateIdle, StateConcluded:
		switch event {
		case EventStart:
			return StateGreeting, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateGreeting:
		switch event {
		case EventAsked:
			return StateAwaitingAnswer, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateAwaitingAnswer:
		switch event {
		case EventAnswered:
			return StateEvaluating, nil
		case EventExhausted:
			return StateConcluded, nil
		default:
			return current, invalidTransition(current, event)
		}
	default:
		switch event {
		case EventResponded:
			return StateAwaitingAnswer, nil
		default:
			return current, invalidTransition(current, event)
		}
	}
}

// Active reports whether a session is live in state.
func Active(state State) bool {
	switch state {
	case StateGreeting, StateAwaitingAnswer, StateEvaluating:
		return true
	default:
		return false
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
