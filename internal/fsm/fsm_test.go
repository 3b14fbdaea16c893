package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionHappyPath(t *testing.T) {
	s := StateIdle

	next, err := Transition(s, EventStart)
	require.NoError(t, err)
	require.Equal(t, StateGreeting, next)

	next, err = Transition(next, EventAsked)
	require.NoError(t, err)
	require.Equal(t, StateAwaitingAnswer, next)

	next, err = Transition(next, EventAnswered)
	require.NoError(t, err)
	require.Equal(t, StateEvaluating, next)

	next, err = Transition(next, EventResponded)
	require.NoError(t, err)
	require.Equal(t, StateAwaitingAnswer, next)

	next, err = Transition(next, EventExhausted)
	require.NoError(t, err)
	require.Equal(t, StateConcluded, next)
}

func TestTransitionEndFromAnyStateConcludes(t *testing.T) {
	states := []State{StateIdle, StateGreeting, StateAwaitingAnswer, StateEvaluating, StateConcluded}
	for _, state := range states {
		next, err := Transition(state, EventEnd)
		require.NoError(t, err)
		require.Equal(t, StateConcluded, next)
	}
}

func TestTransitionConcludedRestarts(t *testing.T) {
	next, err := Transition(StateConcluded, EventStart)
	require.NoError(t, err)
	require.Equal(t, StateGreeting, next)
}

func TestTransitionMatrixInvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		event   Event
		want    State
		wantErr bool
	}{
		{name: "idle answered invalid", state: StateIdle, event: EventAnswered, want: StateIdle, wantErr: true},
		{name: "idle asked invalid", state: StateIdle, event: EventAsked, want: StateIdle, wantErr: true},
		{name: "greeting start invalid", state: StateGreeting, event: EventStart, want: StateGreeting, wantErr: true},
		{name: "greeting answered invalid", state: StateGreeting, event: EventAnswered, want: StateGreeting, wantErr: true},
		{name: "awaiting start invalid", state: StateAwaitingAnswer, event: EventStart, want: StateAwaitingAnswer, wantErr: true},
		{name: "awaiting responded invalid", state: StateAwaitingAnswer, event: EventResponded, want: StateAwaitingAnswer, wantErr: true},
		{name: "evaluating answered invalid", state: StateEvaluating, event: EventAnswered, want: StateEvaluating, wantErr: true},
		{name: "evaluating exhausted invalid", state: StateEvaluating, event: EventExhausted, want: StateEvaluating, wantErr: true},
		{name: "concluded answered invalid", state: StateConcluded, event: EventAnswered, want: StateConcluded, wantErr: true},
		{name: "evaluating responded valid", state: StateEvaluating, event: EventResponded, want: StateAwaitingAnswer, wantErr: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Transition(tc.state, tc.event)
			require.Equal(t, tc.want, next)
			if tc.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), "invalid transition")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTransitionUnknownState(t *testing.T) {
	next, err := Transition(State("mystery"), EventEnd)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown state")
	require.Equal(t, State("mystery"), next)
}

func TestActive(t *testing.T) {
	require.False(t, Active(StateIdle))
	require.True(t, Active(StateGreeting))
	require.True(t, Active(StateAwaitingAnswer))
	require.True(t, Active(StateEvaluating))
	require.False(t, Active(StateConcluded))
}
