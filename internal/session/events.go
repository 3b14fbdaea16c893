package session

import (
	"github.com/rbright/rehearse/internal/ipc"
	"github.com/rbright/rehearse/internal/speech"
)

type timerKind int

const (
	timerGreeting timerKind = iota + 1
	timerResponse
)

// timerEvent fires for the session generation that scheduled it.
type timerEvent struct {
	gen  uint64
	kind timerKind
}

type recognizedEvent struct {
	gen    uint64
	result speech.Result
}

type playbackEvent struct {
	event speech.PlaybackEvent
}

// commandEvent carries an operator command and its reply slot.
type commandEvent struct {
	req   ipc.Request
	reply chan ipc.Response
}
