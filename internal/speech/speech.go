// Package speech provides the synthesis and recognition capabilities a
// session talks through.
package speech

import (
	"context"
	"errors"
)

var (
	// ErrUnsupported indicates the capability is absent on this host.
	ErrUnsupported = errors.New("speech capability unsupported")
	// ErrInterrupted marks playback cut short by Stop or a newer Speak.
	ErrInterrupted = errors.New("speech interrupted")
	// ErrNotListening indicates a recognition result arrived while idle.
	ErrNotListening = errors.New("recognizer is not listening")
)

// Options tunes one utterance. Rate, Pitch and Volume are normalized with
// 1 as the engine default.
type Options struct {
	Rate      float64
	Pitch     float64
	Volume    float64
	VoiceHint string
}

// Utterance is one piece of text handed to a synthesizer. ID is echoed in
// playback events.
type Utterance struct {
	ID   string
	Text string
}

// PlaybackKind is the lifecycle point a PlaybackEvent reports.
type PlaybackKind string

const (
	PlaybackStarted PlaybackKind = "started"
	PlaybackEnded   PlaybackKind = "ended"
	PlaybackFailed  PlaybackKind = "failed"
)

// PlaybackEvent reports progress of one utterance.
type PlaybackEvent struct {
	UtteranceID string
	Kind        PlaybackKind
	Err         error
}

// Voice is one voice the synthesizer can use.
type Voice struct {
	Name     string
	Language string
}

// Synthesizer speaks text asynchronously. Speak returns once playback has
// been dispatched; progress arrives through the Notify callback.
type Synthesizer interface {
	Speak(ctx context.Context, u Utterance, opts Options) error
	Stop()
	Pause() error
	Resume() error
	Voices(ctx context.Context) ([]Voice, error)
	Supported() bool
	Notify(func(PlaybackEvent))
}

// Result is one recognition callback payload.
type Result struct {
	Text  string
	Final bool
}

// Recognizer delivers recognized speech while listening. In single-utterance
// mode listening ends after the first final result.
type Recognizer interface {
	StartListening(ctx context.Context, continuous bool, onResult func(Result)) error
	StopListening()
	Listening() bool
	Supported() bool
}

// Unsupported is the synthesizer used when no engine is available. The
// session degrades to a text-only transcript.
type Unsupported struct{}

func (Unsupported) Speak(context.Context, Utterance, Options) error { return ErrUnsupported }
func (Unsupported) Stop()                                           {}
func (Unsupported) Pause() error                                    { return ErrUnsupported }
func (Unsupported) Resume() error                                   { return ErrUnsupported }
func (Unsupported) Voices(context.Context) ([]Voice, error)         { return nil, ErrUnsupported }
func (Unsupported) Supported() bool                                 { return false }
func (Unsupported) Notify(func(PlaybackEvent))                      {}
