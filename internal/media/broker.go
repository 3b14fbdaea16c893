package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// ErrUnsupported indicates no capture backend is reachable on this host.
	ErrUnsupported = errors.New("media capture unsupported")
	// ErrBusy indicates another handle already holds the devices.
	ErrBusy = errors.New("media devices already in use")
	// ErrReleased indicates use of a handle after Release.
	ErrReleased = errors.New("media handle released")
)

// Constraints selects which tracks a handle opens.
type Constraints struct {
	Audio bool
	Video bool
}

// Capability hands out capture handles.
type Capability interface {
	Acquire(ctx context.Context, c Constraints) (*Handle, error)
}

// AudioOpener opens the audio track for a new handle.
type AudioOpener func(ctx context.Context) (AudioTrack, error)

// PulseOpener selects the configured input and opens a Microphone on it.
func PulseOpener(input, fallback string, logger *slog.Logger) AudioOpener {
	return func(ctx context.Context) (AudioTrack, error) {
		selection, err := SelectDevice(ctx, input, fallback)
		if err != nil {
			return nil, err
		}
		if selection.Warning != "" && logger != nil {
			logger.Warn("audio device fallback", "warning", selection.Warning)
		}
		return OpenMicrophone(ctx, selection.Device)
	}
}

// Broker enforces a single live handle per process.
type Broker struct {
	open   AudioOpener
	logger *slog.Logger

	mu     sync.Mutex
	holder *Handle
}

func NewBroker(open AudioOpener, logger *slog.Logger) *Broker {
	return &Broker{open: open, logger: logger}
}

// Acquire opens the requested tracks. It fails with ErrBusy while another
// handle is held.
func (b *Broker) Acquire(ctx context.Context, c Constraints) (*Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.holder != nil {
		return nil, ErrBusy
	}

	h := &Handle{broker: b, videoOn: c.Video, hasVideo: c.Video}
	if c.Audio {
		if b.open == nil {
			return nil, ErrUnsupported
		}
		track, err := b.open(ctx)
		if err != nil {
			if errors.Is(err, ErrUnsupported) {
				return nil, err
			}
			return nil, fmt.Errorf("open audio: %w", err)
		}
		h.audio = track
	}

	b.holder = h
	if b.logger != nil {
		b.logger.Debug("media acquired", "audio", c.Audio, "video", c.Video)
	}
	return h, nil
}

// Held reports whether a handle is currently outstanding.
func (b *Broker) Held() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.holder != nil
}

func (b *Broker) release(h *Handle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.holder == h {
		b.holder = nil
	}
}

// Handle is one acquisition. The video track is logical: toggling it never
// releases anything.
type Handle struct {
	broker *Broker

	mu       sync.Mutex
	audio    AudioTrack
	hasVideo bool
	videoOn  bool
	released bool
}

// SetAudioEnabled pauses or resumes the audio track.
func (h *Handle) SetAudioEnabled(enabled bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return ErrReleased
	}
	if h.audio == nil {
		return fmt.Errorf("handle has no audio track")
	}
	h.audio.SetEnabled(enabled)
	return nil
}

// SetVideoEnabled flips the logical video track.
func (h *Handle) SetVideoEnabled(enabled bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return ErrReleased
	}
	if !h.hasVideo {
		return fmt.Errorf("handle has no video track")
	}
	h.videoOn = enabled
	return nil
}

// State reports the track flags for status output.
func (h *Handle) State() (audioOn, videoOn bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.audio != nil {
		audioOn = h.audio.Enabled()
	}
	return audioOn, h.videoOn
}

// Level is the current audio input level, zero without audio.
func (h *Handle) Level() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.audio == nil {
		return 0
	}
	return h.audio.Level()
}

// Release stops every track and frees the broker. It is safe to call more
// than once and on a nil handle.
func (h *Handle) Release() error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	if h.released {
		h.mu.Unlock()
		return nil
	}
	h.released = true
	audio := h.audio
	h.audio = nil
	h.videoOn = false
	h.mu.Unlock()

	var err error
	if audio != nil {
		err = audio.Close()
	}
	h.broker.release(h)
	return err
}
