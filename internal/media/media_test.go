package media

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	pulseproto "github.com/jfreymuth/pulse/proto"
	"github.com/stretchr/testify/require"
)

type fakeTrack struct {
	enabled atomic.Bool
	closed  atomic.Int32
	level   float64
}

func (f *fakeTrack) SetEnabled(v bool) { f.enabled.Store(v) }
func (f *fakeTrack) Enabled() bool     { return f.enabled.Load() }
func (f *fakeTrack) Level() float64    { return f.level }
func (f *fakeTrack) Close() error {
	f.closed.Add(1)
	return nil
}

func fakeOpener(track *fakeTrack, opened *atomic.Int32) AudioOpener {
	return func(context.Context) (AudioTrack, error) {
		opened.Add(1)
		track.SetEnabled(true)
		return track, nil
	}
}

func TestBrokerHoldsOneHandleAtATime(t *testing.T) {
	track := &fakeTrack{level: 0.25}
	var opened atomic.Int32
	broker := NewBroker(fakeOpener(track, &opened), nil)

	h, err := broker.Acquire(context.Background(), Constraints{Audio: true, Video: true})
	require.NoError(t, err)
	require.True(t, broker.Held())

	_, err = broker.Acquire(context.Background(), Constraints{Audio: true})
	require.ErrorIs(t, err, ErrBusy)
	require.Equal(t, int32(1), opened.Load())

	audioOn, videoOn := h.State()
	require.True(t, audioOn)
	require.True(t, videoOn)
	require.InDelta(t, 0.25, h.Level(), 1e-9)

	require.NoError(t, h.Release())
	require.NoError(t, h.Release())
	require.False(t, broker.Held())
	require.Equal(t, int32(1), track.closed.Load())

	h2, err := broker.Acquire(context.Background(), Constraints{Audio: true})
	require.NoError(t, err)
	require.NoError(t, h2.Release())
}

func TestHandleToggles(t *testing.T) {
	track := &fakeTrack{}
	var opened atomic.Int32
	broker := NewBroker(fakeOpener(track, &opened), nil)

	h, err := broker.Acquire(context.Background(), Constraints{Audio: true, Video: true})
	require.NoError(t, err)

	require.NoError(t, h.SetAudioEnabled(false))
	require.False(t, track.Enabled())
	require.NoError(t, h.SetVideoEnabled(false))
	audioOn, videoOn := h.State()
	require.False(t, audioOn)
	require.False(t, videoOn)
	require.True(t, broker.Held())
	require.Zero(t, track.closed.Load())

	require.NoError(t, h.SetAudioEnabled(true))
	require.True(t, track.Enabled())

	require.NoError(t, h.Release())
	require.ErrorIs(t, h.SetAudioEnabled(true), ErrReleased)
	require.ErrorIs(t, h.SetVideoEnabled(true), ErrReleased)
}

func TestHandleWithoutTracks(t *testing.T) {
	broker := NewBroker(nil, nil)

	h, err := broker.Acquire(context.Background(), Constraints{})
	require.NoError(t, err)
	require.Error(t, h.SetAudioEnabled(true))
	require.Error(t, h.SetVideoEnabled(true))
	require.Zero(t, h.Level())
	require.NoError(t, h.Release())

	_, err = broker.Acquire(context.Background(), Constraints{Audio: true})
	require.ErrorIs(t, err, ErrUnsupported)
	require.False(t, broker.Held())

	var nilHandle *Handle
	require.NoError(t, nilHandle.Release())
}

func TestBrokerOpenFailureDoesNotHold(t *testing.T) {
	broker := NewBroker(func(context.Context) (AudioTrack, error) {
		return nil, errors.New("device busy")
	}, nil)

	_, err := broker.Acquire(context.Background(), Constraints{Audio: true})
	require.Error(t, err)
	require.Contains(t, err.Error(), "open audio")
	require.False(t, broker.Held())
}

func TestChoosePrimaryDefault(t *testing.T) {
	devices := []Device{
		{ID: "elgato", Description: "Elgato Wave 3 Mono", Available: true, Default: true},
		{ID: "sony", Description: "Sony WH-1000XM6", Available: true},
	}

	selection, err := choose(devices, "default", "default")
	require.NoError(t, err)
	require.Equal(t, "elgato", selection.Device.ID)
	require.Empty(t, selection.Warning)

	selection, err = choose(devices, "wh-1000", "")
	require.NoError(t, err)
	require.Equal(t, "sony", selection.Device.ID)
}

func TestChooseMutedPrimaryUsesFallback(t *testing.T) {
	devices := []Device{
		{ID: "elgato", Description: "Elgato Wave 3 Mono", Available: true, Muted: true, Default: true},
		{ID: "sony", Description: "Sony WH-1000XM6", Available: true},
	}

	selection, err := choose(devices, "elgato", "sony")
	require.NoError(t, err)
	require.Equal(t, "sony", selection.Device.ID)
	require.Contains(t, selection.Warning, "muted")
	require.True(t, selection.Fallback)
}

func TestChooseFailures(t *testing.T) {
	muted := []Device{{ID: "elgato", Available: true, Muted: true, Default: true}}
	_, err := choose(muted, "default", "default")
	require.Error(t, err)
	require.Contains(t, err.Error(), "muted")

	_, err = choose([]Device{{ID: "elgato", Available: true, Default: true}}, "missing", "default")
	require.Error(t, err)
	require.Contains(t, err.Error(), "did not match")

	_, err = choose(nil, "default", "default")
	require.Error(t, err)

	_, err = choose([]Device{{ID: "usb", Available: false}}, "usb", "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "default audio source")
}

func TestSourceStateAndPortAvailability(t *testing.T) {
	require.Equal(t, "running", sourceState(0))
	require.Equal(t, "suspended", sourceState(2))
	require.Equal(t, "unknown(99)", sourceState(99))

	require.True(t, portAvailable(&pulseproto.GetSourceInfoReply{ActivePortName: "mic"}))
}

func TestRMS(t *testing.T) {
	require.Zero(t, rms(nil))

	silent := make([]byte, 8)
	require.Zero(t, rms(silent))

	loud := make([]byte, 4)
	binary.LittleEndian.PutUint16(loud[0:], uint16(math.MaxInt16))
	v := int16(-math.MaxInt16)
	binary.LittleEndian.PutUint16(loud[2:], uint16(v))
	require.InDelta(t, 1.0, rms(loud), 1e-9)
}

func TestListDevicesFailsWhenPulseUnavailable(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	_, err := ListDevices(context.Background())
	require.ErrorIs(t, err, ErrUnsupported)

	_, err = PulseOpener("default", "default", nil)(context.Background())
	require.ErrorIs(t, err, ErrUnsupported)
}
