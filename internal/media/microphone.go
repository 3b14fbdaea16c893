package media

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const (
	sampleRate   = 16000
	fragmentSize = 640 // 20ms of mono s16
)

// AudioTrack is a capture stream that can be paused without releasing the device.
type AudioTrack interface {
	SetEnabled(bool)
	Enabled() bool
	Level() float64
	Close() error
}

// Microphone is a Pulse record stream that tracks the input level of the
// most recent fragment. Disabled tracks keep the stream open but stopped.
type Microphone struct {
	device Device
	client *pulse.Client
	stream *pulse.RecordStream

	mu      sync.Mutex
	enabled bool
	closed  bool
	level   float64
}

// OpenMicrophone connects to Pulse and starts recording from device.
func OpenMicrophone(_ context.Context, device Device) (*Microphone, error) {
	client, err := newPulseClient()
	if err != nil {
		return nil, err
	}

	source, err := client.SourceByID(device.ID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("resolve source %q: %w", device.ID, err)
	}

	mic := &Microphone{device: device, client: client}
	stream, err := client.NewRecord(
		pulse.NewWriter(pcmSink(mic.onPCM), pulseproto.FormatInt16LE),
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(sampleRate),
		pulse.RecordBufferFragmentSize(fragmentSize),
		pulse.RecordMediaName("rehearse microphone"),
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}

	mic.stream = stream
	mic.SetEnabled(true)
	return mic, nil
}

func (m *Microphone) Device() Device { return m.device }

// SetEnabled starts or stops the record stream.
func (m *Microphone) SetEnabled(enabled bool) {
	m.mu.Lock()
	if m.closed || m.enabled == enabled {
		m.mu.Unlock()
		return
	}
	m.enabled = enabled
	if !enabled {
		m.level = 0
	}
	m.mu.Unlock()

	// Stream calls wait on the Pulse reader goroutine, which also runs onPCM.
	if enabled {
		m.stream.Start()
	} else {
		m.stream.Stop()
	}
}

func (m *Microphone) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

// Level is the RMS of the latest fragment in [0, 1].
func (m *Microphone) Level() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

func (m *Microphone) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.enabled = false
	m.mu.Unlock()

	m.stream.Stop()
	m.stream.Close()
	m.client.Close()
	return nil
}

func (m *Microphone) onPCM(buf []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, io.EOF
	}
	if len(buf) >= 2 {
		m.level = rms(buf)
	}
	return len(buf), nil
}

// rms computes the normalized root-mean-square of little-endian s16 samples.
func rms(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		s := float64(int16(binary.LittleEndian.Uint16(pcm[2*i:]))) / math.MaxInt16
		sum += s * s
	}
	return math.Min(1, math.Sqrt(sum/float64(n)))
}

type pcmSink func([]byte) (int, error)

func (f pcmSink) Write(b []byte) (int, error) { return f(b) }
