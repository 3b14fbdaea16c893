// Package meeting runs a live practice meeting: continuous transcription
// with running grammar notes and microphone/camera toggles.
package meeting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rbright/rehearse/internal/feedback"
	"github.com/rbright/rehearse/internal/ipc"
	"github.com/rbright/rehearse/internal/logging"
	"github.com/rbright/rehearse/internal/media"
	"github.com/rbright/rehearse/internal/speech"
	"github.com/rbright/rehearse/internal/transcript"
)

// WelcomeText opens every meeting transcript.
const WelcomeText = "Meeting started. Live transcription is active. Speak clearly for accurate transcription."

const defaultNotesLimit = 5

var (
	ErrNotJoined     = errors.New("not in a meeting")
	ErrAlreadyJoined = errors.New("already in a meeting")
)

type Deps struct {
	Logger     *slog.Logger
	Recognizer speech.Recognizer
	Media      media.Capability
	Now        func() time.Time
}

// Status is the snapshot served to the status command.
type Status struct {
	Room      string  `json:"room"`
	Joined    bool    `json:"joined"`
	AudioOn   bool    `json:"audio_on"`
	VideoOn   bool    `json:"video_on"`
	Listening bool    `json:"listening"`
	Capture   bool    `json:"capture"`
	Level     float64 `json:"level"`
	Preview   string  `json:"preview,omitempty"`
	Entries   int     `json:"entries"`
	Notes     int     `json:"notes"`
}

// Result is returned when Run exits.
type Result struct {
	Room    string
	Entries []transcript.Entry
	Notes   []feedback.LiveNote
	Err     error
}

type Meeting struct {
	logger     *slog.Logger
	recognizer speech.Recognizer
	capture    media.Capability
	log        *transcript.Log
	limit      int

	mu        sync.Mutex
	room      string
	joined    bool
	audioOn   bool
	videoOn   bool
	handle    *media.Handle
	notes     []feedback.LiveNote
	assembler transcript.Assembler

	left chan struct{}
	once sync.Once
}

// New prepares a meeting for room. A blank room gets a generated id.
func New(deps Deps, room string, notesLimit int) *Meeting {
	if deps.Recognizer == nil {
		deps.Recognizer = speech.NewPushRecognizer()
	}
	if notesLimit <= 0 {
		notesLimit = defaultNotesLimit
	}
	room = strings.TrimSpace(room)
	if room == "" {
		room = NewRoomID()
	}
	return &Meeting{
		logger:     logging.OrDiscard(deps.Logger),
		recognizer: deps.Recognizer,
		capture:    deps.Media,
		log:        transcript.NewLog(deps.Now),
		limit:      notesLimit,
		room:       room,
		left:       make(chan struct{}),
	}
}

// NewRoomID returns "room-" followed by a short random base36 suffix.
func NewRoomID() string {
	return "room-" + strconv.FormatUint(rand.Uint64N(36*36*36*36*36*36), 36)
}

func (m *Meeting) Room() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.room
}

// Join acquires capture devices, starts continuous listening and writes the
// welcome entry. Missing capture hardware is tolerated.
func (m *Meeting) Join(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.joined {
		return ErrAlreadyJoined
	}

	if m.capture != nil {
		handle, err := m.capture.Acquire(ctx, media.Constraints{Audio: true, Video: true})
		switch {
		case err == nil:
			m.handle = handle
		case errors.Is(err, media.ErrUnsupported):
			m.logger.Warn("capture unavailable; transcription only", "error", err.Error())
		default:
			return fmt.Errorf("acquire capture devices: %w", err)
		}
	}

	if err := m.recognizer.StartListening(ctx, true, m.onResult); err != nil {
		_ = m.handle.Release()
		m.handle = nil
		return fmt.Errorf("start listening: %w", err)
	}

	m.log.Reset()
	m.notes = nil
	m.joined = true
	m.audioOn = true
	m.videoOn = true
	m.log.Append(transcript.SpeakerInterviewer, WelcomeText, "")
	m.logger.Info("meeting joined", "room", m.room, "capture", m.handle != nil)
	return nil
}

// Leave stops listening and releases every capture device. It is safe to
// call more than once.
func (m *Meeting) Leave() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaveLocked()
}

func (m *Meeting) leaveLocked() {
	m.recognizer.StopListening()
	if err := m.handle.Release(); err != nil {
		m.logger.Warn("release capture devices", "error", err.Error())
	}
	m.handle = nil
	if m.joined {
		m.logger.Info("meeting left", "room", m.room, "entries", m.log.Len())
	}
	m.joined = false
	m.audioOn = false
	m.videoOn = false
	m.assembler.Flush()
	m.once.Do(func() { close(m.left) })
}

// ToggleAudio mutes or unmutes. Muting stops recognition and pauses the
// microphone track.
func (m *Meeting) ToggleAudio(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.joined {
		return false, ErrNotJoined
	}

	on := !m.audioOn
	if on {
		if err := m.recognizer.StartListening(ctx, true, m.onResult); err != nil {
			return m.audioOn, fmt.Errorf("start listening: %w", err)
		}
	} else {
		m.recognizer.StopListening()
		m.assembler.Flush()
	}
	if m.handle != nil {
		if err := m.handle.SetAudioEnabled(on); err != nil {
			m.logger.Warn("toggle microphone track", "error", err.Error())
		}
	}
	m.audioOn = on
	return on, nil
}

// ToggleVideo disables or re-enables the camera track without releasing it.
func (m *Meeting) ToggleVideo() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.joined {
		return false, ErrNotJoined
	}

	on := !m.videoOn
	if m.handle != nil {
		if err := m.handle.SetVideoEnabled(on); err != nil {
			return m.videoOn, err
		}
	}
	m.videoOn = on
	return on, nil
}

// onResult runs on the recognizer's delivery goroutine.
func (m *Meeting) onResult(res speech.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.joined {
		return
	}

	m.assembler.Add(transcript.Segment{Text: res.Text, Final: res.Final})
	if !res.Final {
		return
	}
	text := m.assembler.Flush()
	if text == "" {
		return
	}

	note, ok := feedback.AnalyzeLive(text)
	correction := ""
	if ok {
		correction = note.Corrected
		m.notes = append(m.notes, note)
		if len(m.notes) > m.limit {
			m.notes = append([]feedback.LiveNote(nil), m.notes[len(m.notes)-m.limit:]...)
		}
	}
	m.log.Append(transcript.SpeakerSubject, text, correction)
}

// Notes returns the most recent grammar notes, oldest first.
func (m *Meeting) Notes() []feedback.LiveNote {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]feedback.LiveNote(nil), m.notes...)
}

func (m *Meeting) Transcript() []transcript.Entry {
	return m.log.Entries()
}

func (m *Meeting) Status() Status {
	m.mu.Lock()
	status := Status{
		Room:    m.room,
		Joined:  m.joined,
		AudioOn: m.audioOn,
		VideoOn: m.videoOn,
		Capture: m.handle != nil,
		Preview: m.assembler.Preview(),
		Notes:   len(m.notes),
	}
	if m.handle != nil {
		status.Level = m.handle.Level()
	}
	m.mu.Unlock()

	status.Listening = m.recognizer.Listening()
	status.Entries = m.log.Len()
	return status
}

// Run joins, then blocks until the meeting is left or ctx is cancelled.
func (m *Meeting) Run(ctx context.Context) Result {
	if err := m.Join(ctx); err != nil {
		return Result{Room: m.Room(), Err: err}
	}

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case <-m.left:
	}
	m.Leave()
	return Result{Room: m.Room(), Entries: m.log.Entries(), Notes: m.Notes(), Err: err}
}

// Handle serves IPC commands for the meeting owner.
func (m *Meeting) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case "status":
		return m.ok("status").WithData(m.Status())
	case "transcript":
		return m.ok("transcript").WithData(m.Transcript())
	case "feedback":
		return m.ok("notes").WithData(m.Notes())
	case "say", "answer":
		return m.push(req.Text, true)
	case "interim":
		return m.push(req.Text, false)
	case "toggle-audio":
		on, err := m.ToggleAudio(ctx)
		if err != nil {
			return m.fail(err.Error())
		}
		return m.ok("audio " + onOff(on))
	case "toggle-video":
		on, err := m.ToggleVideo()
		if err != nil {
			return m.fail(err.Error())
		}
		return m.ok("video " + onOff(on))
	case "leave", "end":
		m.Leave()
		return m.ok("left meeting")
	default:
		return m.fail(fmt.Sprintf("unknown command: %s", req.Command))
	}
}

func (m *Meeting) push(text string, final bool) ipc.Response {
	if strings.TrimSpace(text) == "" {
		return m.fail("text is empty")
	}
	p, ok := m.recognizer.(interface{ Push(speech.Result) error })
	if !ok {
		return m.fail("recognizer does not accept pushed text")
	}
	if err := p.Push(speech.Result{Text: text, Final: final}); err != nil {
		if errors.Is(err, speech.ErrNotListening) {
			return m.fail("not listening; audio is off")
		}
		return m.fail(err.Error())
	}
	return m.ok("received")
}

func (m *Meeting) state() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.joined {
		return "joined"
	}
	return "left"
}

func (m *Meeting) ok(message string) ipc.Response {
	return ipc.Response{OK: true, State: m.state(), Message: message}
}

func (m *Meeting) fail(message string) ipc.Response {
	return ipc.Response{OK: false, State: m.state(), Error: message}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
