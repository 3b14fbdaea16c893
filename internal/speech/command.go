package speech

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
)

const (
	baseWordsPerMinute = 175
	basePitch          = 50
	baseAmplitude      = 100
)

// CommandSynthesizer speaks through a host command such as espeak-ng.
// Placeholders {rate}, {pitch}, {volume}, {voice} and {text} are expanded
// per utterance; without {text} the text is written to stdin. {rate} is in
// words per minute, {pitch} in 0-99 and {volume} in 0-200.
type CommandSynthesizer struct {
	argv       []string
	voicesArgv []string
	logger     *slog.Logger
	lookPath   func(string) (string, error)

	mu      sync.Mutex
	notify  func(PlaybackEvent)
	current *playback
	voices  []Voice
	listed  bool
	paused  bool
}

type playback struct {
	id          string
	cmd         *exec.Cmd
	interrupted bool
	done        chan struct{}
}

// NewCommandSynthesizer builds a synthesizer for argv. voicesArgv lists
// installed voices and may be empty.
func NewCommandSynthesizer(argv, voicesArgv []string, logger *slog.Logger) *CommandSynthesizer {
	return &CommandSynthesizer{
		argv:       append([]string(nil), argv...),
		voicesArgv: append([]string(nil), voicesArgv...),
		logger:     logger,
		lookPath:   exec.LookPath,
	}
}

// Supported reports whether the configured binary is on PATH.
func (s *CommandSynthesizer) Supported() bool {
	if len(s.argv) == 0 {
		return false
	}
	_, err := s.lookPath(s.argv[0])
	return err == nil
}

func (s *CommandSynthesizer) Notify(fn func(PlaybackEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = fn
}

// Speak cancels any utterance in progress, then starts u.
func (s *CommandSynthesizer) Speak(ctx context.Context, u Utterance, opts Options) error {
	if !s.Supported() {
		return ErrUnsupported
	}

	voice := opts.VoiceHint
	if voices, err := s.Voices(ctx); err == nil {
		voice = SelectVoice(voices, opts.VoiceHint)
	}
	argv, stdin := expandSynthArgv(s.argv, u.Text, opts, voice)

	s.Stop()

	cmd := exec.Command(argv[0], argv[1:]...)
	if stdin {
		cmd.Stdin = strings.NewReader(u.Text)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start synthesizer %s: %w", argv[0], err)
	}

	p := &playback{id: u.ID, cmd: cmd, done: make(chan struct{})}
	s.mu.Lock()
	s.current = p
	s.paused = false
	s.mu.Unlock()

	s.emit(PlaybackEvent{UtteranceID: u.ID, Kind: PlaybackStarted})
	go s.wait(p)
	return nil
}

func (s *CommandSynthesizer) wait(p *playback) {
	err := p.cmd.Wait()

	s.mu.Lock()
	interrupted := p.interrupted
	if s.current == p {
		s.current = nil
		s.paused = false
	}
	s.mu.Unlock()
	close(p.done)

	switch {
	case interrupted:
		s.emit(PlaybackEvent{UtteranceID: p.id, Kind: PlaybackFailed, Err: ErrInterrupted})
	case err != nil:
		if s.logger != nil {
			s.logger.Warn("synthesizer exited with error", "utterance", p.id, "error", err.Error())
		}
		s.emit(PlaybackEvent{UtteranceID: p.id, Kind: PlaybackFailed, Err: err})
	default:
		s.emit(PlaybackEvent{UtteranceID: p.id, Kind: PlaybackEnded})
	}
}

// Stop kills the utterance in progress and waits for its process to exit.
func (s *CommandSynthesizer) Stop() {
	s.mu.Lock()
	p := s.current
	if p == nil {
		s.mu.Unlock()
		return
	}
	p.interrupted = true
	if s.paused && p.cmd.Process != nil {
		_ = p.cmd.Process.Signal(syscall.SIGCONT)
	}
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	s.mu.Unlock()
	<-p.done
}

func (s *CommandSynthesizer) Pause() error {
	return s.signal(syscall.SIGSTOP, true)
}

func (s *CommandSynthesizer) Resume() error {
	return s.signal(syscall.SIGCONT, false)
}

func (s *CommandSynthesizer) signal(sig syscall.Signal, paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.cmd.Process == nil {
		return nil
	}
	if err := s.current.cmd.Process.Signal(sig); err != nil {
		return fmt.Errorf("signal synthesizer: %w", err)
	}
	s.paused = paused
	return nil
}

// Voices lists installed voices once and caches the result. A failed
// listing is reported once and then treated as an empty list.
func (s *CommandSynthesizer) Voices(ctx context.Context) ([]Voice, error) {
	s.mu.Lock()
	if s.listed {
		voices := append([]Voice(nil), s.voices...)
		s.mu.Unlock()
		return voices, nil
	}
	s.mu.Unlock()

	if len(s.voicesArgv) == 0 {
		return nil, ErrUnsupported
	}
	out, err := exec.CommandContext(ctx, s.voicesArgv[0], s.voicesArgv[1:]...).Output()
	if err != nil {
		s.mu.Lock()
		s.listed = true
		s.mu.Unlock()
		return nil, fmt.Errorf("list voices: %w", err)
	}
	voices := ParseVoiceList(string(out))

	s.mu.Lock()
	s.voices = voices
	s.listed = true
	s.mu.Unlock()
	return append([]Voice(nil), voices...), nil
}

func (s *CommandSynthesizer) emit(ev PlaybackEvent) {
	s.mu.Lock()
	fn := s.notify
	s.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

func expandSynthArgv(template []string, text string, opts Options, voice string) ([]string, bool) {
	replacer := strings.NewReplacer(
		"{rate}", strconv.Itoa(scale(opts.Rate, baseWordsPerMinute, 80, 450)),
		"{pitch}", strconv.Itoa(scale(opts.Pitch, basePitch, 0, 99)),
		"{volume}", strconv.Itoa(scale(opts.Volume, baseAmplitude, 0, 200)),
		"{voice}", voice,
	)

	argv := make([]string, 0, len(template))
	stdin := true
	for _, arg := range template {
		arg = replacer.Replace(arg)
		if strings.Contains(arg, "{text}") {
			stdin = false
			arg = strings.ReplaceAll(arg, "{text}", text)
		}
		argv = append(argv, arg)
	}
	return argv, stdin
}

func scale(v float64, base, lo, hi int) int {
	if v <= 0 {
		v = 1
	}
	n := int(math.Round(v * float64(base)))
	return max(lo, min(hi, n))
}
