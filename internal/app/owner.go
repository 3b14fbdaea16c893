package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rbright/rehearse/internal/cli"
	"github.com/rbright/rehearse/internal/config"
	"github.com/rbright/rehearse/internal/ipc"
	"github.com/rbright/rehearse/internal/media"
	"github.com/rbright/rehearse/internal/meeting"
	"github.com/rbright/rehearse/internal/question"
	"github.com/rbright/rehearse/internal/resume"
	"github.com/rbright/rehearse/internal/session"
	"github.com/rbright/rehearse/internal/speech"
)

var errAlreadyRunning = errors.New("a rehearse session is already running; use `rehearse end` first")

func (r Runner) commandInterview(ctx context.Context, cfg config.Config, parsed cli.Parsed, logger *slog.Logger) int {
	category, err := resolveCategory(parsed.Type, cfg)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 2
	}

	bank := question.DefaultBank()
	if cfg.Interview.BankPath != "" {
		bank, err = question.LoadBankFile(cfg.Interview.BankPath)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
	}

	plan, err := session.BankPlan(bank, category, nil)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	return r.runInterview(ctx, cfg, plan, logger)
}

func (r Runner) commandResumeInterview(ctx context.Context, cfg config.Config, parsed cli.Parsed, logger *slog.Logger) int {
	category, err := resolveCategory(parsed.Type, cfg)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 2
	}

	profile := resume.Demo()
	if !parsed.Demo {
		var extractor resume.Extractor = resume.PlainText{}
		if len(cfg.Resume.ExtractCmd.Argv) > 0 {
			extractor = resume.Command{Argv: cfg.Resume.ExtractCmd.Argv}
		}
		var fellBack bool
		profile, fellBack = resume.Load(ctx, extractor, parsed.File, logger)
		if fellBack {
			fmt.Fprintf(r.Stderr, "warning: could not read %s; using the demo resume\n", parsed.File)
		}
	}

	return r.runInterview(ctx, cfg, session.ResumePlan(profile, category), logger)
}

func resolveCategory(flag string, cfg config.Config) (question.Category, error) {
	raw := strings.TrimSpace(flag)
	if raw == "" {
		raw = cfg.Interview.DefaultType
	}
	return question.ParseCategory(raw)
}

func (r Runner) runInterview(ctx context.Context, cfg config.Config, plan session.Plan, logger *slog.Logger) int {
	var synth speech.Synthesizer = speech.Unsupported{}
	if cfg.Speech.Enable {
		synth = speech.NewCommandSynthesizer(cfg.Speech.SynthCmd.Argv, cfg.Speech.VoicesCmd.Argv, logger)
	}

	controller := session.NewController(
		session.Deps{
			Logger:     logger,
			Synth:      synth,
			Recognizer: speech.NewPushRecognizer(),
			Media:      r.capture(cfg, logger),
		},
		session.Timing{
			GreetingDelay:   time.Duration(cfg.Timing.GreetingDelayMS) * time.Millisecond,
			ResponseDelay:   time.Duration(cfg.Timing.ResponseDelayMS) * time.Millisecond,
			ChainOnPlayback: cfg.Timing.ChainOnPlayback,
		},
		speech.Options{
			Rate:      cfg.Speech.Rate,
			Pitch:     cfg.Speech.Pitch,
			Volume:    cfg.Speech.Volume,
			VoiceHint: cfg.Speech.Voice,
		},
	)

	var result session.Result
	code := r.serveOwner(ctx, logger, controller, func(ctx context.Context) {
		fmt.Fprintf(r.Stdout, "%s interview started (%s)\n", plan.Category.Title(), plan.Mode)
		result = controller.Run(ctx, plan)
	})
	if code != 0 {
		return code
	}

	logSessionResult(logger, result)
	writeTranscript(r.Stdout, result.Entries)
	if result.Err != nil && !errors.Is(result.Err, context.Canceled) {
		fmt.Fprintf(r.Stderr, "error: %v\n", result.Err)
		return 1
	}
	return 0
}

func (r Runner) commandMeeting(ctx context.Context, cfg config.Config, parsed cli.Parsed, logger *slog.Logger) int {
	m := meeting.New(meeting.Deps{
		Logger:     logger,
		Recognizer: speech.NewPushRecognizer(),
		Media:      r.capture(cfg, logger),
	}, parsed.Room, cfg.Meeting.NotesLimit)

	var result meeting.Result
	code := r.serveOwner(ctx, logger, m, func(ctx context.Context) {
		fmt.Fprintf(r.Stdout, "joined %s\n", m.Room())
		result = m.Run(ctx)
	})
	if code != 0 {
		return code
	}

	logger.Info("meeting complete",
		"room", result.Room,
		"entries", len(result.Entries),
		"notes", len(result.Notes),
	)
	writeTranscript(r.Stdout, result.Entries)
	if result.Err != nil && !errors.Is(result.Err, context.Canceled) {
		fmt.Fprintf(r.Stderr, "error: %v\n", result.Err)
		return 1
	}
	return 0
}

func (r Runner) capture(cfg config.Config, logger *slog.Logger) media.Capability {
	if r.Media != nil {
		return r.Media
	}
	return media.NewBroker(media.PulseOpener(cfg.Audio.Input, cfg.Audio.Fallback, logger), logger)
}

// serveOwner claims the runtime socket, serves handler on it and runs the
// owner until run returns.
func (r Runner) serveOwner(ctx context.Context, logger *slog.Logger, handler ipc.Handler, run func(context.Context)) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	if _, handled, _ := tryForward(ctx, socketPath, ipc.Request{Command: "status"}); handled {
		fmt.Fprintf(r.Stderr, "error: %v\n", errAlreadyRunning)
		return 1
	}

	listener, err := ipc.Claim(ctx, socketPath, ipc.ClaimOptions{ProbeTimeout: 180 * time.Millisecond, Retries: 8})
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			err = errAlreadyRunning
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Server{Handler: handler, Logger: logger}.Serve(serverCtx, listener)
	}()

	run(ctx)
	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}
	return 0
}

func logSessionResult(logger *slog.Logger, result session.Result) {
	if logger == nil {
		return
	}
	fields := []any{
		"state", result.State,
		"mode", result.Mode,
		"started_at", result.StartedAt.Format(time.RFC3339Nano),
		"finished_at", result.FinishedAt.Format(time.RFC3339Nano),
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
		"entries", len(result.Entries),
		"evaluated", result.Feedback != nil,
	}

	if result.Err != nil {
		logger.Error("session failed", append(fields, "error", result.Err.Error())...)
		return
	}
	logger.Info("session complete", fields...)
}
