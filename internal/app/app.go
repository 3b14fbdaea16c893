package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/rbright/rehearse/internal/cli"
	"github.com/rbright/rehearse/internal/config"
	"github.com/rbright/rehearse/internal/doctor"
	"github.com/rbright/rehearse/internal/ipc"
	"github.com/rbright/rehearse/internal/logging"
	"github.com/rbright/rehearse/internal/media"
	"github.com/rbright/rehearse/internal/version"
)

const binaryName = "rehearse"

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	// Media overrides the capture broker for owner commands.
	Media media.Capability
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText(binaryName))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText(binaryName))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(r.Stderr, "warning: %v\n", err)
		logger.Warn("dotenv load failed", "error", err.Error())
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	cfg := cfgLoaded.Config
	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandInterview:
		return r.commandInterview(ctx, cfg, parsed, logger)
	case cli.CommandResumeInterview:
		return r.commandResumeInterview(ctx, cfg, parsed, logger)
	case cli.CommandMeeting:
		return r.commandMeeting(ctx, cfg, parsed, logger)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandTranscript:
		return r.commandTranscript(ctx)
	case cli.CommandFeedback:
		return r.commandFeedback(ctx)
	case cli.CommandAnswer, cli.CommandInterim, cli.CommandSay,
		cli.CommandNext, cli.CommandHint, cli.CommandSample, cli.CommandRestart, cli.CommandEnd,
		cli.CommandToggleAudio, cli.CommandToggleVideo, cli.CommandLeave:
		return r.forwardOrFail(ctx, ipc.Request{Command: string(parsed.Command), Text: parsed.Text})
	case cli.CommandLogin, cli.CommandSignup, cli.CommandLogout, cli.CommandWhoami:
		return r.commandAccount(ctx, cfg, parsed, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := media.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			yesNo(device.Available),
			yesNo(device.Muted),
		)
	}

	return 0
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func tryForward(ctx context.Context, socketPath string, req ipc.Request) (ipc.Response, bool, error) {
	resp, err := ipc.Client{Path: socketPath}.Call(ctx, req)
	switch {
	case errors.Is(err, ipc.ErrNoOwner):
		return ipc.Response{}, false, nil
	case err != nil:
		return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", req.Command, err)
	case !resp.OK:
		return resp, true, errors.New(resp.Error)
	}
	return resp, true, nil
}
