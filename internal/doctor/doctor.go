// Package doctor runs runtime readiness diagnostics for config, speech tools,
// audio, the identity store and the recognition service.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rbright/rehearse/internal/config"
	"github.com/rbright/rehearse/internal/identity"
	"github.com/rbright/rehearse/internal/kv"
	"github.com/rbright/rehearse/internal/media"
	"github.com/rbright/rehearse/internal/question"
)

const probeTimeout = 2 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, cfg config.Loaded) Report {
	message := fmt.Sprintf("loaded %q", cfg.Path)
	if !cfg.Exists {
		message = fmt.Sprintf("no file at %q; using defaults", cfg.Path)
	}
	checks := []Check{{Name: "config", Pass: true, Message: message}}

	checks = append(checks, checkEnv("XDG_RUNTIME_DIR", func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, "runtime dir set for the session socket", "XDG_RUNTIME_DIR is empty; socket falls back to /tmp"))

	if cfg.Config.Speech.Enable {
		checks = append(checks, checkCommand(cfg.Config.Speech.SynthCmd.Argv, "speech.synth_cmd"))
	} else {
		checks = append(checks, Check{Name: "speech.synth_cmd", Pass: true, Message: "speech disabled; transcript only"})
	}
	if len(cfg.Config.Resume.ExtractCmd.Argv) > 0 {
		checks = append(checks, checkCommand(cfg.Config.Resume.ExtractCmd.Argv, "resume.extract_cmd"))
	}

	checks = append(checks, checkQuestionBank(cfg.Config))
	checks = append(checks, checkAudioSelection(ctx, cfg.Config))
	checks = append(checks, checkIdentityStore(ctx, cfg.Config))
	checks = append(checks, checkRecognizer(ctx, cfg.Config))

	return Report{Checks: checks}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkQuestionBank loads the configured bank and requires both categories.
func checkQuestionBank(cfg config.Config) Check {
	bank := question.DefaultBank()
	source := "built-in bank"
	if path := strings.TrimSpace(cfg.Interview.BankPath); path != "" {
		loaded, err := question.LoadBankFile(path)
		if err != nil {
			return Check{Name: "questions", Pass: false, Message: err.Error()}
		}
		bank = loaded
		source = path
	}

	for _, category := range []question.Category{question.CategoryHR, question.CategoryTechnical} {
		if err := bank.Require(category); err != nil {
			return Check{Name: "questions", Pass: false, Message: fmt.Sprintf("%s: %v", source, err)}
		}
	}
	return Check{Name: "questions", Pass: true, Message: fmt.Sprintf(
		"%s: %d hr, %d technical", source,
		bank.Len(question.CategoryHR), bank.Len(question.CategoryTechnical),
	)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.Config) Check {
	selection, err := media.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkIdentityStore opens the configured backend and reads the identity key.
func checkIdentityStore(ctx context.Context, cfg config.Config) Check {
	name := "identity." + cfg.Identity.Backend
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	store, err := kv.Open(ctx, cfg.Identity)
	if err != nil {
		return Check{Name: name, Pass: false, Message: err.Error()}
	}
	defer store.Close()

	if _, err := store.Get(ctx, identity.StorageKey); err != nil && !errors.Is(err, kv.ErrNotFound) {
		return Check{Name: name, Pass: false, Message: err.Error()}
	}
	return Check{Name: name, Pass: true, Message: "store reachable"}
}
