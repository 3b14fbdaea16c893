package config

import (
	"fmt"
	"slices"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	switch strings.ToLower(strings.TrimSpace(cfg.Interview.DefaultType)) {
	case "hr", "technical":
	default:
		return nil, fmt.Errorf("interview.default_type must be one of: hr, technical")
	}

	if cfg.Timing.GreetingDelayMS < 0 {
		return nil, fmt.Errorf("timing.greeting_delay_ms must be >= 0")
	}
	if cfg.Timing.ResponseDelayMS < 0 {
		return nil, fmt.Errorf("timing.response_delay_ms must be >= 0")
	}
	if cfg.Timing.ChainOnPlayback && !cfg.Speech.Enable {
		warnings = append(warnings, Warning{Message: "timing.chain_on_playback has no effect while speech.enable=false"})
	}

	if cfg.Speech.Enable {
		if len(cfg.Speech.SynthCmd.Argv) == 0 {
			return nil, fmt.Errorf("speech.synth_cmd must not be empty when speech.enable=true")
		}
		if !slices.Contains(placeholders(cfg.Speech.SynthCmd.Argv), "text") {
			warnings = append(warnings, Warning{Message: "speech.synth_cmd has no {text} placeholder; text is passed on stdin"})
		}
		if unknown := unknownPlaceholders(cfg.Speech.SynthCmd.Argv, "rate", "pitch", "volume", "voice", "text"); len(unknown) > 0 {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("speech.synth_cmd has unknown placeholders %s; they are passed through verbatim", strings.Join(unknown, ", "))})
		}
	}
	if cfg.Speech.Rate <= 0 || cfg.Speech.Rate > 10 {
		return nil, fmt.Errorf("speech.rate must be in (0, 10]")
	}
	if cfg.Speech.Pitch < 0 || cfg.Speech.Pitch > 2 {
		return nil, fmt.Errorf("speech.pitch must be in [0, 2]")
	}
	if cfg.Speech.Volume < 0 || cfg.Speech.Volume > 1 {
		return nil, fmt.Errorf("speech.volume must be in [0, 1]")
	}

	if cfg.Resume.ExtractCmd.Raw != "" && len(cfg.Resume.ExtractCmd.Argv) == 0 {
		return nil, fmt.Errorf("resume.extract_cmd is configured but empty")
	}
	if unknown := unknownPlaceholders(cfg.Resume.ExtractCmd.Argv, "path"); len(unknown) > 0 {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("resume.extract_cmd has unknown placeholders %s; only {path} is expanded", strings.Join(unknown, ", "))})
	}

	switch strings.ToLower(cfg.Identity.Backend) {
	case IdentityBackendFile, IdentityBackendSQLite:
	case IdentityBackendRedis:
		if strings.TrimSpace(cfg.Identity.RedisAddr) == "" {
			return nil, fmt.Errorf("identity.redis_addr must not be empty when identity.backend=redis")
		}
		if cfg.Identity.RedisDB < 0 {
			return nil, fmt.Errorf("identity.redis_db must be >= 0")
		}
	default:
		return nil, fmt.Errorf("identity.backend must be one of: file, sqlite, redis")
	}

	if cfg.Meeting.NotesLimit <= 0 {
		return nil, fmt.Errorf("meeting.notes_limit must be > 0")
	}

	return warnings, nil
}
