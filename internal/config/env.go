package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const envPrefix = "REHEARSE_"

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set win over the file. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays REHEARSE_* environment variables onto cfg. Malformed
// numeric or boolean values are reported as warnings and ignored.
func ApplyEnv(cfg *Config) ([]Warning, error) {
	var warnings []Warning

	cfg.Interview.DefaultType = getEnv("INTERVIEW_TYPE", cfg.Interview.DefaultType)
	cfg.Interview.BankPath = getEnv("BANK_PATH", cfg.Interview.BankPath)
	cfg.Speech.Voice = getEnv("VOICE", cfg.Speech.Voice)
	cfg.Recognizer.HealthAddr = getEnv("RECOGNIZER_HEALTH_ADDR", cfg.Recognizer.HealthAddr)
	cfg.Audio.Input = getEnv("AUDIO_INPUT", cfg.Audio.Input)
	cfg.Identity.Backend = getEnv("IDENTITY_BACKEND", cfg.Identity.Backend)
	cfg.Identity.Path = getEnv("IDENTITY_PATH", cfg.Identity.Path)
	cfg.Identity.RedisAddr = getEnv("REDIS_ADDR", cfg.Identity.RedisAddr)
	cfg.Identity.RedisPassword = getEnv("REDIS_PASSWORD", cfg.Identity.RedisPassword)

	cfg.Timing.GreetingDelayMS = getEnvAsInt("GREETING_DELAY_MS", cfg.Timing.GreetingDelayMS, &warnings)
	cfg.Timing.ResponseDelayMS = getEnvAsInt("RESPONSE_DELAY_MS", cfg.Timing.ResponseDelayMS, &warnings)
	cfg.Identity.RedisDB = getEnvAsInt("REDIS_DB", cfg.Identity.RedisDB, &warnings)
	cfg.Timing.ChainOnPlayback = getEnvAsBool("CHAIN_ON_PLAYBACK", cfg.Timing.ChainOnPlayback, &warnings)
	cfg.Speech.Enable = getEnvAsBool("SPEECH_ENABLE", cfg.Speech.Enable, &warnings)

	for key, dst := range map[string]*CommandConfig{
		"SYNTH_CMD":   &cfg.Speech.SynthCmd,
		"EXTRACT_CMD": &cfg.Resume.ExtractCmd,
	} {
		raw, ok := os.LookupEnv(envPrefix + key)
		if !ok {
			continue
		}
		argv, err := parseArgv(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
		}
		*dst = CommandConfig{Raw: raw, Argv: argv}
	}

	return warnings, nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(envPrefix + key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int, warnings *[]Warning) int {
	value := strings.TrimSpace(os.Getenv(envPrefix + key))
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*warnings = append(*warnings, Warning{Message: fmt.Sprintf("ignoring %s%s=%q: not an integer", envPrefix, key, value)})
		return defaultValue
	}
	return n
}

func getEnvAsBool(key string, defaultValue bool, warnings *[]Warning) bool {
	value := strings.TrimSpace(os.Getenv(envPrefix + key))
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		*warnings = append(*warnings, Warning{Message: fmt.Sprintf("ignoring %s%s=%q: not a boolean", envPrefix, key, value)})
		return defaultValue
	}
	return b
}
