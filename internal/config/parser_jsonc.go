package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type jsoncConfig struct {
	Interview  *jsoncInterview  `json:"interview"`
	Timing     *jsoncTiming     `json:"timing"`
	Speech     *jsoncSpeech     `json:"speech"`
	Recognizer *jsoncRecognizer `json:"recognizer"`
	Resume     *jsoncResume     `json:"resume"`
	Audio      *jsoncAudio      `json:"audio"`
	Identity   *jsoncIdentity   `json:"identity"`
	Meeting    *jsoncMeeting    `json:"meeting"`
}

type jsoncInterview struct {
	DefaultType *string `json:"default_type"`
	BankPath    *string `json:"bank_path"`
}

type jsoncTiming struct {
	GreetingDelayMS *int  `json:"greeting_delay_ms"`
	ResponseDelayMS *int  `json:"response_delay_ms"`
	ChainOnPlayback *bool `json:"chain_on_playback"`
}

type jsoncSpeech struct {
	Enable    *bool    `json:"enable"`
	SynthCmd  *string  `json:"synth_cmd"`
	VoicesCmd *string  `json:"voices_cmd"`
	Rate      *float64 `json:"rate"`
	Pitch     *float64 `json:"pitch"`
	Volume    *float64 `json:"volume"`
	Voice     *string  `json:"voice"`
}

type jsoncRecognizer struct {
	HealthAddr *string `json:"health_addr"`
}

type jsoncResume struct {
	ExtractCmd *string `json:"extract_cmd"`
}

type jsoncAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type jsoncIdentity struct {
	Backend       *string `json:"backend"`
	Path          *string `json:"path"`
	RedisAddr     *string `json:"redis_addr"`
	RedisPassword *string `json:"redis_password"`
	RedisDB       *int    `json:"redis_db"`
	RedisPrefix   *string `json:"redis_prefix"`
}

type jsoncMeeting struct {
	NotesLimit *int `json:"notes_limit"`
}

func parseJSONC(content string, base Config) (Config, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	if err := payload.applyTo(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) error {
	if p := payload.Interview; p != nil {
		setTrimmed(&cfg.Interview.DefaultType, p.DefaultType)
		setTrimmed(&cfg.Interview.BankPath, p.BankPath)
	}

	if p := payload.Timing; p != nil {
		set(&cfg.Timing.GreetingDelayMS, p.GreetingDelayMS)
		set(&cfg.Timing.ResponseDelayMS, p.ResponseDelayMS)
		set(&cfg.Timing.ChainOnPlayback, p.ChainOnPlayback)
	}

	if p := payload.Speech; p != nil {
		set(&cfg.Speech.Enable, p.Enable)
		set(&cfg.Speech.Rate, p.Rate)
		set(&cfg.Speech.Pitch, p.Pitch)
		set(&cfg.Speech.Volume, p.Volume)
		setTrimmed(&cfg.Speech.Voice, p.Voice)
		if err := setCommand(&cfg.Speech.SynthCmd, p.SynthCmd, "speech.synth_cmd"); err != nil {
			return err
		}
		if err := setCommand(&cfg.Speech.VoicesCmd, p.VoicesCmd, "speech.voices_cmd"); err != nil {
			return err
		}
	}

	if p := payload.Recognizer; p != nil {
		setTrimmed(&cfg.Recognizer.HealthAddr, p.HealthAddr)
	}

	if p := payload.Resume; p != nil {
		if err := setCommand(&cfg.Resume.ExtractCmd, p.ExtractCmd, "resume.extract_cmd"); err != nil {
			return err
		}
	}

	if p := payload.Audio; p != nil {
		set(&cfg.Audio.Input, p.Input)
		set(&cfg.Audio.Fallback, p.Fallback)
	}

	if p := payload.Identity; p != nil {
		setTrimmed(&cfg.Identity.Backend, p.Backend)
		setTrimmed(&cfg.Identity.Path, p.Path)
		setTrimmed(&cfg.Identity.RedisAddr, p.RedisAddr)
		set(&cfg.Identity.RedisPassword, p.RedisPassword)
		set(&cfg.Identity.RedisDB, p.RedisDB)
		set(&cfg.Identity.RedisPrefix, p.RedisPrefix)
	}

	if p := payload.Meeting; p != nil {
		set(&cfg.Meeting.NotesLimit, p.NotesLimit)
	}

	return nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setTrimmed(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setCommand(dst *CommandConfig, raw *string, key string) error {
	if raw == nil {
		return nil
	}
	argv, err := parseArgv(*raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = CommandConfig{Raw: *raw, Argv: argv}
	return nil
}

func normalizeJSONC(content string) (string, error) {
	withoutComments, err := stripJSONCComments(content)
	if err != nil {
		return "", err
	}
	return stripJSONCTrailingCommas(withoutComments), nil
}

func stripJSONCComments(content string) (string, error) {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false
	lineComment := false
	blockComment := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if lineComment {
			if ch == '\n' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			if ch == '\r' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			out.WriteByte(' ')
			continue
		}

		if blockComment {
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				blockComment = false
				out.WriteString("  ")
				i++
				continue
			}
			if ch == '\n' || ch == '\r' || ch == '\t' {
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
			continue
		}

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == '/' && i+1 < len(content) {
			next := content[i+1]
			if next == '/' {
				lineComment = true
				out.WriteString("  ")
				i++
				continue
			}
			if next == '*' {
				blockComment = true
				out.WriteString("  ")
				i++
				continue
			}
		}

		out.WriteByte(ch)
	}

	if blockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}

	return out.String(), nil
}

func stripJSONCTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == ',' {
			j := i + 1
			for j < len(content) && isJSONWhitespace(content[j]) {
				j++
			}
			if j < len(content) && (content[j] == '}' || content[j] == ']') {
				continue
			}
		}

		out.WriteByte(ch)
	}

	return out.String()
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
