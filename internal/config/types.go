// Package config resolves, parses, validates, and defaults rehearse configuration.
package config

// Config is the fully materialized runtime configuration used by rehearse.
type Config struct {
	Interview  InterviewConfig
	Timing     TimingConfig
	Speech     SpeechConfig
	Recognizer RecognizerConfig
	Resume     ResumeConfig
	Audio      AudioConfig
	Identity   IdentityConfig
	Meeting    MeetingConfig
}

// InterviewConfig controls question sourcing for bank-mode sessions.
type InterviewConfig struct {
	DefaultType string
	BankPath    string
}

// TimingConfig controls the delays between interviewer utterances.
type TimingConfig struct {
	GreetingDelayMS int
	ResponseDelayMS int
	// ChainOnPlayback emits the first question as soon as greeting playback
	// ends, if that happens before the greeting delay.
	ChainOnPlayback bool
}

// SpeechConfig controls the host synthesizer command and its voice options.
type SpeechConfig struct {
	Enable    bool
	SynthCmd  CommandConfig
	VoicesCmd CommandConfig
	Rate      float64
	Pitch     float64
	Volume    float64
	Voice     string
}

// RecognizerConfig points at the optional external recognition service
// that pushes recognized text and is probed by doctor.
type RecognizerConfig struct {
	HealthAddr string
}

// ResumeConfig controls how uploaded resumes are turned into text.
type ResumeConfig struct {
	ExtractCmd CommandConfig
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// IdentityConfig selects the key-value backend for the signed-in user.
type IdentityConfig struct {
	Backend       string
	Path          string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// MeetingConfig controls live-meeting behavior.
type MeetingConfig struct {
	NotesLimit int
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

const (
	IdentityBackendFile   = "file"
	IdentityBackendSQLite = "sqlite"
	IdentityBackendRedis  = "redis"
)
