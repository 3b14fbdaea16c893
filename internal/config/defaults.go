package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	synth := "espeak-ng -s {rate} -p {pitch} -a {volume} -v {voice} {text}"
	voices := "espeak-ng --voices"

	return Config{
		Interview: InterviewConfig{DefaultType: "hr"},
		Timing: TimingConfig{
			GreetingDelayMS: 3000,
			ResponseDelayMS: 500,
		},
		Speech: SpeechConfig{
			Enable:    true,
			SynthCmd:  CommandConfig{Raw: synth, Argv: mustParseArgv(synth)},
			VoicesCmd: CommandConfig{Raw: voices, Argv: mustParseArgv(voices)},
			Rate:      0.9,
			Pitch:     1,
			Volume:    1,
			Voice:     "en",
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Identity: IdentityConfig{
			Backend:     IdentityBackendFile,
			RedisAddr:   "127.0.0.1:6379",
			RedisPrefix: "rehearse:",
		},
		Meeting: MeetingConfig{NotesLimit: 5},
	}
}
