package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandInterview       Command = "interview"
	CommandResumeInterview Command = "resume-interview"
	CommandAnswer          Command = "answer"
	CommandInterim         Command = "interim"
	CommandNext            Command = "next"
	CommandHint            Command = "hint"
	CommandSample          Command = "sample"
	CommandRestart         Command = "restart"
	CommandEnd             Command = "end"
	CommandStatus          Command = "status"
	CommandTranscript      Command = "transcript"
	CommandFeedback        Command = "feedback"
	CommandMeeting         Command = "meeting"
	CommandSay             Command = "say"
	CommandToggleAudio     Command = "toggle-audio"
	CommandToggleVideo     Command = "toggle-video"
	CommandLeave           Command = "leave"
	CommandLogin           Command = "login"
	CommandSignup          Command = "signup"
	CommandLogout          Command = "logout"
	CommandWhoami          Command = "whoami"
	CommandDevices         Command = "devices"
	CommandDoctor          Command = "doctor"
	CommandVersion         Command = "version"
	CommandHelp            Command = "help"
)

// commandSpec lists the flags a command accepts and whether it takes text.
type commandSpec struct {
	flags []string
	text  bool
}

var commands = map[Command]commandSpec{
	CommandInterview:       {flags: []string{"--type"}},
	CommandResumeInterview: {flags: []string{"--type", "--file", "--demo"}},
	CommandAnswer:          {text: true},
	CommandInterim:         {text: true},
	CommandNext:            {},
	CommandHint:            {},
	CommandSample:          {},
	CommandRestart:         {},
	CommandEnd:             {},
	CommandStatus:          {},
	CommandTranscript:      {},
	CommandFeedback:        {},
	CommandMeeting:         {flags: []string{"--room"}},
	CommandSay:             {text: true},
	CommandToggleAudio:     {},
	CommandToggleVideo:     {},
	CommandLeave:           {},
	CommandLogin:           {flags: []string{"--email", "--password"}},
	CommandSignup:          {flags: []string{"--name", "--email", "--password"}},
	CommandLogout:          {},
	CommandWhoami:          {},
	CommandDevices:         {},
	CommandDoctor:          {},
	CommandVersion:         {},
	CommandHelp:            {},
}

type Parsed struct {
	Command    Command
	ConfigPath string
	ShowHelp   bool

	Type     string
	File     string
	Demo     bool
	Room     string
	Name     string
	Email    string
	Password string
	Text     string
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			def, ok := commands[cmd]
			if !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			if err := parseCommandArgs(&parsed, def, args[i+1:]); err != nil {
				return Parsed{}, err
			}
			return parsed, nil
		}
	}

	return parsed, nil
}

func parseCommandArgs(parsed *Parsed, def commandSpec, args []string) error {
	var words []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") || arg == "--" {
			if !def.text {
				return fmt.Errorf("unexpected arguments after command %q", parsed.Command)
			}
			if arg == "--" {
				words = append(words, args[i+1:]...)
				break
			}
			words = append(words, arg)
			continue
		}

		if !accepts(def, arg) {
			return fmt.Errorf("command %q does not accept %s", parsed.Command, arg)
		}
		if arg == "--demo" {
			parsed.Demo = true
			continue
		}

		i++
		if i >= len(args) {
			return fmt.Errorf("%s requires a value", arg)
		}
		value := args[i]
		switch arg {
		case "--type":
			parsed.Type = value
		case "--file":
			parsed.File = value
		case "--room":
			parsed.Room = value
		case "--name":
			parsed.Name = value
		case "--email":
			parsed.Email = value
		case "--password":
			parsed.Password = value
		}
	}

	parsed.Text = strings.Join(words, " ")
	if def.text && strings.TrimSpace(parsed.Text) == "" {
		return fmt.Errorf("command %q requires text", parsed.Command)
	}
	if parsed.Command == CommandResumeInterview && parsed.Demo == (parsed.File != "") {
		return errors.New("resume-interview requires exactly one of --file or --demo")
	}
	return nil
}

func accepts(def commandSpec, flag string) bool {
	for _, f := range def.flags {
		if f == flag {
			return true
		}
	}
	return false
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command> [flags] [text]

Interview:
  interview [--type hr|technical]                   Start a question-bank interview
  resume-interview [--type T] (--file PATH|--demo)  Start an interview built from a resume
  answer TEXT        Submit a recognized answer
  interim TEXT       Submit interim recognized text
  next               Ask the next question
  hint               Speak the hint for the current question
  sample             Speak the sample answer for the current question
  restart            Restart the running interview from the greeting
  end                End the running session
  status             Print current state
  transcript         Print the session transcript
  feedback           Print the latest feedback

Meeting:
  meeting [--room ID]  Join a live meeting with transcription
  say TEXT             Submit recognized meeting speech
  toggle-audio         Mute or unmute the microphone
  toggle-video         Turn the camera track off or on
  leave                Leave the meeting

Account:
  login --email E --password P
  signup --name N --email E --password P
  logout
  whoami

Other:
  devices   List available input devices
  doctor    Run configuration and environment checks
  version   Print version information
  help      Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/rehearse/config.jsonc)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
