// Package cli parses the dicta command line.
package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandRun       Command = "run"
	CommandToggle    Command = "toggle"
	CommandBegin     Command = "begin"
	CommandEnd       Command = "end"
	CommandCancel    Command = "cancel"
	CommandStatus    Command = "status"
	CommandMicEnter  Command = "mic-enter"
	CommandMicLeave  Command = "mic-leave"
	CommandMicSelect Command = "mic-select"
	CommandMicRetry  Command = "mic-retry"
	CommandDevices   Command = "devices"
	CommandHistory   Command = "history"
	CommandDoctor    Command = "doctor"
	CommandVersion   Command = "version"
	CommandHelp      Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandRun:       {},
	CommandToggle:    {},
	CommandBegin:     {},
	CommandEnd:       {},
	CommandCancel:    {},
	CommandStatus:    {},
	CommandMicEnter:  {},
	CommandMicLeave:  {},
	CommandMicSelect: {},
	CommandMicRetry:  {},
	CommandDevices:   {},
	CommandHistory:   {},
	CommandDoctor:    {},
	CommandVersion:   {},
	CommandHelp:      {},
}

type Parsed struct {
	Command    Command
	Device     string
	ConfigPath string
	Debug      bool
	ShowHelp   bool
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
		case "--debug":
			parsed.Debug = true
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
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp

			rest := args[i+1:]
			if cmd == CommandMicSelect {
				// mic-select takes the device name; "" reverts to the default.
				if len(rest) > 1 {
					return Parsed{}, errors.New("mic-select takes at most one device name")
				}
				if len(rest) == 1 {
					parsed.Device = rest[0]
				}
				return parsed, nil
			}
			if len(rest) != 0 {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}
			return parsed, nil
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] [--debug] <command>

Daemon:
  run           Run the dicta daemon (owns recording and the IPC socket)

Session commands (sent to the running daemon):
  toggle        Start recording or stop+commit when already recording
  begin         Start a new recording
  end           Stop active recording and commit transcript
  cancel        Cancel active recording and discard transcript
  status        Print current state

Microphone picker (sent to the running daemon):
  mic-enter     Enter the device picker and start level monitoring
  mic-leave     Leave the device picker and stop monitoring
  mic-select    Select an input device by name ("" for system default)
  mic-retry     Re-run device detection on the current picker view

Local commands:
  devices       List available input devices
  history       Print recent transcripts
  doctor        Run configuration and environment checks
  version       Print version information
  help          Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/dicta/config.json)
  --debug         Enable debug logging
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
