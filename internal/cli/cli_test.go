package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaultsToHelp(t *testing.T) {
	parsed, err := Parse(nil)
	require.NoError(t, err)
	require.Equal(t, CommandHelp, parsed.Command)
	require.True(t, parsed.ShowHelp)
}

func TestParseCommands(t *testing.T) {
	for _, cmd := range []Command{
		CommandRun, CommandToggle, CommandBegin, CommandEnd, CommandCancel,
		CommandStatus, CommandMicEnter, CommandMicLeave, CommandMicRetry,
		CommandDevices, CommandHistory, CommandDoctor, CommandVersion,
	} {
		parsed, err := Parse([]string{string(cmd)})
		require.NoError(t, err, "command %s", cmd)
		require.Equal(t, cmd, parsed.Command)
		require.False(t, parsed.ShowHelp)
	}
}

func TestParseMicSelectDevice(t *testing.T) {
	parsed, err := Parse([]string{"mic-select", "USB Headset"})
	require.NoError(t, err)
	require.Equal(t, CommandMicSelect, parsed.Command)
	require.Equal(t, "USB Headset", parsed.Device)

	parsed, err = Parse([]string{"mic-select"})
	require.NoError(t, err)
	require.Empty(t, parsed.Device)

	_, err = Parse([]string{"mic-select", "a", "b"})
	require.Error(t, err)
}

func TestParseConfigFlag(t *testing.T) {
	parsed, err := Parse([]string{"--config", "/tmp/dicta.json", "status"})
	require.NoError(t, err)
	require.Equal(t, "/tmp/dicta.json", parsed.ConfigPath)
	require.Equal(t, CommandStatus, parsed.Command)

	_, err = Parse([]string{"--config"})
	require.Error(t, err)
}

func TestParseDebugFlag(t *testing.T) {
	parsed, err := Parse([]string{"--debug", "run"})
	require.NoError(t, err)
	require.True(t, parsed.Debug)
	require.Equal(t, CommandRun, parsed.Command)
}

func TestParseRejectsUnknown(t *testing.T) {
	_, err := Parse([]string{"--bogus"})
	require.Error(t, err)

	_, err = Parse([]string{"reboot"})
	require.Error(t, err)

	_, err = Parse([]string{"status", "extra"})
	require.Error(t, err)
}

func TestParseVersionFlag(t *testing.T) {
	parsed, err := Parse([]string{"--version"})
	require.NoError(t, err)
	require.Equal(t, CommandVersion, parsed.Command)
	require.False(t, parsed.ShowHelp)
}

func TestHelpTextMentionsCommands(t *testing.T) {
	text := HelpText("dicta")
	for _, fragment := range []string{"dicta", "run", "toggle", "mic-select", "doctor", "--config"} {
		require.Contains(t, text, fragment)
	}
}
