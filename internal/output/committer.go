// Package output applies transcript commit side effects (clipboard and paste).
package output

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/dicta-app/dicta/internal/session"
)

const (
	clipboardTimeout = 2 * time.Second
	pasteTimeout     = 1200 * time.Millisecond
)

// Committer writes transcripts to the system clipboard and optionally
// dispatches a paste keystroke. Both actions run user-configurable argv
// commands; paste failure is reported but never fails the commit.
type Committer struct {
	clipboard    []string
	paste        []string
	pasteEnabled bool
	logger       *slog.Logger
}

// NewCommitter constructs a committer from argv command configuration.
func NewCommitter(clipboardArgv, pasteArgv []string, pasteEnabled bool, logger *slog.Logger) *Committer {
	return &Committer{
		clipboard:    clipboardArgv,
		paste:        pasteArgv,
		pasteEnabled: pasteEnabled,
		logger:       logger,
	}
}

// WriteText places the transcript on the clipboard.
func (c *Committer) WriteText(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	clipCtx, cancel := context.WithTimeout(ctx, clipboardTimeout)
	defer cancel()
	if err := runCommandWithInput(clipCtx, c.clipboard, text); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}
	return nil
}

// AttemptPaste dispatches the configured paste command. The clipboard already
// holds the text at this point, so any failure only downgrades the outcome.
func (c *Committer) AttemptPaste(ctx context.Context) session.PasteAttempt {
	if !c.pasteEnabled {
		return session.PasteAttempt{Pasted: false, Reason: "paste disabled"}
	}
	if len(c.paste) == 0 {
		return session.PasteAttempt{Pasted: false, Reason: "no paste command configured"}
	}

	pasteCtx, cancel := context.WithTimeout(ctx, pasteTimeout)
	defer cancel()
	if err := runCommandWithInput(pasteCtx, c.paste, ""); err != nil {
		if c.logger != nil {
			c.logger.Error("paste dispatch failed; clipboard remains set", "error", err.Error())
		}
		return session.PasteAttempt{Pasted: false, Reason: err.Error()}
	}
	return session.PasteAttempt{Pasted: true}
}

// runCommandWithInput executes argv and optionally writes input to stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start command %s: %w", argv[0], err)
	}

	if input != "" {
		if _, err := stdin.Write([]byte(input)); err != nil {
			_ = stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("write stdin for %s: %w", argv[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return nil
}
