package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Desktop publishes notifications as freedesktop toasts over DBus via busctl.
// Successive notifications replace the previous one instead of stacking.
type Desktop struct {
	appName   string
	timeoutMS int
	logger    *slog.Logger

	mu     sync.Mutex
	lastID uint32
}

// NewDesktop builds a desktop sink. appName defaults to "dicta".
func NewDesktop(appName string, timeoutMS int, logger *slog.Logger) *Desktop {
	if strings.TrimSpace(appName) == "" {
		appName = "dicta"
	}
	if timeoutMS <= 0 {
		timeoutMS = 2500
	}
	return &Desktop{appName: appName, timeoutMS: timeoutMS, logger: logger}
}

func (d *Desktop) Publish(ctx context.Context, n Notification) {
	sendCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()

	d.mu.Lock()
	replaceID := d.lastID
	d.mu.Unlock()

	id, err := desktopNotify(sendCtx, d.appName, replaceID, n.Message, d.timeoutMS)
	if err != nil {
		if d.logger != nil {
			d.logger.Debug("desktop notification dispatch failed", "error", err.Error())
		}
		return
	}

	d.mu.Lock()
	d.lastID = id
	d.mu.Unlock()
}

// desktopNotify sends one freedesktop notification and returns the ID the
// notification server assigned.
func desktopNotify(ctx context.Context, appName string, replaceID uint32, summary string, timeoutMS int) (uint32, error) {
	args := []string{
		"--user",
		"call",
		"org.freedesktop.Notifications",
		"/org/freedesktop/Notifications",
		"org.freedesktop.Notifications",
		"Notify",
		"susssasa{sv}i",
		appName,
		fmt.Sprintf("%d", replaceID),
		"",
		summary,
		"",
		"0", // actions array length
		"0", // hints map length
		fmt.Sprintf("%d", timeoutMS),
	}

	out, err := exec.CommandContext(ctx, "busctl", args...).CombinedOutput()
	if err != nil {
		trimmed := strings.TrimSpace(string(out))
		if trimmed == "" {
			return 0, fmt.Errorf("desktop notify failed: %w", err)
		}
		return 0, fmt.Errorf("desktop notify failed: %w (%s)", err, trimmed)
	}

	fields := strings.Fields(strings.TrimSpace(string(out)))
	if len(fields) < 2 || fields[0] != "u" {
		return 0, fmt.Errorf("desktop notify invalid response: %q", strings.TrimSpace(string(out)))
	}

	value, parseErr := strconv.ParseUint(fields[1], 10, 32)
	if parseErr != nil {
		return 0, fmt.Errorf("desktop notify parse id %q: %w", fields[1], parseErr)
	}
	return uint32(value), nil
}
