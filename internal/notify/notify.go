// Package notify surfaces orchestrator events to the desktop.
package notify

import (
	"log/slog"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/chaz8081/dictator/internal/dictator"
)

// Desktop reports status transitions to the log and notifications to
// the OS notification center.
type Desktop struct {
	appName string
}

// NewDesktop creates a Desktop sink. appName labels the notifications.
func NewDesktop(appName string) *Desktop {
	return &Desktop{appName: appName}
}

// StatusChanged logs the transition. Elapsed ticks while recording are
// logged at debug so one long dictation doesn't flood the log.
func (d *Desktop) StatusChanged(s dictator.Status) {
	if s.State == dictator.StateRecording && s.Elapsed > 0 {
		slog.Debug("recording", "elapsed", s.Elapsed.Round(time.Second))
		return
	}
	slog.Info("status", "state", s.State.String())
}

// Notify shows a desktop notification. Failures are logged and
// swallowed; a missing notification daemon must never break dictation.
func (d *Desktop) Notify(title, body string) {
	if err := beeep.Notify(d.appName+": "+title, body, ""); err != nil {
		slog.Warn("desktop notification failed", "title", title, "error", err)
	}
}
