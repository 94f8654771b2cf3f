// Package audio captures microphone input via malgo and persists
// finished clips as 16-bit PCM WAV files in the recordings directory.
package audio

import (
	"errors"
	"time"
)

// Capture errors recognized by the orchestrator.
var (
	// ErrDeviceUnavailable means the microphone could not be opened.
	ErrDeviceUnavailable = errors.New("audio: capture device unavailable")
	// ErrNoActiveCapture means Stop was called without a prior Start.
	ErrNoActiveCapture = errors.New("audio: no active capture")
)

// Clip is one finished recording: the samples that were captured and
// the WAV file they were written to. Path is empty when nothing was
// captured (for example a device that produced no frames).
type Clip struct {
	Path       string
	Samples    []float32
	SampleRate uint32
	Duration   time.Duration
}
