package dictator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chaz8081/dictator/internal/audio"
	"github.com/chaz8081/dictator/internal/deliver"
	"github.com/chaz8081/dictator/internal/store"
)

// Capturer owns the microphone stream.
type Capturer interface {
	Start() error
	Stop() (*audio.Clip, error)
	Elapsed() time.Duration
}

// Engine converts a finished clip to text. Ready must be answerable
// before recording starts so no audio is captured that the engine
// cannot handle.
type Engine interface {
	Ready() bool
	Transcribe(ctx context.Context, wavPath string) (string, error)
}

// Saver appends a finished recording to persistent storage.
type Saver interface {
	Save(audioPath, transcript string, duration float64, corrected string) (*store.Recording, error)
}

// Deliverer places text at the user's input focus.
type Deliverer interface {
	Deliver(text string) (deliver.Outcome, error)
}

// Corrector optionally cleans up a raw transcript.
type Corrector interface {
	Correct(ctx context.Context, text string) (string, error)
}

// Options configures optional orchestrator behavior.
type Options struct {
	// MinClipDuration discards clips shorter than this instead of
	// transcribing them. Zero keeps everything.
	MinClipDuration time.Duration
	// Corrector, when set, runs between transcription and persistence.
	// Its failures are logged and never block delivery.
	Corrector Corrector
}

// session tracks one record-to-deliver cycle. Exactly one session
// exists between a start toggle and the completion of its pipeline.
type session struct {
	startedAt time.Time
	stopTick  chan struct{}
	tickOnce  sync.Once
}

func (s *session) stopTicker() {
	s.tickOnce.Do(func() { close(s.stopTick) })
}

// Orchestrator is the single authority over the dictation state
// machine. Toggle is called from the hotkey listener goroutine; the
// worker goroutine it spawns performs every blocking step, so the
// listener is always ready for the next signal.
//
// The mutex guards only the tiny {state, session, closing} struct.
// Worker exclusivity is enforced by the state machine itself: a new
// session cannot start until the previous worker has reset the state
// to Ready.
type Orchestrator struct {
	capture   Capturer
	engine    Engine
	saver     Saver
	deliverer Deliverer
	corrector Corrector
	sink      StatusSink
	minClip   time.Duration

	mu      sync.Mutex
	state   State
	session *session
	closing bool

	workers sync.WaitGroup
}

// New creates an Orchestrator in the Ready state.
func New(capture Capturer, engine Engine, saver Saver, deliverer Deliverer, sink StatusSink, opts Options) *Orchestrator {
	return &Orchestrator{
		capture:   capture,
		engine:    engine,
		saver:     saver,
		deliverer: deliverer,
		corrector: opts.Corrector,
		sink:      sink,
		minClip:   opts.MinClipDuration,
	}
}

// Status returns the current status. Safe from any goroutine.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	st := o.state
	o.mu.Unlock()

	s := Status{State: st}
	if st == StateRecording {
		s.Elapsed = o.capture.Elapsed()
	}
	return s
}

// Toggle handles one hotkey signal. What it does depends entirely on
// the current state:
//
//	Ready        → start recording (or stay Ready on failure)
//	Recording    → stop recording and hand the clip to a worker
//	Transcribing → dropped; a toggle mid-pipeline has no meaning
func (o *Orchestrator) Toggle() {
	o.mu.Lock()
	if o.closing {
		o.mu.Unlock()
		return
	}
	state := o.state
	o.mu.Unlock()

	switch state {
	case StateReady:
		o.beginRecording()
	case StateRecording:
		o.finishRecording()
	case StateTranscribing:
		// Deliberately dropped, not queued: there is no audio to stop
		// or start, and queuing would allow two concurrent workers.
		slog.Debug("toggle ignored while transcribing")
	}
}

// beginRecording handles Ready → Recording.
func (o *Orchestrator) beginRecording() {
	if !o.engine.Ready() {
		// Refusing before capture starts means no audio is ever
		// recorded that the engine would have to drop.
		slog.Warn("toggle while speech engine still loading")
		o.sink.Notify("Model Loading", "The speech model is still loading. Try again in a moment.")
		return
	}

	if err := o.capture.Start(); err != nil {
		slog.Error("failed to start recording", "error", err)
		o.sink.Notify("Recording Error", startErrorBody(err))
		return
	}

	sess := &session{
		startedAt: time.Now(),
		stopTick:  make(chan struct{}),
	}

	o.mu.Lock()
	o.state = StateRecording
	o.session = sess
	o.mu.Unlock()

	o.sink.StatusChanged(Status{State: StateRecording})
	go o.tickElapsed(sess)

	slog.Info("recording started")
}

// finishRecording handles Recording → Transcribing (or → Ready when
// the capture failed or produced too little audio).
func (o *Orchestrator) finishRecording() {
	o.mu.Lock()
	sess := o.session
	o.mu.Unlock()
	if sess != nil {
		sess.stopTicker()
	}

	clip, err := o.capture.Stop()
	if err != nil {
		slog.Error("failed to stop recording", "error", err)
		o.abandonSession()
		o.sink.Notify("Recording Error", fmt.Sprintf("Failed to stop: %v", err))
		return
	}

	if clip.Duration < o.minClip {
		slog.Info("recording too short, skipping",
			"duration", clip.Duration, "min", o.minClip)
		if err := clip.Discard(); err != nil {
			slog.Warn("failed to discard short clip", "error", err)
		}
		o.abandonSession()
		return
	}

	o.mu.Lock()
	o.state = StateTranscribing
	o.mu.Unlock()
	o.sink.StatusChanged(Status{State: StateTranscribing})

	slog.Info("recording stopped, transcription started",
		"audio_path", clip.Path, "duration", clip.Duration)

	// From here the session is detached from the signal path.
	o.workers.Add(1)
	go o.runWorker(clip)
}

// abandonSession resets Recording → Ready without spawning a worker.
func (o *Orchestrator) abandonSession() {
	o.mu.Lock()
	o.state = StateReady
	o.session = nil
	o.mu.Unlock()
	o.sink.StatusChanged(Status{State: StateReady})
}

// runWorker executes transcribe → correct → save → deliver for one
// session. Whatever happens, the orchestrator returns to Ready.
func (o *Orchestrator) runWorker(clip *audio.Clip) {
	defer o.workers.Done()
	defer func() {
		// A panicking step must not leave the state machine stuck.
		if r := recover(); r != nil {
			slog.Error("worker panic", "panic", r)
			o.sink.Notify("Transcription Failed", fmt.Sprintf("Internal error: %v", r))
		}
		o.mu.Lock()
		o.state = StateReady
		o.session = nil
		o.mu.Unlock()
		o.sink.StatusChanged(Status{State: StateReady})
	}()

	ctx := context.Background()

	text, err := o.engine.Transcribe(ctx, clip.Path)
	if err != nil {
		// Nothing to save or deliver; the audio file stays on disk
		// for a manual retry.
		slog.Error("transcription failed", "error", err, "audio_path", clip.Path)
		o.sink.Notify("Transcription Failed", transcribeErrorBody(err))
		return
	}

	if text == "" {
		slog.Info("no speech detected", "audio_path", clip.Path)
		o.sink.Notify("No Speech Detected", "The recording contained no recognizable speech.")
		return
	}

	slog.Info("transcription complete", "chars", len(text))

	corrected := ""
	if o.corrector != nil {
		c, cerr := o.corrector.Correct(ctx, text)
		if cerr != nil {
			slog.Warn("transcript correction failed", "error", cerr)
		} else {
			corrected = c
		}
	}

	if _, err := o.saver.Save(clip.Path, text, clip.Duration.Seconds(), corrected); err != nil {
		// Persistence failure must not cost the user their text.
		slog.Error("saving recording failed", "error", err)
	}

	deliverText := text
	if corrected != "" {
		deliverText = corrected
	}

	outcome, err := o.deliverer.Deliver(deliverText)
	switch {
	case err != nil || outcome == deliver.Failed:
		slog.Error("delivery failed", "error", err)
		o.sink.Notify("Delivery Failed", "Could not insert or copy the text. It is kept in your history.")
	case outcome == deliver.CopiedToClipboard:
		o.sink.Notify("Text Copied to Clipboard", preview(deliverText))
	default:
		o.sink.Notify("Text Inserted", preview(deliverText))
	}
}

// tickElapsed reports the running capture duration once per second
// while the session records. It only reads state and never mutates it.
func (o *Orchestrator) tickElapsed(sess *session) {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-sess.stopTick:
			return
		case <-t.C:
			o.sink.StatusChanged(Status{
				State:   StateRecording,
				Elapsed: o.capture.Elapsed(),
			})
		}
	}
}

// Close shuts the orchestrator down. New toggles are refused, an
// active capture is stopped and its session abandoned (the audio file
// is kept), and an in-flight worker is given until ctx expires to
// finish.
func (o *Orchestrator) Close(ctx context.Context) error {
	o.mu.Lock()
	o.closing = true
	state := o.state
	sess := o.session
	o.mu.Unlock()

	if state == StateRecording && sess != nil {
		sess.stopTicker()
		if clip, err := o.capture.Stop(); err == nil && clip.Path != "" {
			slog.Info("shutdown during recording, clip kept but not transcribed",
				"audio_path", clip.Path)
		}
		o.mu.Lock()
		o.state = StateReady
		o.session = nil
		o.mu.Unlock()
	}

	done := make(chan struct{})
	go func() {
		o.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dictator: shutdown timed out waiting for worker: %w", ctx.Err())
	}
}

// startErrorBody picks a user-facing message for a capture start failure.
func startErrorBody(err error) string {
	if errors.Is(err, audio.ErrDeviceUnavailable) {
		return "The microphone could not be opened. Check that it is connected and that microphone access is granted."
	}
	return fmt.Sprintf("Failed to start: %v", err)
}

// transcribeErrorBody picks a user-facing message for a transcription
// failure. The audio is retained either way.
func transcribeErrorBody(err error) string {
	msg := err.Error()
	if len(msg) > 100 {
		msg = msg[:100]
	}
	return fmt.Sprintf("Error: %s. The audio file was kept for retry.", msg)
}

// preview shortens text for a notification body.
func preview(text string) string {
	if len(text) > 100 {
		return text[:100] + "..."
	}
	return text
}
