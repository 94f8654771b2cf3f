package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrModelNotReady is reported when transcription is requested before
// the backend finished warming up.
var ErrModelNotReady = errors.New("transcribe: model not ready")

// Engine wraps a Transcriber with background readiness probing. The
// orchestrator asks Ready() before it ever starts a recording, so no
// audio is captured that the engine could not handle.
type Engine struct {
	t     Transcriber
	ready atomic.Bool

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewEngine creates an Engine around t. Call Start to begin warmup.
func NewEngine(t Transcriber) *Engine {
	return &Engine{t: t, done: make(chan struct{})}
}

// Start launches the background warmup loop. It pings the backend until
// it answers, then marks the engine ready.
func (e *Engine) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	go func() {
		defer close(e.done)
		e.warmup(ctx)
	}()
}

func (e *Engine) warmup(ctx context.Context) {
	const retryDelay = 2 * time.Second

	attempt := 0
	for {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := e.t.Ping(pingCtx)
		cancel()

		if err == nil {
			e.ready.Store(true)
			slog.Info("transcription engine ready")
			return
		}

		attempt++
		if attempt == 1 || attempt%15 == 0 {
			slog.Warn("transcription engine not ready yet", "attempt", attempt, "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(retryDelay):
		}
	}
}

// Ready reports whether the backend finished warming up.
func (e *Engine) Ready() bool {
	return e.ready.Load()
}

// Transcribe converts the WAV file at path to text. It reports
// ErrModelNotReady before warmup completes.
func (e *Engine) Transcribe(ctx context.Context, wavPath string) (string, error) {
	if !e.ready.Load() {
		return "", ErrModelNotReady
	}

	text, err := e.t.Transcribe(ctx, wavPath)
	if err != nil {
		return "", fmt.Errorf("inference failed: %w", err)
	}
	return text, nil
}

// Close stops the warmup loop and releases the backend.
func (e *Engine) Close() error {
	e.once.Do(func() {
		if e.cancel != nil {
			e.cancel()
			<-e.done
		}
	})
	return e.t.Close()
}
