package transcribe

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// fakeBackend lets tests control readiness and transcription results.
type fakeBackend struct {
	pingErr  atomic.Value // error
	text     string
	err      error
	calls    atomic.Int32
	closed   atomic.Bool
}

func (f *fakeBackend) Transcribe(ctx context.Context, wavPath string) (string, error) {
	f.calls.Add(1)
	return f.text, f.err
}

func (f *fakeBackend) Ping(ctx context.Context) error {
	if v := f.pingErr.Load(); v != nil {
		return v.(error)
	}
	return nil
}

func (f *fakeBackend) Close() error {
	f.closed.Store(true)
	return nil
}

func TestEngineNotReadyBeforeStart(t *testing.T) {
	e := NewEngine(&fakeBackend{})

	if e.Ready() {
		t.Error("Ready() should be false before Start()")
	}

	_, err := e.Transcribe(context.Background(), "clip.wav")
	if !errors.Is(err, ErrModelNotReady) {
		t.Errorf("Transcribe() error = %v, want ErrModelNotReady", err)
	}
}

func TestEngineBecomesReady(t *testing.T) {
	b := &fakeBackend{text: "hello world"}
	e := NewEngine(b)
	e.Start()
	defer e.Close()

	waitFor(t, e.Ready)

	text, err := e.Transcribe(context.Background(), "clip.wav")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "hello world" {
		t.Errorf("Transcribe() = %q, want %q", text, "hello world")
	}
}

func TestEngineNotReadyDoesNotCallBackend(t *testing.T) {
	b := &fakeBackend{}
	b.pingErr.Store(errors.New("still loading"))
	e := NewEngine(b)
	e.Start()
	defer e.Close()

	_, err := e.Transcribe(context.Background(), "clip.wav")
	if !errors.Is(err, ErrModelNotReady) {
		t.Fatalf("Transcribe() error = %v, want ErrModelNotReady", err)
	}
	if b.calls.Load() != 0 {
		t.Error("backend Transcribe should not be called while not ready")
	}
}

func TestEngineWrapsBackendError(t *testing.T) {
	b := &fakeBackend{err: errors.New("server exploded")}
	e := NewEngine(b)
	e.Start()
	defer e.Close()

	waitFor(t, e.Ready)

	_, err := e.Transcribe(context.Background(), "clip.wav")
	if err == nil {
		t.Fatal("Transcribe() should propagate backend errors")
	}
	if errors.Is(err, ErrModelNotReady) {
		t.Error("backend error should not be classified as not-ready")
	}
}

func TestEngineCloseStopsWarmupAndBackend(t *testing.T) {
	b := &fakeBackend{}
	b.pingErr.Store(errors.New("never ready"))
	e := NewEngine(b)
	e.Start()

	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !b.closed.Load() {
		t.Error("Close() should close the backend")
	}
}

func TestEngineCloseWithoutStart(t *testing.T) {
	b := &fakeBackend{}
	e := NewEngine(b)
	if err := e.Close(); err != nil {
		t.Fatalf("Close() without Start() error = %v", err)
	}
	if !b.closed.Load() {
		t.Error("Close() should close the backend even without Start()")
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}
