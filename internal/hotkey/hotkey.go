// Package hotkey provides a global hotkey listener using gohook.
// The listener emits payloadless toggle signals; what a signal means
// depends entirely on the orchestrator's current state.
//
// In "toggle" mode each press of the combo emits one signal. In "hold"
// mode the press and the release each emit one signal, which gives
// push-to-talk behavior against the same start/stop state machine.
package hotkey

import (
	"sync"

	hook "github.com/robotn/gohook"
)

// Listener watches a global key combo and emits toggle signals.
type Listener struct {
	keys []string
	mode string // "toggle" or "hold"
	ch   chan struct{}
	done chan struct{}
	once sync.Once
}

// NewListener creates a Listener for the given key combo and mode.
// keys should be lowercase key names (e.g., ["alt", "space"]).
// mode must be "toggle" or "hold".
func NewListener(keys []string, mode string) *Listener {
	return &Listener{
		keys: keys,
		mode: mode,
		ch:   make(chan struct{}, 16),
		done: make(chan struct{}),
	}
}

// Signals returns the channel that receives toggle signals.
// The channel is closed when Stop is called.
func (l *Listener) Signals() <-chan struct{} {
	return l.ch
}

// Start begins listening for the global hotkey.
// This function blocks until Stop is called. Run it in a goroutine.
func (l *Listener) Start() {
	switch l.mode {
	case "hold":
		l.startHold()
	default: // "toggle"
		l.startToggle()
	}
}

// startToggle emits one signal per key press.
func (l *Listener) startToggle() {
	hook.Register(hook.KeyDown, l.keys, func(e hook.Event) {
		l.emit()
	})

	evChan := hook.Start()
	go func() {
		<-l.done
		hook.End()
	}()
	<-hook.Process(evChan)
	close(l.ch)
}

// startHold emits a signal on key press and another on release.
func (l *Listener) startHold() {
	hook.Register(hook.KeyDown, l.keys, func(e hook.Event) {
		l.emit()
	})

	hook.Register(hook.KeyUp, l.keys, func(e hook.Event) {
		l.emit()
	})

	evChan := hook.Start()
	go func() {
		<-l.done
		hook.End()
	}()
	<-hook.Process(evChan)
	close(l.ch)
}

// emit delivers a signal without blocking the gohook callback.
func (l *Listener) emit() {
	select {
	case l.ch <- struct{}{}:
	default: // don't block if channel is full
	}
}

// Stop terminates the hotkey listener.
// It is safe to call multiple times.
func (l *Listener) Stop() {
	l.once.Do(func() {
		close(l.done)
	})
}
