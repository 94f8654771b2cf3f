// Package deliver places transcribed text where the user can use it:
// direct insertion into the focused application via robotgo keystrokes
// or paste, with a clipboard-copy fallback when insertion fails.
package deliver

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/atotto/clipboard"
	"github.com/go-vgo/robotgo"
)

// Outcome describes how (or whether) text reached the user.
type Outcome int

const (
	// Inserted means the text went directly into the focused element.
	Inserted Outcome = iota
	// CopiedToClipboard means insertion failed but the text is on the
	// system clipboard.
	CopiedToClipboard
	// Failed means even the clipboard write failed. The transcript is
	// not lost; the store already has it.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case CopiedToClipboard:
		return "copied to clipboard"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Deliverer sends text to the active application with the configured
// method, falling back to a plain clipboard copy.
type Deliverer struct {
	method string // "type" or "paste"

	// Overridable for tests.
	insertFn func(text string) error
	copyFn   func(text string) error
}

// New creates a Deliverer with the given method.
// method must be "type" (keystroke simulation) or "paste" (clipboard paste).
func New(method string) *Deliverer {
	d := &Deliverer{method: method}
	d.insertFn = d.insertNative
	d.copyFn = clipboard.WriteAll
	return d
}

// Deliver attempts direct insertion first. If that fails the identical
// text is copied to the clipboard; Failed is returned only when the
// clipboard write fails too.
func (d *Deliverer) Deliver(text string) (Outcome, error) {
	if text == "" {
		return Inserted, nil
	}

	if err := d.insertFn(text); err != nil {
		slog.Warn("direct insertion failed, copying to clipboard", "error", err)
		if cerr := d.copyFn(text); cerr != nil {
			return Failed, fmt.Errorf("deliver: clipboard fallback: %w", cerr)
		}
		return CopiedToClipboard, nil
	}

	return Inserted, nil
}

// insertNative sends text to the focused application using the
// configured method.
func (d *Deliverer) insertNative(text string) error {
	switch d.method {
	case "paste":
		return pasteText(text)
	default: // "type"
		return typeText(text)
	}
}

// typeText simulates individual keystrokes. Preserves clipboard contents
// but is slower for long text.
func typeText(text string) error {
	robotgo.Type(text)
	return nil
}

// pasteText copies text to the clipboard and pastes it with the
// platform paste chord. Faster for long text but briefly overwrites the
// clipboard; the previous contents are restored best effort.
func pasteText(text string) error {
	prev, _ := robotgo.ReadAll()

	if err := robotgo.WriteAll(text); err != nil {
		return fmt.Errorf("deliver: write to clipboard: %w", err)
	}

	mod := "cmd"
	if runtime.GOOS != "darwin" {
		mod = "ctrl"
	}
	if err := robotgo.KeyTap("v", mod); err != nil {
		return fmt.Errorf("deliver: key tap %s+v: %w", mod, err)
	}

	_ = robotgo.WriteAll(prev)

	return nil
}
