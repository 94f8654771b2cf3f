package deliver

import (
	"errors"
	"testing"
)

func TestDeliverInserted(t *testing.T) {
	var inserted string
	d := New("type")
	d.insertFn = func(text string) error {
		inserted = text
		return nil
	}
	d.copyFn = func(text string) error {
		t.Error("clipboard should not be touched when insertion succeeds")
		return nil
	}

	outcome, err := d.Deliver("hello world")
	if err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if outcome != Inserted {
		t.Errorf("outcome = %v, want Inserted", outcome)
	}
	if inserted != "hello world" {
		t.Errorf("inserted text = %q, want %q", inserted, "hello world")
	}
}

func TestDeliverFallsBackToClipboard(t *testing.T) {
	var copied string
	d := New("type")
	d.insertFn = func(text string) error {
		return errors.New("no focused element")
	}
	d.copyFn = func(text string) error {
		copied = text
		return nil
	}

	outcome, err := d.Deliver("hello world")
	if err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if outcome != CopiedToClipboard {
		t.Errorf("outcome = %v, want CopiedToClipboard", outcome)
	}
	// The fallback must receive the identical text.
	if copied != "hello world" {
		t.Errorf("copied text = %q, want %q", copied, "hello world")
	}
}

func TestDeliverFailsWhenClipboardFails(t *testing.T) {
	d := New("type")
	d.insertFn = func(text string) error {
		return errors.New("no focused element")
	}
	d.copyFn = func(text string) error {
		return errors.New("clipboard unavailable")
	}

	outcome, err := d.Deliver("hello world")
	if err == nil {
		t.Fatal("Deliver() should report an error when clipboard also fails")
	}
	if outcome != Failed {
		t.Errorf("outcome = %v, want Failed", outcome)
	}
}

func TestDeliverEmptyTextIsNoOp(t *testing.T) {
	d := New("type")
	d.insertFn = func(text string) error {
		t.Error("empty text should not be inserted")
		return nil
	}
	d.copyFn = func(text string) error {
		t.Error("empty text should not be copied")
		return nil
	}

	outcome, err := d.Deliver("")
	if err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if outcome != Inserted {
		t.Errorf("outcome = %v, want Inserted", outcome)
	}
}

func TestOutcomeString(t *testing.T) {
	tests := []struct {
		outcome Outcome
		want    string
	}{
		{Inserted, "inserted"},
		{CopiedToClipboard, "copied to clipboard"},
		{Failed, "failed"},
		{Outcome(42), "Outcome(42)"},
	}

	for _, tt := range tests {
		if got := tt.outcome.String(); got != tt.want {
			t.Errorf("Outcome(%d).String() = %q, want %q", int(tt.outcome), got, tt.want)
		}
	}
}
