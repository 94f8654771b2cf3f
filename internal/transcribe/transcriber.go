// Package transcribe provides speech-to-text backends.
//
// Supported backends:
//   - server: local whisper server (whisper.cpp server or faster-whisper)
//   - openai: OpenAI-compatible transcription API
package transcribe

import (
	"context"
	"fmt"

	"github.com/chaz8081/dictator/internal/config"
)

// Transcriber converts a recorded WAV file to text.
type Transcriber interface {
	// Transcribe converts the WAV file at path to text.
	Transcribe(ctx context.Context, wavPath string) (string, error)
	// Ping probes whether the backend can accept work.
	Ping(ctx context.Context) error
	// Close releases backend resources.
	Close() error
}

// New creates a Transcriber based on the config backend setting.
func New(cfg *config.TranscribeConfig) (Transcriber, error) {
	switch cfg.Backend {
	case "server", "":
		return NewServerTranscriber(cfg), nil
	case "openai":
		return NewOpenAITranscriber(cfg)
	default:
		return nil, fmt.Errorf("transcribe: unknown backend %q (supported: server, openai)", cfg.Backend)
	}
}
