package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/chaz8081/dictator/internal/config"
)

// ServerTranscriber talks to a local whisper server (whisper.cpp server
// or a faster-whisper wrapper) over HTTP. Transcription stays on this
// machine; the server just keeps the model resident between clips.
type ServerTranscriber struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewServerTranscriber creates a transcriber for the server at cfg.ServerURL.
func NewServerTranscriber(cfg *config.TranscribeConfig) *ServerTranscriber {
	return &ServerTranscriber{
		baseURL: strings.TrimRight(cfg.ServerURL, "/"),
		model:   cfg.Model,
		client:  newHTTPClient(cfg.TimeoutSeconds, cfg.HTTP2),
	}
}

// inferenceResponse is the whisper.cpp server JSON payload.
type inferenceResponse struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

// Transcribe uploads the WAV file and returns the recognized text.
func (t *ServerTranscriber) Transcribe(ctx context.Context, wavPath string) (string, error) {
	f, err := os.Open(wavPath)
	if err != nil {
		return "", fmt.Errorf("transcribe: open audio %q: %w", wavPath, err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", filepath.Base(wavPath))
	if err != nil {
		return "", fmt.Errorf("transcribe: build request: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("transcribe: read audio: %w", err)
	}
	if err := mw.WriteField("response_format", "json"); err != nil {
		return "", fmt.Errorf("transcribe: build request: %w", err)
	}
	// whisper.cpp server ignores this; faster-whisper wrappers use it.
	if t.model != "" {
		if err := mw.WriteField("model", t.model); err != nil {
			return "", fmt.Errorf("transcribe: build request: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("transcribe: build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/inference", &body)
	if err != nil {
		return "", fmt.Errorf("transcribe: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcribe: request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("transcribe: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcribe: server returned HTTP %d: %s", resp.StatusCode, firstLine(raw))
	}

	var parsed inferenceResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("transcribe: parse response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("transcribe: server error: %s", parsed.Error)
	}

	return strings.TrimSpace(parsed.Text), nil
}

// Ping checks the server health endpoint.
func (t *ServerTranscriber) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("transcribe: build health request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("transcribe: health check: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("transcribe: server not healthy: HTTP %d", resp.StatusCode)
	}
	return nil
}

// Close releases client resources.
func (t *ServerTranscriber) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

// firstLine trims a response body to something loggable.
func firstLine(b []byte) string {
	s := strings.TrimSpace(string(b))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
