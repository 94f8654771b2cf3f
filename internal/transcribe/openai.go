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

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAITranscriber calls an OpenAI-compatible transcription endpoint.
// Unlike the server backend this sends audio off-machine; it exists for
// setups without a local whisper server.
type OpenAITranscriber struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

// NewOpenAITranscriber creates the OpenAI backend. The API key comes
// from the config or the OPENAI_API_KEY environment variable.
func NewOpenAITranscriber(cfg *config.TranscribeConfig) (*OpenAITranscriber, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("transcribe: openai backend requires api_key or OPENAI_API_KEY")
	}

	model := cfg.Model
	if model == "" {
		model = "whisper-1"
	}

	baseURL := defaultOpenAIBaseURL
	if cfg.ServerURL != "" {
		baseURL = strings.TrimRight(cfg.ServerURL, "/")
	}

	return &OpenAITranscriber{
		baseURL: baseURL,
		model:   model,
		apiKey:  key,
		client:  newHTTPClient(cfg.TimeoutSeconds, cfg.HTTP2),
	}, nil
}

// Transcribe uploads the WAV file to /audio/transcriptions.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, wavPath string) (string, error) {
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
	if err := mw.WriteField("model", t.model); err != nil {
		return "", fmt.Errorf("transcribe: build request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("transcribe: build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", fmt.Errorf("transcribe: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

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
		return "", fmt.Errorf("transcribe: api returned HTTP %d: %s", resp.StatusCode, firstLine(raw))
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("transcribe: parse response: %w", err)
	}

	return strings.TrimSpace(parsed.Text), nil
}

// Ping reports ready immediately; the hosted API has no warmup phase.
func (t *OpenAITranscriber) Ping(ctx context.Context) error {
	return nil
}

// Close releases client resources.
func (t *OpenAITranscriber) Close() error {
	t.client.CloseIdleConnections()
	return nil
}
