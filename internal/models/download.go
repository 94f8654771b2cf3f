// Package models downloads whisper ggml model files for a local
// whisper.cpp server to load.
package models

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/chaz8081/dictator/internal/config"
)

// baseURL hosts the converted ggml models. Overridable in tests.
var baseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

// catalog maps model names to their approximate download size in MB.
var catalog = map[string]int{
	"tiny":      78,
	"tiny.en":   78,
	"base":      148,
	"base.en":   148,
	"small":     488,
	"small.en":  488,
	"medium":    1530,
	"medium.en": 1530,
	"large-v3":  3100,
}

// Available lists the downloadable model names, sorted by size.
func Available() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if catalog[names[i]] != catalog[names[j]] {
			return catalog[names[i]] < catalog[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

// FileName returns the on-disk name for a model, e.g. "ggml-base.en.bin".
func FileName(model string) string {
	return "ggml-" + model + ".bin"
}

// Path returns where a model lives under the default models directory.
func Path(model string) string {
	return filepath.Join(config.DefaultModelsDir(), FileName(model))
}

// Download fetches a model into destDir. Already-present models are
// left alone. The file is written to a temp name and renamed so a
// killed download never leaves a truncated model behind.
func Download(model, destDir string) (string, error) {
	sizeMB, ok := catalog[model]
	if !ok {
		return "", fmt.Errorf("models: unknown model %q (run 'dictator models list')", model)
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("models: creating models dir: %w", err)
	}

	destPath := filepath.Join(destDir, FileName(model))
	if info, err := os.Stat(destPath); err == nil && info.Size() > 0 {
		fmt.Printf("  Model already exists: %s (%.0f MB)\n", destPath, float64(info.Size())/(1024*1024))
		return destPath, nil
	}

	url := baseURL + "/" + FileName(model)
	fmt.Printf("  Downloading %s (~%d MB)\n  URL: %s\n  Destination: %s\n", model, sizeMB, url, destPath)

	resp, err := http.Get(url) //nolint:gosec // URL is built from the catalog
	if err != nil {
		return "", fmt.Errorf("models: downloading %s: %w", model, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("models: download failed: HTTP %d", resp.StatusCode)
	}

	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("models: creating temp file: %w", err)
	}

	pw := &progressWriter{
		writer: f,
		total:  resp.ContentLength,
		label:  FileName(model),
	}

	written, err := io.Copy(pw, resp.Body)
	f.Close()
	if err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("models: writing model file: %w", err)
	}

	fmt.Printf("\n  Downloaded %.1f MB\n", float64(written)/(1024*1024))

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("models: moving model file: %w", err)
	}

	return destPath, nil
}

// progressWriter wraps an io.Writer and prints download progress.
type progressWriter struct {
	writer  io.Writer
	total   int64
	written int64
	label   string
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n, err := pw.writer.Write(p)
	pw.written += int64(n)
	if pw.total > 0 {
		pct := float64(pw.written) / float64(pw.total) * 100
		fmt.Printf("\r  %s: %.1f MB / %.1f MB (%.0f%%)",
			pw.label,
			float64(pw.written)/(1024*1024),
			float64(pw.total)/(1024*1024),
			pct)
	} else {
		fmt.Printf("\r  %s: %.1f MB downloaded",
			pw.label,
			float64(pw.written)/(1024*1024))
	}
	return n, err
}
