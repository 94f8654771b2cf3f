// Package store persists recording metadata as a JSON array in
// metadata.json next to the audio files. Records are append-only; the
// only permitted mutation is attaching a corrected transcript.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const metadataFile = "metadata.json"

// ErrNotFound is reported when a correction targets an unknown recording.
var ErrNotFound = errors.New("store: recording not found")

// Recording is one persisted dictation: the audio file it came from,
// when it happened, how long it ran, and what was recognized.
type Recording struct {
	AudioPath  string    `json:"audio_path"`
	Timestamp  time.Time `json:"timestamp"`
	Duration   float64   `json:"duration"`
	Transcript string    `json:"transcription"`
	Corrected  string    `json:"cleaned_transcription,omitempty"`
}

// Store reads and writes the metadata file. Safe for concurrent use.
type Store struct {
	dir  string
	path string

	mu sync.Mutex
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("store: creating recordings dir: %w", err)
	}
	return &Store{
		dir:  dir,
		path: filepath.Join(dir, metadataFile),
	}, nil
}

// Save appends a new recording and returns it. corrected may be empty.
func (s *Store) Save(audioPath, transcript string, duration float64, corrected string) (*Recording, error) {
	rec := Recording{
		AudioPath:  audioPath,
		Timestamp:  time.Now(),
		Duration:   duration,
		Transcript: transcript,
		Corrected:  corrected,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recs := s.loadLocked()
	recs = append(recs, rec)
	if err := s.writeLocked(recs); err != nil {
		return nil, err
	}

	slog.Info("saved recording",
		"audio_path", audioPath,
		"duration", duration,
		"transcript_length", len(transcript),
		"corrected", corrected != "")

	return &rec, nil
}

// LoadAll returns all recordings, newest first.
func (s *Store) LoadAll() []Recording {
	s.mu.Lock()
	recs := s.loadLocked()
	s.mu.Unlock()

	// On disk the file is append-ordered, oldest first.
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	return recs
}

// AttachCorrection sets the corrected transcript on the recording with
// the given audio path. The original transcript is never touched.
func (s *Store) AttachCorrection(audioPath, corrected string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := s.loadLocked()
	for i := range recs {
		if recs[i].AudioPath == audioPath {
			recs[i].Corrected = corrected
			return s.writeLocked(recs)
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, audioPath)
}

// loadLocked reads the metadata file in disk order. A missing file is
// an empty store; a malformed file is logged and treated as empty
// rather than blocking new recordings.
func (s *Store) loadLocked() []Recording {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("could not read metadata file, starting fresh", "path", s.path, "error", err)
		}
		return nil
	}

	var recs []Recording
	if err := json.Unmarshal(data, &recs); err != nil {
		slog.Warn("malformed metadata file, starting fresh", "path", s.path, "error", err)
		return nil
	}
	return recs
}

// writeLocked rewrites the metadata file atomically (tmp + rename).
func (s *Store) writeLocked(recs []Recording) error {
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshaling metadata: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("store: writing metadata: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("store: replacing metadata: %w", err)
	}
	return nil
}
