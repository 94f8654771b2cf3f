package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	wavlib "github.com/go-audio/wav"
	"github.com/spf13/cobra"

	"github.com/chaz8081/dictator/internal/correct"
	"github.com/chaz8081/dictator/internal/store"
	"github.com/chaz8081/dictator/internal/transcribe"
)

func newFileCmd(flags *rootFlags) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "file <audio.wav> [audio.wav...]",
		Short: "Transcribe existing WAV files",
		Long: `Transcribe one or more WAV files with the configured backend, print
the text, and append the results to the recording history.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return transcribeFiles(cmd, flags, args, save)
		},
	}

	cmd.Flags().BoolVar(&save, "save", true, "append results to the recording history")
	return cmd
}

func transcribeFiles(cmd *cobra.Command, flags *rootFlags, paths []string, save bool) error {
	cfg := flags.cfg

	backend, err := transcribe.New(&cfg.Transcribe)
	if err != nil {
		return err
	}
	defer backend.Close()

	ctx := cmd.Context()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err = backend.Ping(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("transcription backend unavailable: %w", err)
	}

	var st *store.Store
	if save {
		if st, err = store.New(cfg.RecordingsDir); err != nil {
			return err
		}
	}

	var corrector *correct.BedrockCorrector
	if cfg.Correct.Enabled {
		if corrector, err = correct.New(ctx, &cfg.Correct); err != nil {
			slog.Warn("transcript correction disabled", "error", err)
			corrector = nil
		}
	}

	for _, path := range paths {
		if err := transcribeOne(ctx, cmd, backend, st, corrector, path); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func transcribeOne(ctx context.Context, cmd *cobra.Command, backend transcribe.Transcriber, st *store.Store, corrector *correct.BedrockCorrector, path string) error {
	duration, err := wavDuration(path)
	if err != nil {
		return err
	}

	text, err := backend.Transcribe(ctx, path)
	if err != nil {
		return err
	}
	if text == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: no speech detected\n", path)
		return nil
	}

	corrected := ""
	if corrector != nil {
		if corrected, err = corrector.Correct(ctx, text); err != nil {
			slog.Warn("transcript correction failed", "audio_path", path, "error", err)
			corrected = ""
		}
	}

	if st != nil {
		if _, err := st.Save(path, text, duration.Seconds(), corrected); err != nil {
			return fmt.Errorf("saving to history: %w", err)
		}
	}

	out := text
	if corrected != "" {
		out = corrected
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%.1fs):\n%s\n", path, duration.Seconds(), out)
	return nil
}

// wavDuration reads the duration of a WAV file from its header.
func wavDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := wavlib.NewDecoder(f)
	d, err := dec.Duration()
	if err != nil {
		return 0, fmt.Errorf("reading WAV header: %w", err)
	}
	return d, nil
}
