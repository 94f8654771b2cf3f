package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/chaz8081/dictator/internal/audio"
	"github.com/chaz8081/dictator/internal/config"
	"github.com/chaz8081/dictator/internal/models"
	"github.com/chaz8081/dictator/internal/transcribe"
)

func newDoctorCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that recording, transcription, and delivery can work",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, flags.cfg)
		},
	}
}

type check struct {
	name string
	run  func() error
}

func runDoctor(cmd *cobra.Command, cfg *config.Config) error {
	out := cmd.OutOrStdout()

	checks := []check{
		{"recordings directory writable", func() error { return checkWritable(cfg.RecordingsDir) }},
		{"audio capture device", func() error { return checkAudio(cfg) }},
		{"transcription backend reachable", func() error { return checkBackend(cmd.Context(), cfg) }},
		{"clipboard", checkClipboard},
	}
	if cfg.Transcribe.Backend == "server" && cfg.Transcribe.Model != "" {
		checks = append(checks, check{"whisper model downloaded", func() error { return checkModel(cfg.Transcribe.Model) }})
	}

	failures := 0
	for _, c := range checks {
		if err := c.run(); err != nil {
			failures++
			fmt.Fprintf(out, "  [fail] %s: %v\n", c.name, err)
			continue
		}
		fmt.Fprintf(out, "  [ok]   %s\n", c.name)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d checks failed", failures, len(checks))
	}
	fmt.Fprintln(out, "All checks passed.")
	return nil
}

func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	probe := filepath.Join(dir, ".doctor-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return err
	}
	return os.Remove(probe)
}

func checkAudio(cfg *config.Config) error {
	r, err := audio.NewRecorder(cfg.Audio.SampleRate, cfg.Audio.Channels, cfg.RecordingsDir)
	if err != nil {
		return err
	}
	return r.Close()
}

func checkBackend(ctx context.Context, cfg *config.Config) error {
	backend, err := transcribe.New(&cfg.Transcribe)
	if err != nil {
		return err
	}
	defer backend.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return backend.Ping(pingCtx)
}

// checkClipboard round-trips a probe string and restores whatever was
// on the clipboard before.
func checkClipboard() error {
	previous, _ := clipboard.ReadAll()

	const probe = "dictator-doctor-probe"
	if err := clipboard.WriteAll(probe); err != nil {
		return err
	}
	got, err := clipboard.ReadAll()
	if err != nil {
		return err
	}
	_ = clipboard.WriteAll(previous)

	if got != probe {
		return fmt.Errorf("clipboard round-trip mismatch")
	}
	return nil
}

func checkModel(model string) error {
	path := models.Path(model)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s not found (run 'dictator models download %s')", path, model)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s is empty", path)
	}
	return nil
}
