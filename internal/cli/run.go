package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/chaz8081/dictator/internal/audio"
	"github.com/chaz8081/dictator/internal/config"
	"github.com/chaz8081/dictator/internal/correct"
	"github.com/chaz8081/dictator/internal/deliver"
	"github.com/chaz8081/dictator/internal/dictator"
	"github.com/chaz8081/dictator/internal/hotkey"
	"github.com/chaz8081/dictator/internal/notify"
	"github.com/chaz8081/dictator/internal/store"
	"github.com/chaz8081/dictator/internal/transcribe"
)

// shutdownGrace bounds how long shutdown waits for an in-flight
// transcription to finish.
const shutdownGrace = 30 * time.Second

func newRunCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the dictation daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(flags.cfg)
		},
	}
}

func runDaemon(cfg *config.Config) error {
	printBanner(cfg)

	st, err := store.New(cfg.RecordingsDir)
	if err != nil {
		return fmt.Errorf("opening recording store: %w", err)
	}

	recorder, err := audio.NewRecorder(cfg.Audio.SampleRate, cfg.Audio.Channels, cfg.RecordingsDir)
	if err != nil {
		return fmt.Errorf("initializing audio capture: %w\n\nEnsure microphone access is granted in your OS privacy settings", err)
	}
	defer recorder.Close()

	backend, err := transcribe.New(&cfg.Transcribe)
	if err != nil {
		return err
	}
	engine := transcribe.NewEngine(backend)
	engine.Start()
	defer engine.Close()

	deliverer := deliver.New(cfg.Deliver.Method)

	var corrector dictator.Corrector
	if cfg.Correct.Enabled {
		c, err := correct.New(context.Background(), &cfg.Correct)
		if err != nil {
			// Correction is best-effort; dictation works without it.
			slog.Warn("transcript correction disabled", "error", err)
		} else {
			corrector = c
		}
	}

	sink := notify.NewDesktop("Dictator")

	orch := dictator.New(recorder, engine, st, deliverer, sink, dictator.Options{
		MinClipDuration: time.Duration(cfg.Audio.MinDuration * float64(time.Second)),
		Corrector:       corrector,
	})

	listener := hotkey.NewListener(cfg.Hotkey.Keys, cfg.Hotkey.Mode)
	go listener.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	combo := strings.Join(cfg.Hotkey.Keys, "+")
	slog.Info("ready", "hotkey", combo, "mode", cfg.Hotkey.Mode)
	fmt.Printf("Ready! Press %s to dictate. Ctrl+C to quit.\n", combo)

	for {
		select {
		case _, ok := <-listener.Signals():
			if !ok {
				slog.Info("hotkey listener stopped")
				return shutdown(orch, engine, recorder)
			}
			orch.Toggle()

		case sig := <-sigCh:
			slog.Info("shutting down", "signal", sig.String())
			listener.Stop()
			if err := shutdown(orch, engine, recorder); err != nil {
				slog.Error("shutdown incomplete", "error", err)
			}
			// Exit directly to avoid gohook's C cleanup crash.
			// The OS reclaims the event hook on process exit.
			os.Exit(0)
		}
	}
}

// shutdown drains the orchestrator before releasing the audio and
// transcription backends it depends on.
func shutdown(orch *dictator.Orchestrator, engine *transcribe.Engine, recorder *audio.Recorder) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	err := orch.Close(ctx)
	engine.Close()
	recorder.Close()
	return err
}

// printBanner displays the startup configuration summary.
func printBanner(cfg *config.Config) {
	fmt.Println("=== dictator ===")
	fmt.Printf("  Hotkey:      %s (%s mode)\n", strings.Join(cfg.Hotkey.Keys, "+"), cfg.Hotkey.Mode)
	fmt.Printf("  Audio:       %dHz, %dch\n", cfg.Audio.SampleRate, cfg.Audio.Channels)
	fmt.Printf("  Transcribe:  %s", cfg.Transcribe.Backend)
	if cfg.Transcribe.Backend == "server" {
		fmt.Printf(" (%s)", cfg.Transcribe.ServerURL)
	}
	fmt.Println()
	fmt.Printf("  Deliver:     %s\n", cfg.Deliver.Method)
	fmt.Printf("  Recordings:  %s\n", cfg.RecordingsDir)
	if cfg.Correct.Enabled {
		fmt.Printf("  Correct:     %s\n", cfg.Correct.ModelID)
	}
	fmt.Println("================")
}
