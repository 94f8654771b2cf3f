// Package cli wires the dictator commands together.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/chaz8081/dictator/internal/config"
)

type rootFlags struct {
	configPath string
	debug      bool

	cfg *config.Config
}

// NewRootCmd builds the dictator command tree.
func NewRootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "dictator",
		Short: "Hotkey-driven dictation with local transcription",
		Long: `dictator records from the microphone on a global hotkey, transcribes
the audio with a local whisper server, and inserts the text at the
current input focus.`,
		Example: `  dictator run
  dictator history --limit 5
  dictator file recording.wav
  dictator models download base.en`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags.configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config validation: %w", err)
			}
			flags.cfg = cfg

			level := config.ParseLogLevel(cfg.LogLevel)
			if flags.debug {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: level,
			})))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config file (default: ~/.config/dictator/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "enable debug logging")

	cmd.AddCommand(newRunCmd(&flags))
	cmd.AddCommand(newHistoryCmd(&flags))
	cmd.AddCommand(newFileCmd(&flags))
	cmd.AddCommand(newModelsCmd(&flags))
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newDoctorCmd(&flags))

	return cmd
}

// Execute runs the root command and reports failures on stderr.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig loads the config from path, the default location, or
// falls back to built-in defaults when no file exists.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		return cfg, nil
	}

	return config.Default(), nil
}
