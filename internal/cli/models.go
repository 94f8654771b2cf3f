package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chaz8081/dictator/internal/config"
	"github.com/chaz8081/dictator/internal/models"
)

func newModelsCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage whisper models for a local server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List downloadable models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range models.Available() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "download [model]",
		Short: "Download a whisper ggml model",
		Long: `Download a whisper ggml model into the models directory. Without an
argument the configured transcribe model is downloaded.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model := flags.cfg.Transcribe.Model
			if len(args) == 1 {
				model = args[0]
			}
			if model == "" {
				return fmt.Errorf("no model given and none configured")
			}

			path, err := models.Download(model, config.DefaultModelsDir())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Model ready: %s\n", path)
			fmt.Fprintf(cmd.OutOrStdout(), "Point your whisper server at it, e.g.:\n  whisper-server -m %s --port 8080\n", path)
			return nil
		},
	})

	return cmd
}
