package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chaz8081/dictator/internal/store"
)

func newHistoryCmd(flags *rootFlags) *cobra.Command {
	var limit int
	var full bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past recordings, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.New(flags.cfg.RecordingsDir)
			if err != nil {
				return err
			}

			recs := st.LoadAll()
			if len(recs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No recordings yet.")
				return nil
			}
			if limit > 0 && len(recs) > limit {
				recs = recs[:limit]
			}

			for _, rec := range recs {
				printRecording(cmd, rec, full)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of recordings to show (0 for all)")
	cmd.Flags().BoolVar(&full, "full", false, "print full transcripts instead of one-line previews")
	return cmd
}

func printRecording(cmd *cobra.Command, rec store.Recording, full bool) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s  %5.1fs  %s\n",
		rec.Timestamp.Local().Format("2006-01-02 15:04:05"),
		rec.Duration,
		rec.AudioPath)

	text := rec.Transcript
	if rec.Corrected != "" {
		text = rec.Corrected
	}
	if !full {
		text = oneLine(text, 80)
	}
	fmt.Fprintf(out, "    %s\n", text)
}

// oneLine collapses text to a single line of at most max characters.
func oneLine(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > max {
		return text[:max] + "..."
	}
	return text
}
