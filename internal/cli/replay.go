package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"supply-risk-alerts/internal/app"
)

var (
	replayDir    string
	replayDryRun bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Re-score raw payload files from a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayDir == "" {
			return fmt.Errorf("--dir must be provided")
		}

		opts := app.ReplayOptions{
			Dir:    replayDir,
			DryRun: replayDryRun,
		}

		return getApp().Replay(cmd.Context(), opts)
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayDir, "dir", "", "Directory of raw .json payloads")
	replayCmd.Flags().BoolVar(&replayDryRun, "dry-run", false, "Parse payloads without scoring or writing")
}
