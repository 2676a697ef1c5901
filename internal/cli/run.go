package cli

import (
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scoring pipeline: fetch feeds, score, persist, alert",
	Long: `Run starts the full pipeline: scheduled feed fetches, queue
consumption when Kafka is enabled, scoring against the trailing window,
persistence, the HTTP query API, and alert dispatch. Stops on SIGINT.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Run(cmd.Context())
	},
}
