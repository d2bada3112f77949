package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eriqneo/streamlit-realtime-dashboard/internal/app"
)

var (
	previewBatches int
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print a batch of generated samples without starting the service",
	RunE: func(cmd *cobra.Command, args []string) error {
		if previewBatches <= 0 {
			return fmt.Errorf("--batches must be greater than zero")
		}

		opts := app.PreviewOptions{
			Batches: previewBatches,
		}

		return getApp().Preview(cmd.Context(), opts)
	},
}

func init() {
	previewCmd.Flags().IntVar(&previewBatches, "batches", 10, "Number of tick batches to generate")
}
