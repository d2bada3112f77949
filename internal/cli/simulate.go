package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var (
	simulateMagnitude float64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-spike",
	Short: "Force one anomalous sample through the alerting path",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateMagnitude <= 0 {
			return errors.New("--magnitude must be greater than 0")
		}

		return getApp().SimulateSpike(cmd.Context(), simulateMagnitude)
	},
}

func init() {
	simulateCmd.Flags().Float64Var(&simulateMagnitude, "magnitude", 35, "Spike magnitude to inject")
}
