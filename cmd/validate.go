package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sherine-k/roundabout/pkg/config"
	"github.com/sherine-k/roundabout/pkg/scenario"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a scenario file without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if expr := cfg.EmergencyStops.CronSchedule; expr != "" {
				if _, err := scenario.ParseSchedule(expr); err != nil {
					return fmt.Errorf("invalid cronSchedule %q: %w", expr, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d vehicles, %s stops, %d ticks\n",
				configFile, cfg.VehicleCount, cfg.StopDuration, cfg.TotalTicks())
			return nil
		},
	}
}
