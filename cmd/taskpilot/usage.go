package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"taskpilot/gateway/pkg/cli"
	"taskpilot/gateway/pkg/usage"
)

var usageFlags struct {
	since  time.Duration
	output string
	prune  bool
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show recorded gateway usage",
	Long: `Aggregate the recorded gateway calls per provider and model from the
usage database. Requires usage recording to be enabled in the configuration.

Examples:
  taskpilot usage
  taskpilot usage --since 24h
  taskpilot usage --prune`,
	RunE: runUsage,
}

func init() {
	rootCmd.AddCommand(usageCmd)
	usageCmd.Flags().DurationVar(&usageFlags.since, "since", 7*24*time.Hour, "aggregation window")
	usageCmd.Flags().StringVarP(&usageFlags.output, "output", "o", "text", "output format (text or json)")
	usageCmd.Flags().BoolVar(&usageFlags.prune, "prune", false, "prune records past the configured retention first")
}

func runUsage(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(usageFlags.output)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Usage.Enabled {
		return fmt.Errorf("usage recording is disabled; enable usage.enabled in %s", cfgFile)
	}

	store, err := usage.Open(cfg.Usage.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if usageFlags.prune {
		removed, err := store.Prune(cmd.Context(), cfg.Usage.Retention)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "pruned %d records\n", removed)
	}

	rows, err := store.Summary(cmd.Context(), time.Now().Add(-usageFlags.since))
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(os.Stdout, rows)
}
