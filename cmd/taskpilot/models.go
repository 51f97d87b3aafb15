package main

import (
	"os"

	"github.com/spf13/cobra"

	"taskpilot/gateway/pkg/cli"
)

var modelsFlags struct {
	output string
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the provider's available models",
	Long: `Fetch the configured provider's model catalog. Providers without a
dynamic catalog endpoint return their published model table; providers with
neither fail with "not supported".`,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().StringVarP(&modelsFlags.output, "output", "o", "text", "output format (text or json)")
}

func runModels(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(modelsFlags.output)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	gw, cleanup, err := buildGateway(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	models, err := gw.FetchModels(cmd.Context(), cfg.Provider)
	if err != nil {
		return err
	}

	return cli.NewFormatter(format).FormatTo(os.Stdout, models)
}
