package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate provider settings",
	Long: `Check the configured provider settings without sending any request:
the provider must be known, must carry an API key if it requires one, must
have a model selected, and must have a base URL if it has no default endpoint.

Examples:
  # Validate the settings in taskpilot.yaml
  taskpilot validate

  # Validate an alternate configuration
  taskpilot validate --config staging.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	gw, cleanup, err := buildGateway(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := gw.Validate(cfg.Provider); err != nil {
		return err
	}

	fmt.Printf("settings valid: provider %q, model %q\n", cfg.Provider.Provider, cfg.Provider.Model)
	return nil
}
