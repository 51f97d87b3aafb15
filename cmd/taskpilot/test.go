package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test provider connectivity",
	Long: `Send a minimal one-token request to the configured provider and report
whether it answered. Non-2xx responses are classified into a readable message
with the vendor's error details extracted where present.`,
	RunE: runTest,
}

func init() {
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	gw, cleanup, err := buildGateway(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := gw.TestConnection(cmd.Context(), cfg.Provider); err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}

	fmt.Printf("provider %q reachable with model %q\n", cfg.Provider.Provider, cfg.Provider.Model)
	return nil
}
