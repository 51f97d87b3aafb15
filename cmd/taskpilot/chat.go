package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"taskpilot/gateway/pkg/cli"
)

var chatFlags struct {
	system string
}

var chatCmd = &cobra.Command{
	Use:   "chat [prompt...]",
	Short: "Stream a completion to stdout",
	Long: `Send a prompt to the configured provider and stream the response to
stdout token by token. Ctrl-C cancels the stream cleanly.

Examples:
  taskpilot chat "plan my afternoon around two meetings"
  taskpilot chat --system "answer in one sentence" "what is a weekly review?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatFlags.system, "system", "", "system instructions")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	gw, cleanup, err := buildGateway(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	spinner := cli.NewSpinner(os.Stderr)
	if isatty.IsTerminal(os.Stderr.Fd()) {
		spinner.Start("waiting for " + cfg.Provider.Provider)
	}

	fragments, err := gw.StreamCompletion(ctx, cfg.Provider, chatFlags.system, strings.Join(args, " "))
	if err != nil {
		spinner.Stop()
		return err
	}

	first := true
	for f := range fragments {
		if first {
			spinner.Stop()
			first = false
		}
		if f.Err != nil {
			fmt.Println()
			return f.Err
		}
		fmt.Print(f.Text)
	}
	spinner.Stop()
	fmt.Println()

	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, "(cancelled)")
	}
	return nil
}
