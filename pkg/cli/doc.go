/*
Package cli provides command-line interface utilities for the taskpilot
command: output formatters, a terminal spinner for the connection phase of
streaming calls, signal handling, and exit-code mapping for the provider
error taxonomy.

Output Formatting:

Commands that print structured results (model catalogs, usage summaries)
support text and JSON output:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, models); err != nil {
		return err
	}

Signal Handling:

For cancelling streams on Ctrl-C:

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()
*/
package cli
