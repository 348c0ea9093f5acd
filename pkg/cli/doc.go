/*
Package cli provides command-line helpers for the altdetector command.

Output Formatting:

Commands that print listings accept --format text|json|csv:

	format, err := cli.ParseFormat(flagValue)
	if err != nil {
		return err
	}
	table := cli.Table{Headers: []string{"name"}, Rows: rows}
	return cli.NewFormatter(format).FormatTo(os.Stdout, table)

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

Errors:

ExitCode maps a ConfigError to exit status 2 and any other error to 1.
*/
package cli
