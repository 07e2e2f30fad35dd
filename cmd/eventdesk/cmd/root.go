package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// skipSetup marks commands that run without config, store or session.
const skipSetup = "skip-setup"

type globalOptions struct {
	configPath string
	apiURL     string
	logLevel   string
	logFormat  string
	output     string
}

// Execute runs the CLI against the process arguments and exits with its status.
func Execute() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	c := &cli{in: in, out: out, errOut: errOut}
	root := newRootCommand(c)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	if closeErr := c.close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintf(errOut, "Error: %s\n", userMessage(err, c.cfg.API.BaseURL))
		return 1
	}
	return 0
}

func newRootCommand(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "eventdesk",
		Short: "eventdesk - command-line client for the events service",
		Long: `eventdesk manages events and their participants on an events service.

Sign in once with "eventdesk login"; the session is kept on disk until you
sign out or the service rejects it. Configuration comes from environment
variables (EVENTDESK_API_URL, EVENTDESK_STORE_PATH, ...), an optional .env file
and an optional YAML file given with --config.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipSetup] == "true" {
				return nil
			}
			return c.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.opts.configPath, "config", "", "config file path (optional, uses env vars by default)")
	flags.StringVar(&c.opts.apiURL, "api-url", "", "events service base URL (overrides EVENTDESK_API_URL)")
	flags.StringVar(&c.opts.logLevel, "log-level", "", "log level (debug, info, warn, error) (default: warn)")
	flags.StringVar(&c.opts.logFormat, "log-format", "", "log format (json, console) (default: console)")
	flags.StringVarP(&c.opts.output, "output", "o", formatTable, "output format (table, json, yaml)")

	root.AddCommand(
		newSignupCommand(c),
		newLoginCommand(c),
		newLogoutCommand(c),
		newWhoamiCommand(c),
		newEventsCommand(c),
		newParticipantsCommand(c),
		newReportCommand(c),
		newVersionCommand(),
	)
	return root
}
