package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newReportCommand(c *cli) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "report <event-id>",
		Short: "Download the participant report of an event as PDF",
		Long: `Download the participant report of an event as PDF.

Without --out the file is saved in the current directory under the name the
service suggests, or participants-report-<date>.pdf. Use --out - to write the
document to standard output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			report, err := c.events.FetchReport(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if outPath == "-" {
				_, err := cmd.OutOrStdout().Write(report.Data)
				return err
			}

			target := outPath
			if target == "" {
				target = report.Filename
			} else if info, err := os.Stat(target); err == nil && info.IsDir() {
				target = filepath.Join(target, report.Filename)
			}
			if err := os.WriteFile(target, report.Data, 0o600); err != nil {
				return fmt.Errorf("save report: %w", err)
			}

			c.logger.Debug().Str("content_type", report.ContentType).Int("bytes", len(report.Data)).Msg("report saved")
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", target, len(report.Data))
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "output file or directory (- for stdout)")
	return cmd
}
