package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"framerip/internal/runstore"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent capture runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := runstore.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded yet")
				return nil
			}

			headers := []string{"STARTED", "MODE", "VIDEOS", "OK", "TIMED OUT", "SKIPPED", "FAILED", "FRAMES", "DURATION"}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					rec.StartedAt.Local().Format("2006-01-02 15:04"),
					rec.Mode,
					strconv.Itoa(rec.TotalFiles),
					strconv.Itoa(rec.Processed),
					strconv.Itoa(rec.TimedOut),
					strconv.Itoa(rec.SkippedAlready),
					strconv.Itoa(rec.Failures),
					strconv.Itoa(rec.FramesSaved),
					rec.FinishedAt.Sub(rec.StartedAt).Round(time.Second).String(),
				})
			}

			if stdoutIsTerminal() {
				aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight,
					alignRight, alignRight, alignRight, alignRight, alignRight}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
				return nil
			}
			// Plain tab-separated output when piped.
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(headers, "\t"))
			for _, row := range rows {
				fmt.Fprintln(cmd.OutOrStdout(), strings.Join(row, "\t"))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")

	return cmd
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
