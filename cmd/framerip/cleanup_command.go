package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"framerip/internal/pidfile"
)

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Kill orphaned player processes left by interrupted runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			pattern := filepath.Join(cfg.Paths.StateDir, "framerip-*.pids")
			matches, err := filepath.Glob(pattern)
			if err != nil {
				return fmt.Errorf("scan registries: %w", err)
			}
			if len(matches) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no pid registries found")
				return nil
			}

			killed, gone := 0, 0
			for _, path := range matches {
				registry := pidfile.Open(path)
				pids, err := registry.PIDs()
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "skipping %s: %v\n", path, err)
					continue
				}
				for _, pid := range pids {
					if !pidfile.Alive(pid) {
						gone++
						continue
					}
					if dryRun {
						fmt.Fprintf(cmd.OutOrStdout(), "would kill pid %d (%s)\n", pid, filepath.Base(path))
						continue
					}
					if err := pidfile.Terminate(pid); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "kill pid %d: %v\n", pid, err)
						continue
					}
					killed++
				}
				if !dryRun {
					if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
						fmt.Fprintf(cmd.ErrOrStderr(), "remove %s: %v\n", path, err)
					}
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "killed %d orphan(s), %d already gone\n", killed, gone)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report orphans without killing them")

	return cmd
}
