package main

import (
	"fmt"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"framerip/internal/batch"
	"framerip/internal/deps"
	"framerip/internal/logging"
	"framerip/internal/runstore"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var desktopMode bool
	var requestedFPS float64
	var sceneFormat string
	var extraArgs []string

	cmd := &cobra.Command{
		Use:   "run [videos...]",
		Short: "Capture frames from one or more video files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(deps.ForConfig(cfg))
			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("missing required tools: %v (see `framerip doctor`)", missing)
			}

			if requestedFPS > 0 {
				cfg.Capture.RequestedFPS = requestedFPS
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), unix.SIGINT, unix.SIGTERM)
			defer stop()

			rc, err := batch.NewRunContext(cfg, logger)
			if err != nil {
				return err
			}

			history, err := runstore.Open(cfg)
			if err != nil {
				logger.Warn("run history unavailable", logging.Error(err))
				history = nil
			} else {
				defer history.Close()
			}

			mode := batch.ModeSnapshot
			if desktopMode {
				mode = batch.ModeDesktop
			}
			runErr := rc.Run(runCtx, batch.Options{
				Mode:            mode,
				Videos:          args,
				SceneFormat:     sceneFormat,
				ExtraPlayerArgs: extraArgs,
				History:         history,
			})

			fmt.Fprintln(cmd.OutOrStdout(), rc.Summary())
			if runErr != nil {
				return runErr
			}
			if rc.ExitCode != 0 {
				return fmt.Errorf("run finished with %d failed video(s)", rc.Stats.Failures)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&desktopMode, "desktop", false, "Capture the desktop instead of using the player's scene filter")
	cmd.Flags().Float64Var(&requestedFPS, "fps", 0, "Requested capture rate in frames per second (overrides config)")
	cmd.Flags().StringVar(&sceneFormat, "scene-format", "", "Snapshot image format: png, jpg, or jpeg (overrides config)")
	cmd.Flags().StringArrayVar(&extraArgs, "player-arg", nil, "Extra argument passed to the player (repeatable)")

	return cmd
}
