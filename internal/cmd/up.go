// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aibor/qemudut/internal/config"
	"github.com/aibor/qemudut/internal/image"
	"github.com/aibor/qemudut/internal/strategy"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func newUpCommand(flags *globals) *cobra.Command {
	state := strategy.StatusSSH

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Bring the instance up and keep it running until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			return up(cmd.Context(), cfg, state, cmd.OutOrStdout())
		},
	}

	cmd.Flags().Var(&state, "state", "target status: off, shell, internet or ssh")

	return cmd
}

func prepareImage(ctx context.Context, cfg *config.Config) error {
	if cfg.External || cfg.Images.DiskURL == "" {
		return nil
	}

	img := image.Image{
		URL:       cfg.Images.DiskURL,
		DiskPath:  cfg.Instance.Disk,
		Overwrite: cfg.Images.Overwrite,
	}

	if err := image.NewFetcher().Prepare(ctx, img); err != nil {
		return fmt.Errorf("prepare image: %w", err)
	}

	return nil
}

func up(ctx context.Context, cfg *config.Config, state strategy.Status, out io.Writer) error {
	if err := prepareImage(ctx, cfg); err != nil {
		return err
	}

	inst, err := newInstance(cfg)
	if err != nil {
		return err
	}

	defer func() {
		if err := inst.Close(); err != nil {
			slog.Error("Failed to close instance", slog.Any("error", err))
		}
	}()

	if err := inst.strategy.Transition(ctx, state); err != nil {
		return err //nolint:wrapcheck
	}

	if state == strategy.StatusOff {
		return nil
	}

	renderStatus(out, inst)

	<-ctx.Done()

	// The command context is done, so shut down with a fresh one.
	offCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	return inst.strategy.Transition(offCtx, strategy.StatusOff) //nolint:wrapcheck
}

func renderStatus(out io.Writer, inst *instance) {
	writer := table.NewWriter()
	writer.SetOutputMirror(out)
	writer.SetStyle(table.StyleRounded)
	writer.AppendHeader(table.Row{"Service", "Address"})

	writer.AppendRow(table.Row{"status", inst.strategy.Status().String()})
	writer.AppendRow(table.Row{"console", localAddress(inst.cfg.Console.Port)})
	writer.AppendRow(table.Row{"qmp", localAddress(inst.cfg.Instance.QMPPort)})

	if local, bound := inst.rebinder.LocalEndpoint(); bound {
		writer.AppendRow(table.Row{"ssh", local.String()})
	}

	writer.Render()
}
