// Command lcsample splits a land-cover raster into tiles, erodes each class,
// and draws a stratified sample of the surviving pixels per region.
//
// Usage:
//
//	lcsample run --config config.toml
//	lcsample erode
//	LCS_WINDOW_SIZE=7 lcsample sample
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/landcover-sample-etl/internal/pipeline"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	configPath string
	noProgress bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "lcsample",
		Short:        "Sample eroded land-cover pixels by region",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a TOML config file (default ./config.toml if present)")
	root.PersistentFlags().BoolVar(&opts.noProgress, "no-progress", false, "disable progress bars")

	root.AddCommand(
		stageCmd(opts, pipeline.StageSplit, "Cut the source raster into fixed-size GeoTIFF tiles"),
		stageCmd(opts, pipeline.StageErode, "Mask and erode every tile, writing one table per land-cover class"),
		stageCmd(opts, pipeline.StageSample, "Reproject, join to regions, and sample each eroded table"),
		stageCmd(opts, pipeline.StageExport, "Write each sampled table as one CSV per region"),
		runCmd(opts),
	)
	return root
}

// stageCmd runs a single stage, reading its inputs from the data directory.
func stageCmd(opts *options, name, short string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd.Context(), opts, []string{name}, func(ctx context.Context, a *app) error {
				_, err := a.pipeline.RunStage(ctx, a.runID, name)
				return err
			})
		},
	}
}

func runCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run split, erode, sample, and export in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stages := []string{pipeline.StageSplit, pipeline.StageErode, pipeline.StageSample, pipeline.StageExport}
			return execute(cmd.Context(), opts, stages, func(ctx context.Context, a *app) error {
				_, err := a.pipeline.Run(ctx, a.runID)
				return err
			})
		},
	}
}

func execute(parent context.Context, opts *options, stages []string, fn func(context.Context, *app) error) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(opts, stages)
	if err != nil {
		return err
	}
	defer a.close()

	if err := fn(ctx, a); err != nil {
		a.logger.Error("run failed", "run_id", a.runID, "error", err)
		return err
	}
	a.logger.Info("run complete", "run_id", a.runID)
	return nil
}
