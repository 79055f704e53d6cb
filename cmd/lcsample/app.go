package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/couchcryptid/landcover-sample-etl/internal/adapter/csvexport"
	httpadapter "github.com/couchcryptid/landcover-sample-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/landcover-sample-etl/internal/adapter/kafka"
	"github.com/couchcryptid/landcover-sample-etl/internal/adapter/parquet"
	"github.com/couchcryptid/landcover-sample-etl/internal/adapter/projection"
	"github.com/couchcryptid/landcover-sample-etl/internal/adapter/raster"
	"github.com/couchcryptid/landcover-sample-etl/internal/adapter/regions"
	"github.com/couchcryptid/landcover-sample-etl/internal/config"
	"github.com/couchcryptid/landcover-sample-etl/internal/domain"
	"github.com/couchcryptid/landcover-sample-etl/internal/observability"
	"github.com/couchcryptid/landcover-sample-etl/internal/pipeline"
)

// app holds everything one invocation wires together.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	runID    string
	pipeline *pipeline.Pipeline
	server   *httpadapter.Server
	writer   *kafkaadapter.Writer
	bars     *progressBars
}

func newApp(opts *options, stages []string) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return nil, err
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	a := &app{cfg: cfg, logger: logger, runID: uuid.NewString()}

	var progress pipeline.ProgressFunc
	if !opts.noProgress {
		a.bars = newProgressBars()
		progress = a.bars.report
	}

	built, err := a.buildStages(stages, metrics, progress)
	if err != nil {
		return nil, err
	}

	var notifier pipeline.Notifier
	if len(cfg.KafkaBrokers) > 0 {
		a.writer = kafkaadapter.NewWriter(cfg, logger)
		notifier = a.writer
		logger.Info("artifact notifications enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	a.pipeline = pipeline.New(built, notifier, logger, metrics)

	if cfg.MetricsAddr != "" {
		a.server = httpadapter.NewServer(cfg.MetricsAddr, a.pipeline, a.pipeline, logger)
		go func() {
			if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	logger.Info("run starting",
		"run_id", a.runID,
		"stages", stages,
		"data_dir", cfg.DataDir,
		"window_size", cfg.WindowSize,
		"land_covers", cfg.LandCovers,
	)
	return a, nil
}

func (a *app) buildStages(names []string, metrics *observability.Metrics, progress pipeline.ProgressFunc) ([]pipeline.Stage, error) {
	cfg := a.cfg
	layout := cfg.Layout()
	classes, err := cfg.LandCoverClasses()
	if err != nil {
		return nil, err
	}
	store := parquet.NewStore()

	var stages []pipeline.Stage
	for _, name := range names {
		switch name {
		case pipeline.StageSplit:
			stages = append(stages, pipeline.NewSplitStage(
				raster.NewSplitter(layout, a.logger), cfg.TileSize, a.logger, metrics, progress))

		case pipeline.StageErode:
			stages = append(stages, pipeline.NewErodeStage(pipeline.ErodeConfig{
				Layout:     layout,
				Classes:    classes,
				WindowSize: cfg.WindowSize,
				Workers:    cfg.Workers,
			}, raster.NewTileReader(layout), store, a.logger, metrics, progress))

		case pipeline.StageSample:
			bng, err := projection.NewBNG()
			if err != nil {
				return nil, err
			}
			index, err := a.loadRegions(bng)
			if err != nil {
				return nil, err
			}
			seed := cfg.ResolveSeed(domain.Now())
			a.logger.Info("sampling seed", "seed", seed)
			stages = append(stages, pipeline.NewSampleStage(pipeline.SampleConfig{
				Layout:      layout,
				Classes:     classes,
				WindowSize:  cfg.WindowSize,
				SampleSize:  cfg.SampleSize,
				GroupBy:     cfg.GroupBy(),
				MaxJoinRows: cfg.MaxJoinRows,
				Regions:     cfg.Regions,
				Seed:        seed,
			}, store, store, bng, index, a.logger, metrics, progress))

		case pipeline.StageExport:
			stages = append(stages, pipeline.NewExportStage(pipeline.ExportConfig{
				Layout:     layout,
				Classes:    classes,
				WindowSize: cfg.WindowSize,
			}, store, csvexport.NewExporter(), a.logger, metrics, progress))

		default:
			return nil, fmt.Errorf("%w: %q", pipeline.ErrUnknownStage, name)
		}
	}
	return stages, nil
}

// loadRegions reads the region layer and reprojects it from the national grid
// to longitude/latitude.
func (a *app) loadRegions(bng *projection.BNG) (*regions.Index, error) {
	path := a.cfg.RegionsFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(a.cfg.DataDir, path)
	}
	index, err := regions.Load(path, a.cfg.RegionField, bng.Forward())
	if err != nil {
		return nil, err
	}
	names := index.Names()
	for _, want := range a.cfg.Regions {
		if !slices.Contains(names, want) {
			a.logger.Warn("allowed region not in layer", "region", want, "layer", path)
		}
	}
	a.logger.Info("region layer loaded", "path", path, "regions", len(names))
	return index, nil
}

func (a *app) close() {
	if a.bars != nil {
		a.bars.finish()
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Error("http server shutdown error", "error", err)
		}
	}
	if a.writer != nil {
		if err := a.writer.Close(); err != nil {
			a.logger.Error("kafka writer close error", "error", err)
		}
	}
}

// progressBars draws one bar per stage on stdout. Stages with an unknown total
// get a spinner.
type progressBars struct {
	mu   sync.Mutex
	bars map[string]*progressbar.ProgressBar
}

func newProgressBars() *progressBars {
	return &progressBars{bars: make(map[string]*progressbar.ProgressBar)}
}

func (p *progressBars) report(stage string, done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	bar, ok := p.bars[stage]
	if !ok {
		bar = progressbar.Default(int64(total), stage)
		p.bars[stage] = bar
	}
	_ = bar.Set(done)
}

func (p *progressBars) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, bar := range p.bars {
		_ = bar.Finish()
	}
}
