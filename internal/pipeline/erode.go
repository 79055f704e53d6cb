package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/landcover-sample-etl/internal/artifact"
	"github.com/couchcryptid/landcover-sample-etl/internal/domain"
	"github.com/couchcryptid/landcover-sample-etl/internal/observability"
)

// ErodeConfig holds the erosion stage parameters.
type ErodeConfig struct {
	Layout     artifact.Layout
	Classes    []domain.LandCover
	WindowSize int
	Workers    int
}

// ErodeStage masks and erodes every tile for each configured class and
// writes one survivor table per class.
type ErodeStage struct {
	cfg      ErodeConfig
	source   TileSource
	store    PixelStore
	logger   *slog.Logger
	metrics  *observability.Metrics
	progress ProgressFunc
}

// NewErodeStage creates an ErodeStage.
func NewErodeStage(cfg ErodeConfig, source TileSource, store PixelStore, logger *slog.Logger, metrics *observability.Metrics, progress ProgressFunc) *ErodeStage {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &ErodeStage{cfg: cfg, source: source, store: store, logger: logger, metrics: metrics, progress: progress}
}

func (s *ErodeStage) Name() string { return StageErode }

func (s *ErodeStage) Output() artifact.Kind { return artifact.KindEroded }

// Run processes classes one at a time so only one class's survivors are held
// in memory. A class with no survivors in any tile is reported as an error
// after the remaining classes have been written.
func (s *ErodeStage) Run(ctx context.Context, req Request) (Result, error) {
	start := domain.Now()
	if err := domain.ValidateWindow(s.cfg.WindowSize); err != nil {
		return Result{Stage: StageErode}, err
	}

	tiles, err := s.tilePaths(ctx, req)
	if err != nil {
		return Result{Stage: StageErode}, err
	}

	var (
		out    []artifact.Artifact
		failed []error
		done   atomic.Int64
	)
	total := len(tiles) * len(s.cfg.Classes)
	for _, lc := range s.cfg.Classes {
		parts, err := s.erodeTiles(ctx, tiles, lc, func() {
			s.progress.report(StageErode, int(done.Add(1)), total)
		})
		if err != nil {
			return Result{Stage: StageErode, Artifacts: out}, err
		}

		table, err := domain.BuildTable(parts, lc)
		if errors.Is(err, domain.ErrNoSurvivingPixels) {
			s.logger.Error("no pixels survived erosion", "lc", int(lc), "class", lc.Name(), "window_size", s.cfg.WindowSize)
			failed = append(failed, err)
			continue
		}
		if err != nil {
			return Result{Stage: StageErode, Artifacts: out}, err
		}

		path := s.cfg.Layout.Eroded(lc, s.cfg.WindowSize)
		if err := s.store.WritePixels(path, table); err != nil {
			return Result{Stage: StageErode, Artifacts: out}, fmt.Errorf("write eroded table for lc %d: %w", lc, err)
		}
		s.metrics.PixelsSurviving.WithLabelValues(strconv.Itoa(int(lc))).Add(float64(len(table)))
		s.logger.Info("eroded table written", "lc", int(lc), "class", lc.Name(), "rows", len(table), "path", path)
		out = append(out, artifact.Artifact{
			Kind:       artifact.KindEroded,
			Path:       path,
			LandCover:  lc,
			WindowSize: s.cfg.WindowSize,
			Rows:       len(table),
		})
	}

	res := Result{Stage: StageErode, Artifacts: out, Duration: domain.Since(start)}
	if len(failed) > 0 {
		return res, errors.Join(failed...)
	}
	return res, nil
}

// erodeTiles returns per-tile survivors for lc, indexed like tiles.
func (s *ErodeStage) erodeTiles(ctx context.Context, tiles []string, lc domain.LandCover, tick func()) ([][]domain.PixelRow, error) {
	parts := make([][]domain.PixelRow, len(tiles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, path := range tiles {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tile, err := s.source.Read(gctx, path)
			if err != nil {
				return fmt.Errorf("read tile %s: %w", path, err)
			}
			rows, err := domain.ErodeClass(tile, lc, s.cfg.WindowSize)
			if err != nil {
				return fmt.Errorf("erode tile %s: %w", path, err)
			}
			tick()
			if len(rows) == 0 {
				s.metrics.TilesSkipped.Inc()
				s.logger.Debug("tile skipped", "tile", path, "lc", int(lc))
				return nil
			}
			s.metrics.TilesEroded.Inc()
			parts[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parts, nil
}

func (s *ErodeStage) tilePaths(ctx context.Context, req Request) ([]string, error) {
	if in := inputsOfKind(req.Inputs, artifact.KindTile); len(in) > 0 {
		paths := make([]string, len(in))
		for i, a := range in {
			paths[i] = a.Path
		}
		return paths, nil
	}
	paths, err := s.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tiles: %w", err)
	}
	return paths, nil
}
