package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/landcover-sample-etl/internal/artifact"
	"github.com/couchcryptid/landcover-sample-etl/internal/domain"
	"github.com/couchcryptid/landcover-sample-etl/internal/observability"
)

// SplitStage cuts the national raster into tiles. Tiles written before a
// failure stay on disk; re-running overwrites them.
type SplitStage struct {
	splitter TileSplitter
	tileSize int
	logger   *slog.Logger
	metrics  *observability.Metrics
	progress ProgressFunc
}

// NewSplitStage creates a SplitStage.
func NewSplitStage(s TileSplitter, tileSize int, logger *slog.Logger, metrics *observability.Metrics, progress ProgressFunc) *SplitStage {
	return &SplitStage{splitter: s, tileSize: tileSize, logger: logger, metrics: metrics, progress: progress}
}

func (s *SplitStage) Name() string { return StageSplit }

func (s *SplitStage) Output() artifact.Kind { return artifact.KindTile }

// Run ignores req.Inputs: the source raster is fixed by the layout.
func (s *SplitStage) Run(ctx context.Context, _ Request) (Result, error) {
	start := domain.Now()
	done := 0
	tiles, err := s.splitter.Split(ctx, s.tileSize, func(artifact.Artifact) {
		done++
		s.metrics.TilesWritten.Inc()
		s.progress.report(StageSplit, done, -1)
	})
	if err != nil {
		return Result{Stage: StageSplit, Artifacts: tiles}, fmt.Errorf("split raster: %w", err)
	}
	s.logger.Info("raster split", "tiles", len(tiles), "tile_size", s.tileSize)
	return Result{Stage: StageSplit, Artifacts: tiles, Duration: domain.Since(start)}, nil
}
