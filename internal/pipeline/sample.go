package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/landcover-sample-etl/internal/artifact"
	"github.com/couchcryptid/landcover-sample-etl/internal/domain"
	"github.com/couchcryptid/landcover-sample-etl/internal/observability"
)

// SampleConfig holds the sampling stage parameters.
type SampleConfig struct {
	Layout      artifact.Layout
	Classes     []domain.LandCover
	WindowSize  int
	SampleSize  int
	GroupBy     domain.GroupBy
	MaxJoinRows int
	Regions     []string
	Seed        uint64
}

// SampleStage reprojects each eroded table, joins it to regions, and draws a
// stratified sample.
type SampleStage struct {
	cfg       SampleConfig
	pixels    PixelStore
	samples   SampleStore
	projector domain.Projector
	locator   domain.RegionLocator
	logger    *slog.Logger
	metrics   *observability.Metrics
	progress  ProgressFunc
}

// NewSampleStage creates a SampleStage.
func NewSampleStage(
	cfg SampleConfig,
	pixels PixelStore,
	samples SampleStore,
	projector domain.Projector,
	locator domain.RegionLocator,
	logger *slog.Logger,
	metrics *observability.Metrics,
	progress ProgressFunc,
) *SampleStage {
	return &SampleStage{
		cfg:       cfg,
		pixels:    pixels,
		samples:   samples,
		projector: projector,
		locator:   locator,
		logger:    logger,
		metrics:   metrics,
		progress:  progress,
	}
}

func (s *SampleStage) Name() string { return StageSample }

func (s *SampleStage) Output() artifact.Kind { return artifact.KindSampled }

// Run samples every input table. A missing eroded table is a hard failure.
func (s *SampleStage) Run(ctx context.Context, req Request) (Result, error) {
	start := domain.Now()
	inputs := s.inputs(req)
	out := make([]artifact.Artifact, 0, len(inputs))
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			return Result{Stage: StageSample, Artifacts: out}, err
		}
		a, err := s.sampleTable(in)
		if err != nil {
			return Result{Stage: StageSample, Artifacts: out}, err
		}
		out = append(out, a)
		s.progress.report(StageSample, i+1, len(inputs))
	}
	return Result{Stage: StageSample, Artifacts: out, Duration: domain.Since(start)}, nil
}

func (s *SampleStage) sampleTable(in artifact.Artifact) (artifact.Artifact, error) {
	lc := in.LandCover
	rows, err := s.pixels.ReadPixels(in.Path)
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("read eroded table for lc %d: %w", lc, err)
	}

	// One generator per class, derived from the run seed.
	rng := domain.NewRand(s.cfg.Seed + uint64(lc))

	kept, fids := domain.CapRows(rows, s.cfg.MaxJoinRows, rng)
	if len(kept) < len(rows) {
		s.logger.Info("eroded table capped before join", "lc", int(lc), "rows", len(rows), "kept", len(kept))
	}

	points, err := domain.Reproject(kept, fids, s.projector)
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("reproject lc %d: %w", lc, err)
	}

	joined, dropped := domain.JoinRegions(points, s.locator, s.cfg.Regions)
	s.metrics.RowsJoined.Add(float64(len(joined)))
	s.metrics.RowsOutsideRegions.Add(float64(dropped))
	if len(joined) == 0 {
		s.logger.Warn("no points fall inside any region", "lc", int(lc), "points", len(points))
	}

	sampled, reports, err := domain.StratifiedSample(joined, s.cfg.SampleSize, s.cfg.GroupBy, rng)
	if err != nil {
		return artifact.Artifact{}, fmt.Errorf("sample lc %d: %w", lc, err)
	}
	for _, r := range reports {
		if !r.Oversampled {
			continue
		}
		s.metrics.GroupsOversampled.Inc()
		s.logger.Warn("group smaller than sample size, drawn with replacement",
			"lc", int(lc),
			"group", r.Key.String(),
			"source_rows", r.SourceRows,
			"sample_size", r.SampledRows,
		)
	}

	path := s.cfg.Layout.Sampled(lc, s.cfg.WindowSize)
	if err := s.samples.WriteSamples(path, sampled); err != nil {
		return artifact.Artifact{}, fmt.Errorf("write sampled table for lc %d: %w", lc, err)
	}
	s.metrics.SamplesWritten.Add(float64(len(sampled)))
	s.logger.Info("sampled table written",
		"lc", int(lc),
		"eroded_rows", len(rows),
		"joined_rows", len(joined),
		"groups", len(reports),
		"rows", len(sampled),
		"path", path,
	)
	return artifact.Artifact{
		Kind:       artifact.KindSampled,
		Path:       path,
		LandCover:  lc,
		WindowSize: s.cfg.WindowSize,
		Rows:       len(sampled),
	}, nil
}

func (s *SampleStage) inputs(req Request) []artifact.Artifact {
	if in := inputsOfKind(req.Inputs, artifact.KindEroded); len(in) > 0 {
		return in
	}
	out := make([]artifact.Artifact, len(s.cfg.Classes))
	for i, lc := range s.cfg.Classes {
		out[i] = artifact.Artifact{
			Kind:       artifact.KindEroded,
			Path:       s.cfg.Layout.Eroded(lc, s.cfg.WindowSize),
			LandCover:  lc,
			WindowSize: s.cfg.WindowSize,
		}
	}
	return out
}
