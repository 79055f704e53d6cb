package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/couchcryptid/landcover-sample-etl/internal/artifact"
	"github.com/couchcryptid/landcover-sample-etl/internal/domain"
	"github.com/couchcryptid/landcover-sample-etl/internal/observability"
)

// ExportConfig holds the export stage parameters.
type ExportConfig struct {
	Layout     artifact.Layout
	Classes    []domain.LandCover
	WindowSize int
}

// ExportStage writes each sampled table as one flat file per region.
type ExportStage struct {
	cfg      ExportConfig
	samples  SampleStore
	exporter SampleExporter
	logger   *slog.Logger
	metrics  *observability.Metrics
	progress ProgressFunc
}

// NewExportStage creates an ExportStage.
func NewExportStage(cfg ExportConfig, samples SampleStore, exporter SampleExporter, logger *slog.Logger, metrics *observability.Metrics, progress ProgressFunc) *ExportStage {
	return &ExportStage{cfg: cfg, samples: samples, exporter: exporter, logger: logger, metrics: metrics, progress: progress}
}

func (s *ExportStage) Name() string { return StageExport }

func (s *ExportStage) Output() artifact.Kind { return artifact.KindExport }

func (s *ExportStage) Run(ctx context.Context, req Request) (Result, error) {
	start := domain.Now()
	inputs := s.inputs(req)
	var out []artifact.Artifact
	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			return Result{Stage: StageExport, Artifacts: out}, err
		}
		rows, err := s.samples.ReadSamples(in.Path)
		if err != nil {
			return Result{Stage: StageExport, Artifacts: out}, fmt.Errorf("read sampled table for lc %d: %w", in.LandCover, err)
		}
		for _, group := range splitByRegion(rows) {
			path := s.cfg.Layout.Export(in.LandCover, s.cfg.WindowSize, group.region)
			if err := s.exporter.Export(path, group.rows); err != nil {
				return Result{Stage: StageExport, Artifacts: out}, fmt.Errorf("export %s: %w", path, err)
			}
			out = append(out, artifact.Artifact{
				Kind:       artifact.KindExport,
				Path:       path,
				LandCover:  in.LandCover,
				WindowSize: s.cfg.WindowSize,
				Region:     group.region,
				Rows:       len(group.rows),
			})
		}
		s.logger.Info("sampled table exported", "lc", int(in.LandCover), "rows", len(rows))
		s.progress.report(StageExport, i+1, len(inputs))
	}
	return Result{Stage: StageExport, Artifacts: out, Duration: domain.Since(start)}, nil
}

type regionGroup struct {
	region string
	rows   []domain.PointSample
}

// splitByRegion groups rows by region, sorted by region name, keeping row
// order within each group.
func splitByRegion(rows []domain.PointSample) []regionGroup {
	idx := make(map[string]int)
	var groups []regionGroup
	for _, r := range rows {
		i, ok := idx[r.Region]
		if !ok {
			i = len(groups)
			idx[r.Region] = i
			groups = append(groups, regionGroup{region: r.Region})
		}
		groups[i].rows = append(groups[i].rows, r)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].region < groups[j].region })
	return groups
}

func (s *ExportStage) inputs(req Request) []artifact.Artifact {
	if in := inputsOfKind(req.Inputs, artifact.KindSampled); len(in) > 0 {
		return in
	}
	out := make([]artifact.Artifact, len(s.cfg.Classes))
	for i, lc := range s.cfg.Classes {
		out[i] = artifact.Artifact{
			Kind:       artifact.KindSampled,
			Path:       s.cfg.Layout.Sampled(lc, s.cfg.WindowSize),
			LandCover:  lc,
			WindowSize: s.cfg.WindowSize,
		}
	}
	return out
}
