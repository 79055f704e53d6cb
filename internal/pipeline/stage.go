package pipeline

import (
	"context"
	"time"

	"github.com/couchcryptid/landcover-sample-etl/internal/artifact"
	"github.com/couchcryptid/landcover-sample-etl/internal/domain"
)

// Stage names, in run order.
const (
	StageSplit  = "split"
	StageErode  = "erode"
	StageSample = "sample"
	StageExport = "export"
)

// Request carries the inputs of one stage invocation. Inputs are the
// artifacts produced by the previous stage; when empty, a stage discovers its
// inputs from the artifact layout.
type Request struct {
	RunID  string
	Inputs []artifact.Artifact
}

// Result lists what a stage wrote.
type Result struct {
	Stage     string
	Artifacts []artifact.Artifact
	Duration  time.Duration
}

// Stage is one batch transform between persisted tables.
type Stage interface {
	Name() string
	// Output is the kind of artifact the stage writes.
	Output() artifact.Kind
	Run(ctx context.Context, req Request) (Result, error)
}

// TileSplitter cuts the source raster into tiles.
type TileSplitter interface {
	Split(ctx context.Context, tileSize int, onTile func(artifact.Artifact)) ([]artifact.Artifact, error)
}

// TileSource lists and loads tiles.
type TileSource interface {
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, path string) (domain.Tile, error)
}

// PixelStore persists eroded tables.
type PixelStore interface {
	WritePixels(path string, rows []domain.PixelRow) error
	ReadPixels(path string) ([]domain.PixelRow, error)
}

// SampleStore persists sampled tables.
type SampleStore interface {
	WriteSamples(path string, rows []domain.PointSample) error
	ReadSamples(path string) ([]domain.PointSample, error)
}

// SampleExporter writes one region's samples to a flat file.
type SampleExporter interface {
	Export(path string, samples []domain.PointSample) error
}

// Notifier announces artifacts to downstream consumers.
type Notifier interface {
	Notify(ctx context.Context, runID, stage string, artifacts []artifact.Artifact) error
}

// ProgressFunc reports done units out of total for a stage. total is -1 when
// unknown in advance.
type ProgressFunc func(stage string, done, total int)

func (f ProgressFunc) report(stage string, done, total int) {
	if f != nil {
		f(stage, done, total)
	}
}

// inputsOfKind filters artifacts by kind.
func inputsOfKind(in []artifact.Artifact, kind artifact.Kind) []artifact.Artifact {
	var out []artifact.Artifact
	for _, a := range in {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}
