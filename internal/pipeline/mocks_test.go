package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/couchcryptid/landcover-sample-etl/internal/artifact"
	"github.com/couchcryptid/landcover-sample-etl/internal/domain"
	"github.com/couchcryptid/landcover-sample-etl/internal/observability"
)

var testLayout = artifact.Layout{DataDir: "/data", BaseName: "LCD_TEST"}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

// uniformTile is a size x size tile of one class at pixel offset (xOff, yOff)
// of a 25 m grid anchored at easting 400000, northing 300000.
func uniformTile(name string, size, xOff, yOff int, lc domain.LandCover) domain.Tile {
	values := make([]uint8, size*size)
	for i := range values {
		values[i] = uint8(lc)
	}
	gt := domain.GeoTransform{400000 + 25*float64(xOff), 25, 0, 300000 - 25*float64(yOff), 0, -25}
	return domain.Tile{Name: name, Width: size, Height: size, GeoTransform: gt, Values: values}
}

// --- tiles ---

type memTiles struct {
	tiles   map[string]domain.Tile
	readErr error
}

func (m *memTiles) List(_ context.Context) ([]string, error) {
	if len(m.tiles) == 0 {
		return nil, errors.New("no tiles found")
	}
	paths := make([]string, 0, len(m.tiles))
	for p := range m.tiles {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func (m *memTiles) Read(_ context.Context, path string) (domain.Tile, error) {
	if m.readErr != nil {
		return domain.Tile{}, m.readErr
	}
	t, ok := m.tiles[path]
	if !ok {
		return domain.Tile{}, fmt.Errorf("open raster %s: %w", path, os.ErrNotExist)
	}
	return t, nil
}

type fakeSplitter struct {
	tiles *memTiles
	err   error
}

func (f *fakeSplitter) Split(_ context.Context, _ int, onTile func(artifact.Artifact)) ([]artifact.Artifact, error) {
	paths, _ := f.tiles.List(context.Background())
	var out []artifact.Artifact
	for i, p := range paths {
		if f.err != nil && i == 1 {
			return out, f.err
		}
		a := artifact.Artifact{Kind: artifact.KindTile, Path: p}
		out = append(out, a)
		onTile(a)
	}
	return out, nil
}

// --- tables ---

type memStore struct {
	mu      sync.Mutex
	pixels  map[string][]domain.PixelRow
	samples map[string][]domain.PointSample
}

func newMemStore() *memStore {
	return &memStore{
		pixels:  map[string][]domain.PixelRow{},
		samples: map[string][]domain.PointSample{},
	}
}

func (m *memStore) WritePixels(path string, rows []domain.PixelRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pixels[path] = rows
	return nil
}

func (m *memStore) ReadPixels(path string) ([]domain.PixelRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.pixels[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, os.ErrNotExist)
	}
	return rows, nil
}

func (m *memStore) WriteSamples(path string, rows []domain.PointSample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples[path] = rows
	return nil
}

func (m *memStore) ReadSamples(path string) ([]domain.PointSample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.samples[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, os.ErrNotExist)
	}
	return rows, nil
}

// --- geography ---

// shiftProjector maps 100 km of grid to one degree.
type shiftProjector struct{}

func (shiftProjector) ToLonLat(x, y float64) (float64, float64, error) {
	return x/100000 - 7, y/100000 + 49, nil
}

func (shiftProjector) ToProjected(lon, lat float64) (float64, float64, error) {
	return (lon + 7) * 100000, (lat - 49) * 100000, nil
}

// splitLocator puts points west of a meridian in "West" and the rest in
// "East", and nothing north of maxLat.
type splitLocator struct {
	meridian float64
	maxLat   float64
}

func (l splitLocator) Locate(lon, lat float64) (string, bool) {
	if l.maxLat != 0 && lat > l.maxLat {
		return "", false
	}
	if lon < l.meridian {
		return "West", true
	}
	return "East", true
}

// --- outputs ---

type memExporter struct {
	files map[string][]domain.PointSample
}

func (m *memExporter) Export(path string, samples []domain.PointSample) error {
	if m.files == nil {
		m.files = map[string][]domain.PointSample{}
	}
	m.files[path] = samples
	return nil
}

type notification struct {
	runID, stage string
	artifacts    []artifact.Artifact
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
	err  error
}

func (r *recordingNotifier) Notify(_ context.Context, runID, stage string, artifacts []artifact.Artifact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, notification{runID: runID, stage: stage, artifacts: artifacts})
	return r.err
}
