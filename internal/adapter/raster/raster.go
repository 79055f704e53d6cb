// Package raster reads and cuts the land-cover GeoTIFF through GDAL.
package raster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/airbusgeo/godal"

	"github.com/couchcryptid/landcover-sample-etl/internal/artifact"
	"github.com/couchcryptid/landcover-sample-etl/internal/domain"
)

var (
	ErrNoBands         = errors.New("raster has no bands")
	ErrUnsupportedType = errors.New("raster band is not 8-bit unsigned")
	ErrNoTiles         = errors.New("no tiles found")
)

var registerOnce sync.Once

// Register loads the GDAL drivers. Safe to call more than once.
func Register() {
	registerOnce.Do(godal.RegisterAll)
}

// Info describes a raster without reading its pixels.
type Info struct {
	Width        int
	Height       int
	Bands        int
	GeoTransform domain.GeoTransform
}

// Bounds returns the extent covered by the raster.
func (i Info) Bounds() domain.Bounds {
	t := domain.Tile{Width: i.Width, Height: i.Height, GeoTransform: i.GeoTransform}
	return t.Bounds()
}

// Stat opens path and reports its size and geotransform.
func Stat(path string) (Info, error) {
	Register()
	ds, err := open(path)
	if err != nil {
		return Info{}, err
	}
	defer ds.Close()
	return info(ds)
}

// Splitter cuts the source raster into fixed-size tiles.
type Splitter struct {
	layout artifact.Layout
	logger *slog.Logger
}

// NewSplitter creates a Splitter writing tiles named by layout.
func NewSplitter(layout artifact.Layout, logger *slog.Logger) *Splitter {
	Register()
	return &Splitter{layout: layout, logger: logger}
}

// Split writes one GeoTIFF per window of size tileSize, in column-major order.
// Existing tiles are overwritten. onTile is called after each tile is written
// and may be nil.
func (s *Splitter) Split(ctx context.Context, tileSize int, onTile func(artifact.Artifact)) ([]artifact.Artifact, error) {
	src := s.layout.SourceRaster()
	ds, err := open(src)
	if err != nil {
		return nil, err
	}
	defer ds.Close()

	st := ds.Structure()
	windows, err := domain.TileWindows(st.SizeX, st.SizeY, tileSize)
	if err != nil {
		return nil, fmt.Errorf("split %s: %w", src, err)
	}
	s.logger.Info("splitting raster", "source", src, "width", st.SizeX, "height", st.SizeY, "tiles", len(windows))

	out := make([]artifact.Artifact, 0, len(windows))
	for _, w := range windows {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		dst := s.layout.Tile(w.XOff, w.YOff)
		tile, err := ds.Translate(dst, translateSwitches(w))
		if err != nil {
			return out, fmt.Errorf("write tile %s: %w", dst, err)
		}
		if err := tile.Close(); err != nil {
			return out, fmt.Errorf("close tile %s: %w", dst, err)
		}
		a := artifact.Artifact{Kind: artifact.KindTile, Path: dst, Rows: w.Width * w.Height}
		out = append(out, a)
		s.logger.Debug("tile written", "tile", dst, "window", w.String())
		if onTile != nil {
			onTile(a)
		}
	}
	return out, nil
}

// translateSwitches are the gdal_translate arguments for one window.
func translateSwitches(w domain.Window) []string {
	return []string{
		"-of", "GTiff",
		"-srcwin",
		strconv.Itoa(w.XOff), strconv.Itoa(w.YOff),
		strconv.Itoa(w.Width), strconv.Itoa(w.Height),
	}
}

// ListTiles returns the tiles of layout's raster sorted by name. The source
// raster itself and any file not named like a tile are ignored.
func ListTiles(layout artifact.Layout) ([]string, error) {
	matches, err := filepath.Glob(layout.TileGlob())
	if err != nil {
		return nil, fmt.Errorf("list tiles: %w", err)
	}
	tiles := matches[:0]
	for _, m := range matches {
		if _, _, err := artifact.ParseTile(m, layout.BaseName); err == nil {
			tiles = append(tiles, m)
		}
	}
	if len(tiles) == 0 {
		return nil, fmt.Errorf("%s: %w", layout.TileGlob(), ErrNoTiles)
	}
	sort.Strings(tiles)
	return tiles, nil
}

// TileReader loads tiles into memory. It implements pipeline.TileSource.
type TileReader struct {
	layout artifact.Layout
}

// NewTileReader creates a TileReader for layout's tiles.
func NewTileReader(layout artifact.Layout) *TileReader {
	Register()
	return &TileReader{layout: layout}
}

// List returns every tile path.
func (r *TileReader) List(_ context.Context) ([]string, error) {
	return ListTiles(r.layout)
}

// Read loads band 1 of the tile at path.
func (r *TileReader) Read(_ context.Context, path string) (domain.Tile, error) {
	return ReadTile(path)
}

// ReadTile loads band 1 of an 8-bit GeoTIFF.
func ReadTile(path string) (domain.Tile, error) {
	Register()
	ds, err := open(path)
	if err != nil {
		return domain.Tile{}, err
	}
	defer ds.Close()

	meta, err := info(ds)
	if err != nil {
		return domain.Tile{}, err
	}
	bands := ds.Bands()
	if len(bands) == 0 {
		return domain.Tile{}, fmt.Errorf("%s: %w", path, ErrNoBands)
	}
	band := bands[0]
	if dt := band.Structure().DataType; dt != godal.Byte {
		return domain.Tile{}, fmt.Errorf("%s: data type %v: %w", path, dt, ErrUnsupportedType)
	}

	buf := make([]uint8, meta.Width*meta.Height)
	if err := band.Read(0, 0, buf, meta.Width, meta.Height); err != nil {
		return domain.Tile{}, fmt.Errorf("read %s: %w", path, err)
	}
	return domain.NewTile(filepath.Base(path), meta.Width, meta.Height, meta.GeoTransform, buf)
}

func open(path string) (*godal.Dataset, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open raster %s: %w", path, err)
	}
	ds, err := godal.Open(path, godal.RasterOnly())
	if err != nil {
		return nil, fmt.Errorf("open raster %s: %w", path, err)
	}
	return ds, nil
}

func info(ds *godal.Dataset) (Info, error) {
	st := ds.Structure()
	gt, err := ds.GeoTransform()
	if err != nil {
		return Info{}, fmt.Errorf("read geotransform: %w", err)
	}
	return Info{
		Width:        st.SizeX,
		Height:       st.SizeY,
		Bands:        st.NBands,
		GeoTransform: domain.GeoTransform(gt),
	}, nil
}
