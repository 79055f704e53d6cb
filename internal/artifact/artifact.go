// Package artifact owns the file-naming contract between pipeline stages and
// the downstream analysis scripts. No other package formats these names.
package artifact

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/couchcryptid/landcover-sample-etl/internal/domain"
)

// Kind identifies what an artifact holds.
type Kind string

const (
	KindTile    Kind = "tile"
	KindEroded  Kind = "eroded"
	KindSampled Kind = "sampled"
	KindExport  Kind = "export"
)

// Artifact is a file produced by a stage.
type Artifact struct {
	Kind       Kind
	Path       string
	LandCover  domain.LandCover
	WindowSize int
	Region     string
	Rows       int
}

var (
	ErrUnrecognizedName = errors.New("file name does not follow the artifact naming scheme")

	erodedRe  = regexp.MustCompile(`^(.+)_eroded_(\d+)_lc_(\d+)\.parquet$`)
	sampledRe = regexp.MustCompile(`^(.+)_sampled_eroded_(\d+)_lc_(\d+)\.parquet$`)
	tileRe    = regexp.MustCompile(`^(.+)_(\d+)_(\d+)\.tif$`)
)

// Layout resolves artifact paths under one data directory for one source
// raster base name (e.g. "LCD_2018").
type Layout struct {
	DataDir  string
	BaseName string
}

// SourceRaster is the national land-cover raster.
func (l Layout) SourceRaster() string {
	return filepath.Join(l.DataDir, l.BaseName+".tif")
}

// Tile is the tile cut at pixel offset (xOff, yOff).
func (l Layout) Tile(xOff, yOff int) string {
	return filepath.Join(l.DataDir, fmt.Sprintf("%s_%d_%d.tif", l.BaseName, xOff, yOff))
}

// TileGlob matches every tile of the source raster.
func (l Layout) TileGlob() string {
	return filepath.Join(l.DataDir, l.BaseName+"_*.tif")
}

// Eroded is the survivor table for one class and window size.
func (l Layout) Eroded(lc domain.LandCover, window int) string {
	return filepath.Join(l.DataDir, fmt.Sprintf("%s_eroded_%d_lc_%d.parquet", l.BaseName, window, lc))
}

// Sampled is the stratified sample drawn from the matching eroded table.
func (l Layout) Sampled(lc domain.LandCover, window int) string {
	return filepath.Join(l.DataDir, fmt.Sprintf("%s_sampled_eroded_%d_lc_%d.parquet", l.BaseName, window, lc))
}

// Export is the CSV of one region's sampled points for one class.
func (l Layout) Export(lc domain.LandCover, window int, region string) string {
	return filepath.Join(l.DataDir, fmt.Sprintf("%s_sampled_eroded_%d_lc_%d_%s.csv", l.BaseName, window, lc, sanitize(region)))
}

// ParseEroded recovers base name, window size and class from an eroded table
// path.
func ParseEroded(path string) (base string, window int, lc domain.LandCover, err error) {
	name := filepath.Base(path)
	if sampledRe.MatchString(name) {
		return "", 0, 0, fmt.Errorf("%w: %s is a sampled table", ErrUnrecognizedName, name)
	}
	return parseTable(erodedRe, name)
}

// ParseSampled recovers base name, window size and class from a sampled table
// path.
func ParseSampled(path string) (base string, window int, lc domain.LandCover, err error) {
	return parseTable(sampledRe, filepath.Base(path))
}

// ParseTile recovers the pixel offsets of a tile path belonging to base.
func ParseTile(path, base string) (xOff, yOff int, err error) {
	m := tileRe.FindStringSubmatch(filepath.Base(path))
	if m == nil || m[1] != base {
		return 0, 0, fmt.Errorf("%w: %s", ErrUnrecognizedName, path)
	}
	xOff, _ = strconv.Atoi(m[2])
	yOff, _ = strconv.Atoi(m[3])
	return xOff, yOff, nil
}

func parseTable(re *regexp.Regexp, name string) (string, int, domain.LandCover, error) {
	m := re.FindStringSubmatch(name)
	if m == nil {
		return "", 0, 0, fmt.Errorf("%w: %s", ErrUnrecognizedName, name)
	}
	window, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: %s", ErrUnrecognizedName, name)
	}
	code, err := strconv.Atoi(m[3])
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: %s", ErrUnrecognizedName, name)
	}
	lc, err := domain.ParseLandCover(code)
	if err != nil {
		return "", 0, 0, fmt.Errorf("parse %s: %w", name, err)
	}
	return m[1], window, lc, nil
}

// sanitize makes a region name safe for a file name.
func sanitize(region string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, region)
}
