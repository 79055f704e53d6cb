// Command validate checks the artifacts of a finished run against the
// properties every run must satisfy: tiles cover the source raster exactly,
// every eroded pixel sits in a full neighbourhood of its class, every sampled
// group has exactly sample_size rows, sampled points round-trip to the eroded
// table, and the CSV exports match the sampled tables.
//
// Usage:
//
//	go run ./cmd/validate -config config.toml
//	go run ./cmd/validate -config config.toml -skip-raster
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"

	"github.com/couchcryptid/landcover-sample-etl/internal/adapter/csvexport"
	"github.com/couchcryptid/landcover-sample-etl/internal/adapter/parquet"
	"github.com/couchcryptid/landcover-sample-etl/internal/adapter/projection"
	"github.com/couchcryptid/landcover-sample-etl/internal/adapter/raster"
	"github.com/couchcryptid/landcover-sample-etl/internal/adapter/regions"
	"github.com/couchcryptid/landcover-sample-etl/internal/artifact"
	"github.com/couchcryptid/landcover-sample-etl/internal/config"
	"github.com/couchcryptid/landcover-sample-etl/internal/domain"
)

// ukBounds is a generous lon/lat box around Great Britain and Northern Ireland.
var ukBounds = domain.Bounds{MinX: -9, MinY: 49, MaxX: 2.5, MaxY: 61}

// roundTripTolerance is the largest accepted distance in metres between a
// sampled point projected back to the grid and its eroded pixel centre.
const roundTripTolerance = 1.0

// maxErrorsPerPhase bounds the detail printed for a failing phase.
const maxErrorsPerPhase = 50

// phase tracks pass/fail for a validation phase.
type phase struct {
	name    string
	errors  []string
	skipped bool
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	configPath := flag.String("config", "", "path to the TOML config used for the run")
	skipRaster := flag.Bool("skip-raster", false, "skip checks that read the source raster")
	flag.Parse()

	os.Exit(run(*configPath, *skipRaster))
}

// state is everything loaded once and shared by the phases.
type state struct {
	cfg     *config.Config
	layout  artifact.Layout
	classes []domain.LandCover
	store   *parquet.Store
	bng     *projection.BNG
	regions []string
	eroded  map[domain.LandCover][]domain.PixelRow
	sampled map[domain.LandCover][]domain.PointSample
}

func run(configPath string, skipRaster bool) int {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		return 1
	}
	classes, err := cfg.LandCoverClasses()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	bng, err := projection.NewBNG()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	s := &state{
		cfg:     cfg,
		layout:  cfg.Layout(),
		classes: classes,
		store:   parquet.NewStore(),
		bng:     bng,
		eroded:  map[domain.LandCover][]domain.PixelRow{},
		sampled: map[domain.LandCover][]domain.PointSample{},
	}

	fmt.Println("=== Land-Cover Sample Validation ===")
	fmt.Printf("Data: %s/%s, window %d, sample size %d\n", cfg.DataDir, cfg.LandCoverFileName, cfg.WindowSize, cfg.SampleSize)

	if err := s.loadRegions(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load regions: %v\n", err)
		return 1
	}

	var source *domain.Tile
	if !skipRaster {
		t, err := raster.ReadTile(s.layout.SourceRaster())
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: read source raster: %v\n", err)
			return 1
		}
		source = &t
	}

	phases := []*phase{
		s.validateTiles(source),
		s.validateEroded(source),
		s.validateSampled(),
		s.validateExports(),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		switch {
		case p.skipped:
			status = "\033[33mSKIP\033[0m"
		case !p.passed():
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d eroded, %d sampled across %d classes\n",
		countRows(s.eroded), countRows(s.sampled), len(s.classes))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors[:min(len(p.errors), maxErrorsPerPhase)] {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
		if len(p.errors) > maxErrorsPerPhase {
			fmt.Printf("  ... %d more\n", len(p.errors)-maxErrorsPerPhase)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func (s *state) loadRegions() error {
	path := s.cfg.RegionsFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.cfg.DataDir, path)
	}
	index, err := regions.Load(path, s.cfg.RegionField, s.bng.Forward())
	if err != nil {
		return err
	}
	s.regions = index.Names()
	return nil
}

func countRows[T any](m map[domain.LandCover][]T) int {
	n := 0
	for _, rows := range m {
		n += len(rows)
	}
	return n
}

// ── Phase 1: Tiles ──
// Tiles partition the source raster: their pixel counts add up to the
// source's and each lies inside it on the same grid.

func (s *state) validateTiles(source *domain.Tile) *phase {
	p := &phase{name: "Phase 1: Tile coverage"}
	if source == nil {
		p.skipped = true
		return p
	}

	tiles, err := raster.ListTiles(s.layout)
	if err != nil {
		p.errorf("%v", err)
		return p
	}

	srcGT := source.GeoTransform
	srcBounds := source.Bounds()
	total := 0
	for _, path := range tiles {
		info, err := raster.Stat(path)
		if err != nil {
			p.errorf("%s: %v", path, err)
			continue
		}
		total += info.Width * info.Height

		xOff, yOff, err := artifact.ParseTile(path, s.layout.BaseName)
		if err != nil {
			p.errorf("%s: %v", path, err)
			continue
		}
		wantX := srcGT[0] + float64(xOff)*srcGT[1]
		wantY := srcGT[3] + float64(yOff)*srcGT[5]
		if math.Abs(info.GeoTransform[0]-wantX) > 1e-6 || math.Abs(info.GeoTransform[3]-wantY) > 1e-6 {
			p.errorf("%s: origin (%g, %g), expected (%g, %g) from its offset", path,
				info.GeoTransform[0], info.GeoTransform[3], wantX, wantY)
		}
		b := info.Bounds()
		if b.MinX < srcBounds.MinX || b.MaxX > srcBounds.MaxX || b.MinY < srcBounds.MinY || b.MaxY > srcBounds.MaxY {
			p.errorf("%s: extends outside the source raster", path)
		}
	}
	if want := source.Width * source.Height; total != want {
		p.errorf("tiles hold %d pixels, source has %d", total, want)
	}
	fmt.Printf("Tiles: %d\n", len(tiles))
	return p
}

// ── Phase 2: Eroded tables ──
// Every row carries its table's class, sits on a pixel centre, appears once,
// and its full window in the source raster is that class.

func (s *state) validateEroded(source *domain.Tile) *phase {
	p := &phase{name: "Phase 2: Eroded tables"}
	rad := s.cfg.WindowSize / 2

	for _, lc := range s.classes {
		path := s.layout.Eroded(lc, s.cfg.WindowSize)
		rows, err := s.store.ReadPixels(path)
		if err != nil {
			p.errorf("lc %d: %v", lc, err)
			continue
		}
		s.eroded[lc] = rows
		if len(rows) == 0 {
			p.errorf("lc %d: table is empty", lc)
		}

		seen := make(map[[2]float64]bool, len(rows))
		for i, r := range rows {
			if r.LC != int32(lc) {
				p.errorf("lc %d row %d: lc column is %d", lc, i, r.LC)
			}
			key := [2]float64{r.X, r.Y}
			if seen[key] {
				p.errorf("lc %d row %d: duplicate pixel (%g, %g)", lc, i, r.X, r.Y)
			}
			seen[key] = true

			if source == nil {
				continue
			}
			col, row, ok := pixelOf(source.GeoTransform, r.X, r.Y)
			if !ok {
				p.errorf("lc %d row %d: (%g, %g) is not a pixel centre", lc, i, r.X, r.Y)
				continue
			}
			if !fullWindow(source, col, row, rad, lc) {
				p.errorf("lc %d row %d: pixel (%d, %d) has a neighbour of another class", lc, i, col, row)
			}
		}
	}
	return p
}

// pixelOf inverts a north-up geotransform at a pixel centre.
func pixelOf(gt domain.GeoTransform, x, y float64) (col, row int, ok bool) {
	c := (x-gt[0])/gt[1] - 0.5
	r := (y-gt[3])/gt[5] - 0.5
	col, row = int(math.Round(c)), int(math.Round(r))
	return col, row, math.Abs(c-float64(col)) < 1e-6 && math.Abs(r-float64(row)) < 1e-6
}

func fullWindow(t *domain.Tile, col, row, rad int, lc domain.LandCover) bool {
	for r := row - rad; r <= row+rad; r++ {
		for c := col - rad; c <= col+rad; c++ {
			if c < 0 || r < 0 || c >= t.Width || r >= t.Height || t.At(c, r) != uint8(lc) {
				return false
			}
		}
	}
	return true
}

// ── Phase 3: Sampled tables ──
// Every group has exactly sample_size rows, regions come from the layer,
// points lie in the UK, the oversampled flag agrees with duplicate fids, and
// each point projects back onto the eroded pixel it came from.

func (s *state) validateSampled() *phase {
	p := &phase{name: "Phase 3: Sampled tables"}
	by := s.cfg.GroupBy()

	for _, lc := range s.classes {
		path := s.layout.Sampled(lc, s.cfg.WindowSize)
		rows, err := s.store.ReadSamples(path)
		if err != nil {
			p.errorf("lc %d: %v", lc, err)
			continue
		}
		s.sampled[lc] = rows

		groups := map[domain.GroupKey][]domain.PointSample{}
		for i, r := range rows {
			key := domain.GroupKey{Region: r.Region}
			if by == domain.ByRegionAndLandCover {
				key.LC = r.LC
			}
			groups[key] = append(groups[key], r)

			if r.LC != int32(lc) {
				p.errorf("lc %d row %d: lc column is %d", lc, i, r.LC)
			}
			if !slices.Contains(s.regions, r.Region) {
				p.errorf("lc %d row %d: region %q is not in the layer", lc, i, r.Region)
			}
			if len(s.cfg.Regions) > 0 && !slices.Contains(s.cfg.Regions, r.Region) {
				p.errorf("lc %d row %d: region %q is not allowed", lc, i, r.Region)
			}
			if r.Longitude < ukBounds.MinX || r.Longitude > ukBounds.MaxX ||
				r.Latitude < ukBounds.MinY || r.Latitude > ukBounds.MaxY {
				p.errorf("lc %d row %d: (%g, %g) is outside the UK", lc, i, r.Longitude, r.Latitude)
			}
			s.checkRoundTrip(p, lc, i, r)
		}

		for key, g := range groups {
			if len(g) != s.cfg.SampleSize {
				p.errorf("lc %d group %s: %d rows, expected %d", lc, key, len(g), s.cfg.SampleSize)
			}
			checkOversampled(p, lc, key, g)
		}
	}
	return p
}

func (s *state) checkRoundTrip(p *phase, lc domain.LandCover, i int, r domain.PointSample) {
	eroded, ok := s.eroded[lc]
	if !ok {
		return
	}
	if r.FID < 0 || int(r.FID) >= len(eroded) {
		p.errorf("lc %d row %d: fid %d outside the eroded table (%d rows)", lc, i, r.FID, len(eroded))
		return
	}
	x, y, err := s.bng.ToProjected(r.Longitude, r.Latitude)
	if err != nil {
		p.errorf("lc %d row %d: project back: %v", lc, i, err)
		return
	}
	src := eroded[r.FID]
	if d := math.Hypot(x-src.X, y-src.Y); d > roundTripTolerance {
		p.errorf("lc %d row %d: fid %d is %.2f m from its eroded pixel", lc, i, r.FID, d)
	}
}

// checkOversampled requires distinct fids in groups drawn without
// replacement and a consistent flag within each group.
func checkOversampled(p *phase, lc domain.LandCover, key domain.GroupKey, g []domain.PointSample) {
	flagged := g[0].Oversampled
	fids := make(map[int64]bool, len(g))
	dup := false
	for _, r := range g {
		if r.Oversampled != flagged {
			p.errorf("lc %d group %s: oversampled flag differs between rows", lc, key)
			return
		}
		if fids[r.FID] {
			dup = true
		}
		fids[r.FID] = true
	}
	if dup && !flagged {
		p.errorf("lc %d group %s: repeated fids but not flagged oversampled", lc, key)
	}
}

// ── Phase 4: CSV exports ──
// Each region of each sampled table has an export with the same rows.

func (s *state) validateExports() *phase {
	p := &phase{name: "Phase 4: CSV exports"}

	for _, lc := range s.classes {
		rows, ok := s.sampled[lc]
		if !ok {
			continue
		}
		byRegion := map[string][]domain.PointSample{}
		for _, r := range rows {
			byRegion[r.Region] = append(byRegion[r.Region], r)
		}
		for region, want := range byRegion {
			path := s.layout.Export(lc, s.cfg.WindowSize, region)
			got, err := csvexport.ReadFile(path)
			if err != nil {
				p.errorf("lc %d region %q: %v", lc, region, err)
				continue
			}
			if len(got) != len(want) {
				p.errorf("lc %d region %q: export has %d rows, sampled table has %d", lc, region, len(got), len(want))
				continue
			}
			for i, row := range csvexport.ToRows(want) {
				if got[i] != row {
					p.errorf("lc %d region %q row %d: export %+v, sampled %+v", lc, region, i, got[i], row)
				}
			}
		}
	}
	return p
}
