// Command genmock writes a synthetic land-cover raster and region layer so the
// pipeline can be smoke-run without the UKCEH data. The raster is a mosaic of
// single-class blocks on the 25 m national grid; the region layer splits its
// extent into three named polygons.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock -base LCD_MOCK
//	LCS_DATA_DIR=data/mock LCS_LAND_COVER_FILE_NAME=LCD_MOCK \
//	  LCS_REGIONS_FILE=regions.shp lcsample run
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"

	"github.com/couchcryptid/landcover-sample-etl/internal/adapter/projection"
	"github.com/couchcryptid/landcover-sample-etl/internal/adapter/raster"
	"github.com/couchcryptid/landcover-sample-etl/internal/artifact"
	"github.com/couchcryptid/landcover-sample-etl/internal/domain"
)

const (
	pixelSize = 25.0
	originX   = 380000.0
	originY   = 420000.0
)

// mockClasses are drawn for each block; the remainder stay unclassified.
var mockClasses = []domain.LandCover{
	domain.DeciduousWoodland,
	domain.ConiferousWoodland,
	domain.Arable,
	domain.ImprovedGrassland,
	domain.AcidGrassland,
	domain.Heather,
	domain.HeatherGrassland,
	domain.Bog,
	domain.Freshwater,
	domain.Urban,
}

// regionRecord is one polygon of the mock region layer.
type regionRecord struct {
	geom.Polygon
	Region string
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "", "output directory")
	base := flag.String("base", "LCD_MOCK", "base name of the raster (without .tif)")
	width := flag.Int("width", 600, "raster width in pixels")
	height := flag.Int("height", 400, "raster height in pixels")
	block := flag.Int("block", 20, "edge of each single-class block in pixels")
	seed := flag.Uint64("seed", 1, "seed for the block classes")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *width < 1 || *height < 1 || *block < 1 {
		return fmt.Errorf("width, height and block must be positive")
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	layout := artifact.Layout{DataDir: *outDir, BaseName: *base}
	tile, err := mosaic(*base, *width, *height, *block, *seed)
	if err != nil {
		return err
	}
	if err := raster.WriteGeoTIFF(layout.SourceRaster(), tile, projection.EPSGBritishNationalGrid); err != nil {
		return fmt.Errorf("writing raster: %w", err)
	}
	log.Printf("wrote raster: %s (%dx%d)", layout.SourceRaster(), tile.Width, tile.Height)

	regionsPath := filepath.Join(*outDir, "regions.shp")
	if err := writeRegions(regionsPath, tile.Bounds()); err != nil {
		return fmt.Errorf("writing regions: %w", err)
	}
	log.Printf("wrote regions: %s", regionsPath)

	printStats(tile)
	return nil
}

// mosaic fills a width x height raster with blocks of one class each.
func mosaic(name string, width, height, block int, seed uint64) (domain.Tile, error) {
	rng := domain.NewRand(seed)
	values := make([]uint8, width*height)
	for by := 0; by < height; by += block {
		for bx := 0; bx < width; bx += block {
			var lc domain.LandCover
			if rng.IntN(5) > 0 {
				lc = mockClasses[rng.IntN(len(mockClasses))]
			}
			for y := by; y < min(by+block, height); y++ {
				for x := bx; x < min(bx+block, width); x++ {
					values[y*width+x] = uint8(lc)
				}
			}
		}
	}
	gt := domain.GeoTransform{originX, pixelSize, 0, originY, 0, -pixelSize}
	return domain.NewTile(name, width, height, gt, values)
}

// writeRegions splits b into a northern strip and a south-west and south-east
// half, padded by one pixel so edge pixels fall inside.
func writeRegions(path string, b domain.Bounds) error {
	minX, minY := b.MinX-pixelSize, b.MinY-pixelSize
	maxX, maxY := b.MaxX+pixelSize, b.MaxY+pixelSize
	midX := (minX + maxX) / 2
	northY := minY + (maxY-minY)*2/3

	records := []regionRecord{
		{Polygon: rect(minX, northY, maxX, maxY), Region: "North"},
		{Polygon: rect(minX, minY, midX, northY), Region: "South West"},
		{Polygon: rect(midX, minY, maxX, northY), Region: "South East"},
	}

	enc, err := shp.NewEncoder(path, regionRecord{})
	if err != nil {
		return err
	}
	defer enc.Close()
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode %s: %w", r.Region, err)
		}
	}
	return nil
}

func rect(minX, minY, maxX, maxY float64) geom.Polygon {
	return geom.Polygon{{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
		{X: minX, Y: minY},
	}}
}

type classCount struct {
	lc    domain.LandCover
	count int
}

func printStats(t domain.Tile) {
	counts := map[domain.LandCover]int{}
	for _, v := range t.Values {
		counts[domain.LandCover(v)]++
	}
	cc := make([]classCount, 0, len(counts))
	for lc, n := range counts {
		cc = append(cc, classCount{lc, n})
	}
	sort.Slice(cc, func(i, j int) bool { return cc[i].lc < cc[j].lc })

	fmt.Println("\n=== Pixels per class ===")
	for _, c := range cc {
		fmt.Printf("  %2d %-22s %8d\n", c.lc, c.lc.Name(), c.count)
	}
	fmt.Printf("Total: %d\n", len(t.Values))
}
