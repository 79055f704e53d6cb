package raster

import (
	"fmt"

	"github.com/airbusgeo/godal"

	"github.com/couchcryptid/landcover-sample-etl/internal/domain"
)

// WriteGeoTIFF writes t as a single-band 8-bit GeoTIFF in the given EPSG
// reference system.
func WriteGeoTIFF(path string, t domain.Tile, epsg int) error {
	Register()
	ds, err := godal.Create(godal.GTiff, path, 1, godal.Byte, t.Width, t.Height)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := writeDataset(ds, t, epsg); err != nil {
		ds.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := ds.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func writeDataset(ds *godal.Dataset, t domain.Tile, epsg int) error {
	if err := ds.SetGeoTransform([6]float64(t.GeoTransform)); err != nil {
		return fmt.Errorf("set geotransform: %w", err)
	}
	sr, err := godal.NewSpatialRefFromEPSG(epsg)
	if err != nil {
		return fmt.Errorf("spatial ref EPSG:%d: %w", epsg, err)
	}
	defer sr.Close()
	if err := ds.SetSpatialRef(sr); err != nil {
		return fmt.Errorf("set spatial ref: %w", err)
	}
	return ds.Bands()[0].Write(0, 0, t.Values, t.Width, t.Height)
}
