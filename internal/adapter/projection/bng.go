// Package projection converts between British National Grid and WGS 84.
package projection

import (
	"fmt"

	"github.com/ctessum/geom/proj"
)

// EPSG codes of the two reference systems.
const (
	EPSGBritishNationalGrid = 27700
	EPSGWGS84               = 4326
)

// proj4 definitions for EPSG:27700 and EPSG:4326. The towgs84 Helmert
// parameters are the published OSGB36 to WGS 84 transformation.
const (
	BritishNationalGrid = "+proj=tmerc +lat_0=49 +lon_0=-2 +k=0.9996012717 +x_0=400000 +y_0=-100000 " +
		"+ellps=airy +towgs84=446.448,-125.157,542.06,0.15,0.247,0.842,-20.489 +units=m +no_defs"
	WGS84 = "+proj=longlat +datum=WGS84 +no_defs"
)

// BNG converts (easting, northing) to (longitude, latitude) and back. It is
// safe for concurrent use.
type BNG struct {
	forward proj.Transformer
	inverse proj.Transformer
}

// NewBNG builds the transform pair.
func NewBNG() (*BNG, error) {
	src, err := proj.Parse(BritishNationalGrid)
	if err != nil {
		return nil, fmt.Errorf("parse EPSG:%d: %w", EPSGBritishNationalGrid, err)
	}
	dst, err := proj.Parse(WGS84)
	if err != nil {
		return nil, fmt.Errorf("parse EPSG:%d: %w", EPSGWGS84, err)
	}
	fwd, err := src.NewTransform(dst)
	if err != nil {
		return nil, fmt.Errorf("build forward transform: %w", err)
	}
	inv, err := dst.NewTransform(src)
	if err != nil {
		return nil, fmt.Errorf("build inverse transform: %w", err)
	}
	return &BNG{forward: fwd, inverse: inv}, nil
}

// ToLonLat converts British National Grid metres to WGS 84 degrees.
func (b *BNG) ToLonLat(x, y float64) (float64, float64, error) {
	return b.forward(x, y)
}

// ToProjected converts WGS 84 degrees to British National Grid metres.
func (b *BNG) ToProjected(lon, lat float64) (float64, float64, error) {
	return b.inverse(lon, lat)
}

// Forward exposes the raw transformer for geometry reprojection.
func (b *BNG) Forward() proj.Transformer {
	return b.forward
}

// Inverse exposes the raw inverse transformer.
func (b *BNG) Inverse() proj.Transformer {
	return b.inverse
}
