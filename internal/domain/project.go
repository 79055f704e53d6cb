package domain

import "fmt"

// Projector converts between British National Grid (EPSG:27700) and WGS 84
// (EPSG:4326). Both directions take and return (x, y) order:
// (easting, northing) and (longitude, latitude).
type Projector interface {
	ToLonLat(x, y float64) (lon, lat float64, err error)
	ToProjected(lon, lat float64) (x, y float64, err error)
}

// Reproject converts pixel rows to geographic points. fids gives each row's
// identity in the source table; when nil the row index is used. The x/y
// columns are not carried over.
func Reproject(rows []PixelRow, fids []int64, p Projector) ([]GeoPoint, error) {
	if fids != nil && len(fids) != len(rows) {
		return nil, fmt.Errorf("reproject: %d rows with %d fids: %w", len(rows), len(fids), ErrShapeMismatch)
	}
	out := make([]GeoPoint, len(rows))
	for i, row := range rows {
		lon, lat, err := p.ToLonLat(row.X, row.Y)
		if err != nil {
			return nil, fmt.Errorf("reproject row %d (%.1f, %.1f): %w", i, row.X, row.Y, err)
		}
		fid := int64(i)
		if fids != nil {
			fid = fids[i]
		}
		out[i] = GeoPoint{FID: fid, Longitude: lon, Latitude: lat, LC: row.LC}
	}
	return out, nil
}

// Unproject converts geographic points back to projected pixel rows.
func Unproject(points []GeoPoint, p Projector) ([]PixelRow, error) {
	out := make([]PixelRow, len(points))
	for i, pt := range points {
		x, y, err := p.ToProjected(pt.Longitude, pt.Latitude)
		if err != nil {
			return nil, fmt.Errorf("unproject point %d (%.6f, %.6f): %w", pt.FID, pt.Longitude, pt.Latitude, err)
		}
		out[i] = PixelRow{X: x, Y: y, LC: pt.LC}
	}
	return out, nil
}
