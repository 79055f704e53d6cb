package domain

// PixelRow is one pixel that survived erosion, in projected coordinates.
type PixelRow struct {
	X  float64 `parquet:"x"`
	Y  float64 `parquet:"y"`
	LC int32   `parquet:"lc"`
}

// GeoPoint is a PixelRow after reprojection. FID is the row's position in the
// eroded table it came from.
type GeoPoint struct {
	FID       int64   `parquet:"fid"`
	Longitude float64 `parquet:"longitude"`
	Latitude  float64 `parquet:"latitude"`
	LC        int32   `parquet:"lc"`
}

// PointSample is a GeoPoint tagged with the region that contains it.
type PointSample struct {
	FID         int64   `parquet:"fid"`
	Longitude   float64 `parquet:"longitude"`
	Latitude    float64 `parquet:"latitude"`
	LC          int32   `parquet:"lc"`
	Region      string  `parquet:"Region"`
	Oversampled bool    `parquet:"oversampled"`
}
