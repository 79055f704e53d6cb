package domain

// RegionLocator finds the named region containing a WGS 84 point.
type RegionLocator interface {
	// Locate returns the region containing (lon, lat) and false when the
	// point lies outside every region. For points on a shared boundary the
	// choice between neighbouring regions is unspecified.
	Locate(lon, lat float64) (string, bool)
}

// JoinRegions tags each point with its containing region. Points outside
// every region are dropped. When allow is non-empty, points in regions not
// listed are dropped too. The number of dropped points is returned.
func JoinRegions(points []GeoPoint, loc RegionLocator, allow []string) ([]PointSample, int) {
	var allowed map[string]struct{}
	if len(allow) > 0 {
		allowed = make(map[string]struct{}, len(allow))
		for _, r := range allow {
			allowed[r] = struct{}{}
		}
	}

	joined := make([]PointSample, 0, len(points))
	dropped := 0
	for _, pt := range points {
		region, ok := loc.Locate(pt.Longitude, pt.Latitude)
		if ok && allowed != nil {
			_, ok = allowed[region]
		}
		if !ok {
			dropped++
			continue
		}
		joined = append(joined, PointSample{
			FID:       pt.FID,
			Longitude: pt.Longitude,
			Latitude:  pt.Latitude,
			LC:        pt.LC,
			Region:    region,
		})
	}
	return joined, dropped
}
