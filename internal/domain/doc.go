// Package domain models the UKCEH land-cover sampling data used by the fire
// ecology analysis.
//
// # Data Source
//
// The source raster is the UKCEH Land Cover Map (e.g. LCD_2018.tif): a single
// band of byte class codes on the British National Grid (EPSG:27700), 25 m
// pixels. Class codes run 1–21; 0 marks pixels outside the mapped area. See
// [LandCover] for the class table.
//
// # Pixel Coordinates
//
// Pixel rows carry the projected coordinate of the pixel centre:
//
//	x = gt[0] + gt[1]*(col+0.5) + gt[2]*(row+0.5)
//	y = gt[3] + gt[4]*(col+0.5) + gt[5]*(row+0.5)
//
// where gt is the GDAL geotransform of the tile the pixel came from.
//
// # Erosion
//
// For one class, the tile is reduced to a binary mask and eroded with a flat
// square structuring element of odd side w centred on the pixel. Pixels
// outside the tile count as background, so every pixel closer than w/2 to a
// tile edge is removed. Re-eroding an eroded mask is not a no-op: each pass
// strips another w/2 ring from every patch.
//
// # Axis Order
//
// Coordinates are always (x, y) = (easting, northing) or (longitude,
// latitude). Nothing in this package or its projector implementations uses
// latitude-first ordering.
//
// # Sampling
//
// Samples are drawn per group (Region, optionally crossed with land cover).
// Groups with at least n rows are sampled without replacement. Smaller groups
// are sampled with replacement up to n rows; those rows are flagged
// Oversampled and reported, because duplicated rows break any per-row
// independence assumption downstream.
package domain
