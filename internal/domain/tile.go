package domain

import "fmt"

// DefaultTileSize is the tile edge, in pixels, used to cut the national raster.
const DefaultTileSize = 11000

// Window is a pixel rectangle of a source raster.
type Window struct {
	XOff   int
	YOff   int
	Width  int
	Height int
}

func (w Window) String() string {
	return fmt.Sprintf("%d,%d %dx%d", w.XOff, w.YOff, w.Width, w.Height)
}

// TileWindows cuts a width x height raster into tiles of at most size x size
// pixels. Tiles on the right and bottom edges are clipped, never padded.
// Windows are ordered column-major: all tiles of the first column of tiles
// (x offset 0) top to bottom, then the next column.
func TileWindows(width, height, size int) ([]Window, error) {
	if size <= 0 {
		return nil, ErrInvalidTileSize
	}
	if width <= 0 || height <= 0 {
		return nil, nil
	}
	nx := (width + size - 1) / size
	ny := (height + size - 1) / size
	windows := make([]Window, 0, nx*ny)
	for i := 0; i < width; i += size {
		for j := 0; j < height; j += size {
			windows = append(windows, Window{
				XOff:   i,
				YOff:   j,
				Width:  min(i+size, width) - i,
				Height: min(j+size, height) - j,
			})
		}
	}
	return windows, nil
}

// GeoTransform is a GDAL affine geotransform:
// origin x, pixel width, row rotation, origin y, column rotation, pixel height.
type GeoTransform [6]float64

// PixelCenter returns the projected coordinate of the centre of pixel (col, row).
func (gt GeoTransform) PixelCenter(col, row int) (x, y float64) {
	c := float64(col) + 0.5
	r := float64(row) + 0.5
	x = gt[0] + gt[1]*c + gt[2]*r
	y = gt[3] + gt[4]*c + gt[5]*r
	return x, y
}

// Bounds is a projected bounding box.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Tile is one window of the land-cover raster held in memory. Values are
// row-major class codes, len(Values) == Width*Height.
type Tile struct {
	Name         string
	Width        int
	Height       int
	GeoTransform GeoTransform
	Values       []uint8
}

// NewTile builds a tile and checks that values match the shape.
func NewTile(name string, width, height int, gt GeoTransform, values []uint8) (Tile, error) {
	if width < 0 || height < 0 || len(values) != width*height {
		return Tile{}, fmt.Errorf("%w: %dx%d with %d values", ErrShapeMismatch, width, height, len(values))
	}
	return Tile{Name: name, Width: width, Height: height, GeoTransform: gt, Values: values}, nil
}

// At returns the class code at (col, row).
func (t Tile) At(col, row int) uint8 {
	return t.Values[row*t.Width+col]
}

// Bounds returns the projected extent of the tile, assuming a north-up
// geotransform.
func (t Tile) Bounds() Bounds {
	gt := t.GeoTransform
	x0 := gt[0]
	y0 := gt[3]
	x1 := x0 + gt[1]*float64(t.Width)
	y1 := y0 + gt[5]*float64(t.Height)
	return Bounds{
		MinX: min(x0, x1),
		MinY: min(y0, y1),
		MaxX: max(x0, x1),
		MaxY: max(y0, y1),
	}
}
