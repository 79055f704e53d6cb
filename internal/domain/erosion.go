package domain

import "fmt"

// DefaultWindowSize is the erosion window used by the study.
const DefaultWindowSize = 5

// ValidateWindow checks that window is an odd size of at least 1.
func ValidateWindow(window int) error {
	if window < 1 || window%2 == 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWindow, window)
	}
	return nil
}

// Mask returns a binary mask of the tile: 1 where the pixel equals lc, 0
// elsewhere.
func Mask(t Tile, lc LandCover) []uint8 {
	mask := make([]uint8, len(t.Values))
	code := uint8(lc)
	for i, v := range t.Values {
		if v == code {
			mask[i] = 1
		}
	}
	return mask
}

// Erode applies binary erosion with a flat window x window square centred on
// each pixel. Pixels beyond the array edge count as background, so nothing
// within window/2 of an edge survives.
//
// The square is separable: a horizontal pass keeps pixels whose row segment
// is all set, a vertical pass over that result keeps pixels whose column
// segment is all set. Both passes track run lengths, so cost is linear in the
// number of pixels regardless of window size.
func Erode(mask []uint8, width, height, window int) ([]uint8, error) {
	if err := ValidateWindow(window); err != nil {
		return nil, err
	}
	if width < 0 || height < 0 || len(mask) != width*height {
		return nil, fmt.Errorf("%w: %dx%d with %d values", ErrShapeMismatch, width, height, len(mask))
	}
	rad := window / 2

	horiz := make([]uint8, len(mask))
	for r := 0; r < height; r++ {
		row := r * width
		run := 0
		for c := 0; c < width; c++ {
			if mask[row+c] != 0 {
				run++
			} else {
				run = 0
			}
			if run >= window {
				horiz[row+c-rad] = 1
			}
		}
	}

	out := make([]uint8, len(mask))
	runs := make([]int, width)
	for r := 0; r < height; r++ {
		row := r * width
		for c := 0; c < width; c++ {
			if horiz[row+c] != 0 {
				runs[c]++
			} else {
				runs[c] = 0
			}
			if runs[c] >= window {
				out[(r-rad)*width+c] = 1
			}
		}
	}
	return out, nil
}

// ErodeClass masks the tile to class lc, erodes the mask and returns one row
// per surviving pixel, in row-major order. A tile with no survivors returns
// an empty slice and no error.
func ErodeClass(t Tile, lc LandCover, window int) ([]PixelRow, error) {
	if !lc.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLandCover, lc)
	}
	eroded, err := Erode(Mask(t, lc), t.Width, t.Height, window)
	if err != nil {
		return nil, fmt.Errorf("erode tile %s: %w", t.Name, err)
	}

	var rows []PixelRow
	for r := 0; r < t.Height; r++ {
		for c := 0; c < t.Width; c++ {
			if eroded[r*t.Width+c] == 0 {
				continue
			}
			x, y := t.GeoTransform.PixelCenter(c, r)
			rows = append(rows, PixelRow{X: x, Y: y, LC: int32(lc)})
		}
	}
	return rows, nil
}

// BuildTable concatenates per-tile survivor rows for one class and tags every
// row with lc. It fails with ErrNoSurvivingPixels when no tile contributed a
// row: the class does not occur at this window size, and the operator should
// see that.
func BuildTable(parts [][]PixelRow, lc LandCover) ([]PixelRow, error) {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	if n == 0 {
		return nil, fmt.Errorf("build table for lc %d: %w", lc, ErrNoSurvivingPixels)
	}
	table := make([]PixelRow, 0, n)
	for _, p := range parts {
		for _, row := range p {
			row.LC = int32(lc)
			table = append(table, row)
		}
	}
	return table, nil
}
