package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testGT = GeoTransform{100000, 25, 0, 900000, 0, -25}

func mustTile(t *testing.T, width, height int, values []uint8) Tile {
	t.Helper()
	tile, err := NewTile("test", width, height, testGT, values)
	require.NoError(t, err)
	return tile
}

func TestErodeClass_ThreeByThree(t *testing.T) {
	t.Run("all match keeps centre", func(t *testing.T) {
		tile := mustTile(t, 3, 3, []uint8{
			3, 3, 3,
			3, 3, 3,
			3, 3, 3,
		})
		rows, err := ErodeClass(tile, Arable, 3)
		require.NoError(t, err)
		require.Len(t, rows, 1)

		x, y := testGT.PixelCenter(1, 1)
		assert.Equal(t, PixelRow{X: x, Y: y, LC: 3}, rows[0])
	})

	t.Run("one neighbour differs drops centre", func(t *testing.T) {
		tile := mustTile(t, 3, 3, []uint8{
			3, 3, 3,
			3, 3, 3,
			3, 7, 3,
		})
		rows, err := ErodeClass(tile, Arable, 3)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestErode_EdgesCountAsBackground(t *testing.T) {
	mask := make([]uint8, 5*5)
	for i := range mask {
		mask[i] = 1
	}
	out, err := Erode(mask, 5, 5, 3)
	require.NoError(t, err)

	want := []uint8{
		0, 0, 0, 0, 0,
		0, 1, 1, 1, 0,
		0, 1, 1, 1, 0,
		0, 1, 1, 1, 0,
		0, 0, 0, 0, 0,
	}
	assert.Equal(t, want, out)
}

func TestErode_WindowOneIsIdentity(t *testing.T) {
	mask := []uint8{
		1, 0, 1,
		0, 1, 1,
	}
	out, err := Erode(mask, 3, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, mask, out)
}

func TestErode_ReapplyingShrinksFurther(t *testing.T) {
	mask := make([]uint8, 9*9)
	for i := range mask {
		mask[i] = 1
	}
	once, err := Erode(mask, 9, 9, 3)
	require.NoError(t, err)
	twice, err := Erode(once, 9, 9, 3)
	require.NoError(t, err)

	assert.Equal(t, 7*7, count(once))
	assert.Equal(t, 5*5, count(twice))
	for i := range twice {
		if twice[i] == 1 {
			assert.Equal(t, uint8(1), once[i], "second pass kept a pixel the first pass removed")
		}
	}
}

func TestErode_InvalidInput(t *testing.T) {
	_, err := Erode(make([]uint8, 4), 2, 2, 2)
	require.ErrorIs(t, err, ErrInvalidWindow)

	_, err = Erode(make([]uint8, 4), 2, 2, 0)
	require.ErrorIs(t, err, ErrInvalidWindow)

	_, err = Erode(make([]uint8, 5), 2, 2, 3)
	require.ErrorIs(t, err, ErrShapeMismatch)
}

// Every survivor must equal lc and sit in a window x window neighbourhood
// that lies entirely inside the tile and is entirely lc; every pixel meeting
// that condition must survive.
func TestErodeClass_MatchesBruteForce(t *testing.T) {
	rng := NewRand(42)
	const width, height = 40, 30
	values := make([]uint8, width*height)
	for i := range values {
		// Mostly class 9 with scattered noise so interior patches exist.
		if rng.IntN(10) == 0 {
			values[i] = uint8(1 + rng.IntN(21))
		} else {
			values[i] = 9
		}
	}
	tile := mustTile(t, width, height, values)

	for _, window := range []int{1, 3, 5} {
		eroded, err := Erode(Mask(tile, Heather), width, height, window)
		require.NoError(t, err)
		rad := window / 2
		for r := 0; r < height; r++ {
			for c := 0; c < width; c++ {
				want := uint8(1)
				if r < rad || c < rad || r+rad >= height || c+rad >= width {
					want = 0
				} else {
				scan:
					for dr := -rad; dr <= rad; dr++ {
						for dc := -rad; dc <= rad; dc++ {
							if tile.At(c+dc, r+dr) != uint8(Heather) {
								want = 0
								break scan
							}
						}
					}
				}
				assert.Equal(t, want, eroded[r*width+c], "window %d pixel (%d,%d)", window, c, r)
			}
		}
	}
}

func TestErodeClass_RejectsUnknownClass(t *testing.T) {
	tile := mustTile(t, 1, 1, []uint8{0})
	_, err := ErodeClass(tile, LandCover(22), 1)
	require.ErrorIs(t, err, ErrUnknownLandCover)
}

func TestBuildTable(t *testing.T) {
	t.Run("concatenates and tags", func(t *testing.T) {
		parts := [][]PixelRow{
			{{X: 1, Y: 2}},
			nil,
			{{X: 3, Y: 4}, {X: 5, Y: 6}},
		}
		table, err := BuildTable(parts, Bog)
		require.NoError(t, err)
		require.Len(t, table, 3)
		for _, row := range table {
			assert.Equal(t, int32(Bog), row.LC)
		}
		assert.Equal(t, 5.0, table[2].X)
	})

	t.Run("no survivors is an error", func(t *testing.T) {
		_, err := BuildTable([][]PixelRow{nil, {}}, Fen)
		require.ErrorIs(t, err, ErrNoSurvivingPixels)
	})
}

func count(mask []uint8) int {
	n := 0
	for _, v := range mask {
		n += int(v)
	}
	return n
}
