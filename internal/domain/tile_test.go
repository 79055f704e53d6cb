package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTileWindows(t *testing.T) {
	t.Run("clips right and bottom edges", func(t *testing.T) {
		windows, err := TileWindows(20000, 15000, 11000)
		require.NoError(t, err)

		assert.Equal(t, []Window{
			{XOff: 0, YOff: 0, Width: 11000, Height: 11000},
			{XOff: 0, YOff: 11000, Width: 11000, Height: 4000},
			{XOff: 11000, YOff: 0, Width: 9000, Height: 11000},
			{XOff: 11000, YOff: 11000, Width: 9000, Height: 4000},
		}, windows)
	})

	t.Run("exact multiple", func(t *testing.T) {
		windows, err := TileWindows(22000, 11000, 11000)
		require.NoError(t, err)
		assert.Len(t, windows, 2)
		for _, w := range windows {
			assert.Equal(t, 11000, w.Width)
			assert.Equal(t, 11000, w.Height)
		}
	})

	t.Run("smaller than one tile", func(t *testing.T) {
		windows, err := TileWindows(10, 7, 11000)
		require.NoError(t, err)
		assert.Equal(t, []Window{{Width: 10, Height: 7}}, windows)
	})

	t.Run("covers every pixel once", func(t *testing.T) {
		const width, height, size = 23, 17, 5
		windows, err := TileWindows(width, height, size)
		require.NoError(t, err)
		assert.Len(t, windows, 5*4)

		seen := make([]int, width*height)
		for _, w := range windows {
			for y := w.YOff; y < w.YOff+w.Height; y++ {
				for x := w.XOff; x < w.XOff+w.Width; x++ {
					seen[y*width+x]++
				}
			}
		}
		for i, n := range seen {
			assert.Equal(t, 1, n, "pixel %d", i)
		}
	})

	t.Run("invalid size", func(t *testing.T) {
		_, err := TileWindows(10, 10, 0)
		require.ErrorIs(t, err, ErrInvalidTileSize)
	})
}

func TestGeoTransform_PixelCenter(t *testing.T) {
	gt := GeoTransform{0, 25, 0, 1300000, 0, -25}
	x, y := gt.PixelCenter(0, 0)
	assert.Equal(t, 12.5, x)
	assert.Equal(t, 1299987.5, y)

	x, y = gt.PixelCenter(4, 2)
	assert.Equal(t, 112.5, x)
	assert.Equal(t, 1299937.5, y)
}

func TestTile(t *testing.T) {
	_, err := NewTile("bad", 2, 2, GeoTransform{}, make([]uint8, 3))
	require.ErrorIs(t, err, ErrShapeMismatch)

	tile, err := NewTile("ok", 3, 2, GeoTransform{1000, 25, 0, 2000, 0, -25}, []uint8{
		1, 2, 3,
		4, 5, 6,
	})
	require.NoError(t, err)
	assert.Equal(t, uint8(6), tile.At(2, 1))
	assert.Equal(t, Bounds{MinX: 1000, MinY: 1950, MaxX: 1075, MaxY: 2000}, tile.Bounds())
}
