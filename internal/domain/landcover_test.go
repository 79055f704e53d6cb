package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLandCover(t *testing.T) {
	lc, err := ParseLandCover(9)
	require.NoError(t, err)
	assert.Equal(t, Heather, lc)
	assert.Equal(t, "Heather", lc.Name())

	for _, code := range []int{0, 22, -1} {
		_, err := ParseLandCover(code)
		assert.ErrorIs(t, err, ErrUnknownLandCover, "code %d", code)
	}
}

func TestLandCover_Lookups(t *testing.T) {
	assert.Equal(t, "Improved grassland", ImprovedGrassland.Name())
	assert.Equal(t, "Improved\ngrassland", ImprovedGrassland.ShortName())
	assert.Equal(t, "Supralittoral\nsediment", SupralittoralSediment.ShortName())
	assert.Equal(t, "Fen", Fen.ShortName())
	assert.Equal(t, "#2ca02c", DeciduousWoodland.Hex())
	assert.Equal(t, "#ffffff", Unclassified.Hex())
	assert.Equal(t, "#7f7f7f", Saltwater.Hex())
	assert.Equal(t, "LandCover(40)", LandCover(40).Name())
}

func TestAllLandCovers(t *testing.T) {
	all := AllLandCovers()
	require.Len(t, all, 21)
	assert.Equal(t, DeciduousWoodland, all[0])
	assert.Equal(t, Suburban, all[20])
	for _, lc := range all {
		assert.True(t, lc.Valid())
	}
	assert.False(t, Unclassified.Valid())
}
