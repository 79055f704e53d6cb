package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSamples(region string, lc int32, n int, fidBase int64) []PointSample {
	rows := make([]PointSample, n)
	for i := range rows {
		rows[i] = PointSample{FID: fidBase + int64(i), Region: region, LC: lc}
	}
	return rows
}

func TestStratifiedSample_GroupSizes(t *testing.T) {
	var rows []PointSample
	rows = append(rows, makeSamples("Central", 9, 500, 0)...)
	rows = append(rows, makeSamples("Scotland", 9, 7, 1000)...)

	out, reports, err := StratifiedSample(rows, 100, ByRegion, NewRand(1))
	require.NoError(t, err)
	require.Len(t, out, 200)

	byRegion := map[string][]PointSample{}
	for _, row := range out {
		byRegion[row.Region] = append(byRegion[row.Region], row)
	}
	require.Len(t, byRegion["Central"], 100)
	require.Len(t, byRegion["Scotland"], 100)

	seen := map[int64]bool{}
	for _, row := range byRegion["Central"] {
		assert.False(t, seen[row.FID], "duplicate fid %d in a large group", row.FID)
		seen[row.FID] = true
		assert.False(t, row.Oversampled)
	}
	for _, row := range byRegion["Scotland"] {
		assert.True(t, row.Oversampled)
		assert.GreaterOrEqual(t, row.FID, int64(1000))
		assert.Less(t, row.FID, int64(1007))
	}

	assert.Equal(t, []GroupReport{
		{Key: GroupKey{Region: "Central"}, SourceRows: 500, SampledRows: 100},
		{Key: GroupKey{Region: "Scotland"}, SourceRows: 7, SampledRows: 100, Oversampled: true},
	}, reports)
}

func TestStratifiedSample_ExactSizeGroupIsAPermutation(t *testing.T) {
	rows := makeSamples("Wales", 3, 50, 0)
	out, _, err := StratifiedSample(rows, 50, ByRegion, NewRand(7))
	require.NoError(t, err)
	require.Len(t, out, 50)

	seen := map[int64]bool{}
	for _, row := range out {
		seen[row.FID] = true
	}
	assert.Len(t, seen, 50)
}

func TestStratifiedSample_ByRegionAndLandCover(t *testing.T) {
	var rows []PointSample
	rows = append(rows, makeSamples("North", 9, 30, 0)...)
	rows = append(rows, makeSamples("North", 11, 30, 100)...)

	out, reports, err := StratifiedSample(rows, 10, ByRegionAndLandCover, NewRand(3))
	require.NoError(t, err)
	assert.Len(t, out, 20)
	require.Len(t, reports, 2)
	assert.Equal(t, GroupKey{Region: "North", LC: 9}, reports[0].Key)
	assert.Equal(t, GroupKey{Region: "North", LC: 11}, reports[1].Key)
	assert.Equal(t, "North/11", reports[1].Key.String())
}

func TestStratifiedSample_Deterministic(t *testing.T) {
	rows := makeSamples("East", 4, 1000, 0)
	a, _, err := StratifiedSample(rows, 25, ByRegion, NewRand(99))
	require.NoError(t, err)
	b, _, err := StratifiedSample(rows, 25, ByRegion, NewRand(99))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestStratifiedSample_InvalidSize(t *testing.T) {
	_, _, err := StratifiedSample(nil, 0, ByRegion, NewRand(1))
	require.ErrorIs(t, err, ErrInvalidSampleSize)
}

func TestCapRows(t *testing.T) {
	rows := make([]PixelRow, 100)
	for i := range rows {
		rows[i] = PixelRow{X: float64(i)}
	}

	t.Run("under the limit keeps everything", func(t *testing.T) {
		kept, fids := CapRows(rows, 1000, NewRand(1))
		assert.Len(t, kept, 100)
		assert.Equal(t, int64(99), fids[99])
	})

	t.Run("over the limit subsamples with original ids", func(t *testing.T) {
		kept, fids := CapRows(rows, 10, NewRand(1))
		require.Len(t, kept, 10)
		require.Len(t, fids, 10)
		for i := range kept {
			assert.Equal(t, float64(fids[i]), kept[i].X)
			if i > 0 {
				assert.Greater(t, fids[i], fids[i-1])
			}
		}
	})

	t.Run("zero disables the cap", func(t *testing.T) {
		kept, _ := CapRows(rows, 0, NewRand(1))
		assert.Len(t, kept, 100)
	})
}
