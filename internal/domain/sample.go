package domain

import (
	"cmp"
	"fmt"
	"math/rand/v2"
	"slices"
)

// GroupBy selects the strata used by StratifiedSample.
type GroupBy int

const (
	// ByRegion stratifies on Region only.
	ByRegion GroupBy = iota
	// ByRegionAndLandCover stratifies on (Region, land cover).
	ByRegionAndLandCover
)

// GroupKey identifies one stratum. LC is zero when grouping by region only.
type GroupKey struct {
	Region string
	LC     int32
}

func (k GroupKey) String() string {
	if k.LC == 0 {
		return k.Region
	}
	return fmt.Sprintf("%s/%d", k.Region, k.LC)
}

// GroupReport describes how one stratum was sampled.
type GroupReport struct {
	Key         GroupKey
	SourceRows  int
	SampledRows int
	Oversampled bool
}

// NewRand returns a deterministic generator for sampling.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// StratifiedSample draws exactly n rows from every group. Groups with at
// least n rows are sampled without replacement. Smaller groups are sampled
// with replacement and every row drawn from them is marked Oversampled; the
// returned reports list which groups that happened to.
//
// Output is ordered by group key, then draw order.
func StratifiedSample(rows []PointSample, n int, by GroupBy, rng *rand.Rand) ([]PointSample, []GroupReport, error) {
	if n <= 0 {
		return nil, nil, fmt.Errorf("%w: %d", ErrInvalidSampleSize, n)
	}

	groups := make(map[GroupKey][]int)
	for i, row := range rows {
		key := GroupKey{Region: row.Region}
		if by == ByRegionAndLandCover {
			key.LC = row.LC
		}
		groups[key] = append(groups[key], i)
	}

	keys := make([]GroupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b GroupKey) int {
		if c := cmp.Compare(a.Region, b.Region); c != 0 {
			return c
		}
		return cmp.Compare(a.LC, b.LC)
	})

	out := make([]PointSample, 0, n*len(keys))
	reports := make([]GroupReport, 0, len(keys))
	for _, key := range keys {
		idx := groups[key]
		oversampled := len(idx) < n
		var picked []int
		if oversampled {
			picked = drawWithReplacement(idx, n, rng)
		} else {
			picked = drawWithoutReplacement(idx, n, rng)
		}
		for _, i := range picked {
			row := rows[i]
			row.Oversampled = oversampled
			out = append(out, row)
		}
		reports = append(reports, GroupReport{
			Key:         key,
			SourceRows:  len(idx),
			SampledRows: len(picked),
			Oversampled: oversampled,
		})
	}
	return out, reports, nil
}

// SampleIndices picks k distinct indices from [0, n) and returns them in
// ascending order. When k >= n every index is returned.
func SampleIndices(n, k int, rng *rand.Rand) []int {
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	if k >= n {
		return all
	}
	picked := drawWithoutReplacement(all, k, rng)
	slices.Sort(picked)
	return picked
}

// CapRows keeps at most limit rows, chosen uniformly without replacement,
// and returns them with their original row indices as fids. A limit of zero
// or less disables the cap.
func CapRows(rows []PixelRow, limit int, rng *rand.Rand) ([]PixelRow, []int64) {
	if limit <= 0 || len(rows) <= limit {
		fids := make([]int64, len(rows))
		for i := range fids {
			fids[i] = int64(i)
		}
		return rows, fids
	}
	idx := SampleIndices(len(rows), limit, rng)
	kept := make([]PixelRow, len(idx))
	fids := make([]int64, len(idx))
	for j, i := range idx {
		kept[j] = rows[i]
		fids[j] = int64(i)
	}
	return kept, fids
}

// drawWithoutReplacement runs a partial Fisher-Yates shuffle over a copy of idx.
func drawWithoutReplacement(idx []int, n int, rng *rand.Rand) []int {
	pool := slices.Clone(idx)
	for i := 0; i < n; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}

func drawWithReplacement(idx []int, n int, rng *rand.Rand) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = idx[rng.IntN(len(idx))]
	}
	return out
}
