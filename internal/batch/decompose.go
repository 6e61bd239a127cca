// Package batch decomposes regions into command batches under the
// protocol's size ceiling and dispatches them with bounded concurrency.
package batch

import (
	"math"
	"sort"

	"github.com/lepaul-HOU16/worldops/internal/domain"
)

// Decompose splits a region into disjoint sub-regions, each with volume at
// most ceiling, covering the region exactly once.
//
// Heuristic: cut every axis into spans of edge length floor(ceiling^(1/3)),
// slicing the axis with the largest extent first, with the final span per
// axis absorbing any remainder. Chunks whose absorbed remainder pushes them
// over the ceiling are then halved along their largest axis until they fit.
func Decompose(r domain.Region, ceiling int64) []domain.Region {
	if ceiling < 1 {
		ceiling = 1
	}
	if r.Volume() <= ceiling {
		return []domain.Region{r}
	}

	edge := int(math.Cbrt(float64(ceiling)))
	if edge < 1 {
		edge = 1
	}

	type axis struct {
		extent int
		spans  [][2]int
	}
	axes := []axis{
		{r.XMax - r.XMin + 1, axisSpans(r.XMin, r.XMax, edge)},
		{r.YMax - r.YMin + 1, axisSpans(r.YMin, r.YMax, edge)},
		{r.ZMax - r.ZMin + 1, axisSpans(r.ZMin, r.ZMax, edge)},
	}
	// Slice order: largest extent outermost. Indices into axes survive the
	// sort so chunks can be reassembled per axis.
	order := []int{0, 1, 2}
	sort.SliceStable(order, func(i, j int) bool {
		return axes[order[i]].extent > axes[order[j]].extent
	})

	var chunks []domain.Region
	for _, a := range axes[order[0]].spans {
		for _, b := range axes[order[1]].spans {
			for _, c := range axes[order[2]].spans {
				spans := [3][2]int{}
				spans[order[0]] = a
				spans[order[1]] = b
				spans[order[2]] = c
				chunks = append(chunks, domain.Region{
					XMin: spans[0][0], XMax: spans[0][1],
					YMin: spans[1][0], YMax: spans[1][1],
					ZMin: spans[2][0], ZMax: spans[2][1],
				})
			}
		}
	}

	return shrinkOversized(chunks, ceiling)
}

// axisSpans partitions [min, max] into spans of the given edge length, the
// final span absorbing the remainder.
func axisSpans(min, max, edge int) [][2]int {
	extent := max - min + 1
	n := extent / edge
	if n == 0 {
		return [][2]int{{min, max}}
	}
	rem := extent % edge
	spans := make([][2]int, 0, n)
	start := min
	for i := 0; i < n; i++ {
		end := start + edge - 1
		if i == n-1 {
			end += rem
		}
		spans = append(spans, [2]int{start, end})
		start = end + 1
	}
	return spans
}

// shrinkOversized halves any chunk still above the ceiling along its largest
// axis until every chunk fits. Halving preserves the exact-cover property.
func shrinkOversized(chunks []domain.Region, ceiling int64) []domain.Region {
	out := make([]domain.Region, 0, len(chunks))
	for len(chunks) > 0 {
		c := chunks[len(chunks)-1]
		chunks = chunks[:len(chunks)-1]
		if c.Volume() <= ceiling {
			out = append(out, c)
			continue
		}
		lo, hi := halve(c)
		chunks = append(chunks, lo, hi)
	}
	return out
}

// halve splits a region in two along its largest axis. The region must have
// at least one axis of extent ≥ 2, which is guaranteed for any region whose
// volume exceeds a ceiling of at least 1.
func halve(r domain.Region) (domain.Region, domain.Region) {
	dx := r.XMax - r.XMin + 1
	dy := r.YMax - r.YMin + 1
	dz := r.ZMax - r.ZMin + 1

	lo, hi := r, r
	switch {
	case dx >= dy && dx >= dz:
		mid := r.XMin + dx/2 - 1
		lo.XMax, hi.XMin = mid, mid+1
	case dy >= dz:
		mid := r.YMin + dy/2 - 1
		lo.YMax, hi.YMin = mid, mid+1
	default:
		mid := r.ZMin + dz/2 - 1
		lo.ZMax, hi.ZMin = mid, mid+1
	}
	return lo, hi
}
