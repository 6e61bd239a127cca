package domain

import "fmt"

// Pos is a single addressable cell in the world.
type Pos struct {
	X int
	Y int
	Z int
}

// String returns the position as space-separated coordinates, the form the
// wire protocol expects.
func (p Pos) String() string {
	return fmt.Sprintf("%d %d %d", p.X, p.Y, p.Z)
}

// Region is an axis-aligned 3D bounding box of unit cells, inclusive on all
// bounds. The zero value is the single cell at the origin.
type Region struct {
	XMin, XMax int
	YMin, YMax int
	ZMin, ZMax int
}

// NewRegion builds a Region from two opposite corners, normalizing the
// bounds so that min ≤ max holds per axis.
func NewRegion(a, b Pos) Region {
	r := Region{
		XMin: a.X, XMax: b.X,
		YMin: a.Y, YMax: b.Y,
		ZMin: a.Z, ZMax: b.Z,
	}
	if r.XMin > r.XMax {
		r.XMin, r.XMax = r.XMax, r.XMin
	}
	if r.YMin > r.YMax {
		r.YMin, r.YMax = r.YMax, r.YMin
	}
	if r.ZMin > r.ZMax {
		r.ZMin, r.ZMax = r.ZMax, r.ZMin
	}
	return r
}

// Validate checks the min ≤ max invariant on every axis.
func (r Region) Validate() error {
	if r.XMin > r.XMax || r.YMin > r.YMax || r.ZMin > r.ZMax {
		return fmt.Errorf("region bounds inverted: %+v", r)
	}
	return nil
}

// Volume returns the number of unit cells in the region. Bounds are
// inclusive, so a degenerate region still has volume 1.
func (r Region) Volume() int64 {
	return int64(r.XMax-r.XMin+1) * int64(r.YMax-r.YMin+1) * int64(r.ZMax-r.ZMin+1)
}

// Contains reports whether the position lies inside the region.
func (r Region) Contains(p Pos) bool {
	return p.X >= r.XMin && p.X <= r.XMax &&
		p.Y >= r.YMin && p.Y <= r.YMax &&
		p.Z >= r.ZMin && p.Z <= r.ZMax
}

// ContainsRegion reports whether other lies entirely inside r.
func (r Region) ContainsRegion(other Region) bool {
	return other.XMin >= r.XMin && other.XMax <= r.XMax &&
		other.YMin >= r.YMin && other.YMax <= r.YMax &&
		other.ZMin >= r.ZMin && other.ZMax <= r.ZMax
}

// Overlaps reports whether the two regions share at least one cell.
func (r Region) Overlaps(other Region) bool {
	return r.XMin <= other.XMax && other.XMin <= r.XMax &&
		r.YMin <= other.YMax && other.YMin <= r.YMax &&
		r.ZMin <= other.ZMax && other.ZMin <= r.ZMax
}

// Corners returns the four bottom and top extreme corners used as the
// minimum verification probe set, deduplicated for degenerate regions.
func (r Region) Corners() []Pos {
	corners := []Pos{
		{r.XMin, r.YMin, r.ZMin},
		{r.XMax, r.YMin, r.ZMax},
		{r.XMin, r.YMax, r.ZMax},
		{r.XMax, r.YMax, r.ZMin},
	}
	seen := make(map[Pos]struct{}, len(corners))
	out := corners[:0]
	for _, c := range corners {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Centroid returns the cell closest to the region's geometric center.
func (r Region) Centroid() Pos {
	return Pos{
		X: r.XMin + (r.XMax-r.XMin)/2,
		Y: r.YMin + (r.YMax-r.YMin)/2,
		Z: r.ZMin + (r.ZMax-r.ZMin)/2,
	}
}

// Min returns the minimum corner of the region.
func (r Region) Min() Pos { return Pos{r.XMin, r.YMin, r.ZMin} }

// Max returns the maximum corner of the region.
func (r Region) Max() Pos { return Pos{r.XMax, r.YMax, r.ZMax} }

// WithYBand returns a copy of r restricted to the given inclusive Y range.
// The band must already lie inside the region; callers verify that with
// ContainsRegion before slicing.
func (r Region) WithYBand(yMin, yMax int) Region {
	out := r
	out.YMin, out.YMax = yMin, yMax
	return out
}

// String renders the region as its two corners.
func (r Region) String() string {
	return fmt.Sprintf("[%s .. %s]", r.Min(), r.Max())
}
