package domain

import "testing"

func TestNewRegion_Normalizes(t *testing.T) {
	r := NewRegion(Pos{10, 64, -5}, Pos{-10, 0, 5})
	if r.XMin != -10 || r.XMax != 10 {
		t.Errorf("X bounds = %d..%d, want -10..10", r.XMin, r.XMax)
	}
	if r.YMin != 0 || r.YMax != 64 {
		t.Errorf("Y bounds = %d..%d, want 0..64", r.YMin, r.YMax)
	}
	if r.ZMin != -5 || r.ZMax != 5 {
		t.Errorf("Z bounds = %d..%d, want -5..5", r.ZMin, r.ZMax)
	}
	if err := r.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestRegion_Volume(t *testing.T) {
	tests := []struct {
		name   string
		region Region
		want   int64
	}{
		{"single cell", Region{}, 1},
		{"10x10x10", NewRegion(Pos{0, 0, 0}, Pos{9, 9, 9}), 1000},
		{"flat slab", NewRegion(Pos{0, 64, 0}, Pos{99, 64, 99}), 10000},
		{"large build area", NewRegion(Pos{0, 0, 0}, Pos{499, 254, 499}), 63750000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.region.Volume(); got != tt.want {
				t.Errorf("Volume() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRegion_Validate_Inverted(t *testing.T) {
	r := Region{XMin: 5, XMax: -5}
	if err := r.Validate(); err == nil {
		t.Error("Validate() = nil for inverted bounds, want error")
	}
}

func TestRegion_Corners(t *testing.T) {
	r := NewRegion(Pos{0, 0, 0}, Pos{9, 9, 9})
	corners := r.Corners()
	if len(corners) != 4 {
		t.Fatalf("len(Corners()) = %d, want 4", len(corners))
	}
	for _, c := range corners {
		if !r.Contains(c) {
			t.Errorf("corner %v outside region", c)
		}
	}

	// Degenerate single-cell region collapses to one corner.
	single := Region{}
	if got := len(single.Corners()); got != 1 {
		t.Errorf("single-cell Corners() = %d entries, want 1", got)
	}
}

func TestRegion_Centroid(t *testing.T) {
	r := NewRegion(Pos{0, 0, 0}, Pos{10, 10, 10})
	want := Pos{5, 5, 5}
	if got := r.Centroid(); got != want {
		t.Errorf("Centroid() = %v, want %v", got, want)
	}
	if !r.Contains(r.Centroid()) {
		t.Error("centroid outside region")
	}
}

func TestRegion_ContainsRegion(t *testing.T) {
	outer := NewRegion(Pos{0, 0, 0}, Pos{99, 255, 99})
	band := outer.WithYBand(60, 64)
	if !outer.ContainsRegion(band) {
		t.Error("Y band not contained in its parent region")
	}

	below := outer.WithYBand(-5, 64)
	if outer.ContainsRegion(below) {
		t.Error("band extending below the region reported as contained")
	}
}

func TestRegion_Overlaps(t *testing.T) {
	a := NewRegion(Pos{0, 0, 0}, Pos{9, 9, 9})
	b := NewRegion(Pos{10, 0, 0}, Pos{19, 9, 9})
	if a.Overlaps(b) {
		t.Error("adjacent regions reported as overlapping")
	}
	c := NewRegion(Pos{9, 9, 9}, Pos{20, 20, 20})
	if !a.Overlaps(c) {
		t.Error("regions sharing a cell reported as disjoint")
	}
}
