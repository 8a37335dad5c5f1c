package spatial

import "testing"

func TestGridQueryRadiusFindsNearbyEntities(t *testing.T) {
	g := NewGrid(18, 32)
	g.Insert(1, 5.5, 5.5)
	g.Insert(2, 20.0, 20.0) // far away

	hits := g.QueryRadius(5.5, 5.5, 1.0)
	found := false
	for _, id := range hits {
		if id == 1 {
			found = true
		}
		if id == 2 {
			t.Fatalf("QueryRadius returned distant entity 2: %v", hits)
		}
	}
	if !found {
		t.Fatalf("QueryRadius did not find entity 1: %v", hits)
	}
}

func TestGridClearResetsCells(t *testing.T) {
	g := NewGrid(4, 4)
	g.Insert(1, 1.5, 1.5)
	g.Clear()
	hits := g.QueryRadius(1.5, 1.5, 3.0)
	if len(hits) != 0 {
		t.Fatalf("QueryRadius after Clear() = %v, want empty", hits)
	}
}

func TestGridInBounds(t *testing.T) {
	g := NewGrid(18, 32)
	cases := []struct {
		col, row int
		want     bool
	}{
		{0, 0, true},
		{17, 31, true},
		{-1, 0, false},
		{18, 0, false},
		{0, 32, false},
	}
	for _, c := range cases {
		if got := g.InBounds(c.col, c.row); got != c.want {
			t.Errorf("InBounds(%d,%d) = %v, want %v", c.col, c.row, got, c.want)
		}
	}
}

func TestGridClampsOutOfBoundsInserts(t *testing.T) {
	g := NewGrid(4, 4)
	// Should not panic despite coordinates far outside the grid.
	g.Insert(1, -100, -100)
	g.Insert(2, 100, 100)
	if g.Cols() != 4 || g.Rows() != 4 {
		t.Fatalf("Cols/Rows = %d/%d, want 4/4", g.Cols(), g.Rows())
	}
}
