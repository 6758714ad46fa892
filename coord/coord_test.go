package coord

import "testing"

func TestPackUnpackRoundTrip(t *testing.T) {
	cases := []BC{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
		{-1, -1, -1},
		{16, 0, 0},
		{-16, 0, 0},
		{1024, -1024, 1024},
		{-1024, 1024, -1024},
		{2047, -2048, 0},
		{2047, 2047, 2047},
		{-2048, -2048, -2048},
		{-2047, -2047, -2047},
	}
	for _, bc := range cases {
		id := Pack(bc)
		got := Unpack(id)
		if got != bc {
			t.Errorf("Unpack(Pack(%+v)) = %+v, want %+v", bc, got, bc)
		}
	}
}

func TestPackKnownValues(t *testing.T) {
	tests := []struct {
		bc   BC
		want int64
	}{
		{BC{0, 0, 0}, 0},
		{BC{1, 0, 0}, 1},
		{BC{-1, 0, 0}, 0xfff},
		{BC{0, 1, 0}, 1 << 12},
		{BC{0, 0, 1}, 1 << 24},
	}
	for _, tt := range tests {
		if got := Pack(tt.bc); got != tt.want {
			t.Errorf("Pack(%+v) = %d, want %d", tt.bc, got, tt.want)
		}
	}
}

func TestInsideHalfOpen(t *testing.T) {
	min := BC{0, 0, 0}
	max := BC{2, 2, 2}

	if !Inside(BC{0, 0, 0}, min, max) {
		t.Error("lower bound should be inside (inclusive)")
	}
	if Inside(BC{2, 0, 0}, min, max) {
		t.Error("upper bound should be excluded")
	}
	if !Inside(BC{1, 1, 1}, min, max) {
		t.Error("interior point should be inside")
	}
}

func TestSort(t *testing.T) {
	a := BC{5, -3, 10}
	b := BC{1, 7, -2}
	Sort(&a, &b)

	if a != (BC{1, -3, -2}) {
		t.Errorf("a = %+v, want component-wise min", a)
	}
	if b != (BC{5, 7, 10}) {
		t.Errorf("b = %+v, want component-wise max", b)
	}
}

func TestPackNodeAndBlockOf(t *testing.T) {
	bc := BC{3, -5, 100}
	for local := 0; local < 4096; local++ {
		nc := PackNode(bc, local)
		if got := BlockOf(nc); got != bc {
			t.Fatalf("BlockOf(PackNode(%+v, %d)) = %+v, want %+v", bc, local, got, bc)
		}
		if got := LocalIndexOf(nc); got != local {
			t.Fatalf("LocalIndexOf(PackNode(%+v, %d)) = %d, want %d", bc, local, got, local)
		}
	}
}

func TestPackBlockOfNodeMatchesPack(t *testing.T) {
	bc := BC{7, 8, -9}
	nc := PackNode(bc, 42)
	if got, want := PackBlockOfNode(nc), Pack(BlockOf(nc)); got != want {
		t.Errorf("PackBlockOfNode = %d, want %d", got, want)
	}
}
