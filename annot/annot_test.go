package annot

import (
	"sync"
	"testing"

	"github.com/mt-map-search/mapscan/coord"
)

func TestUpdateCreatesDefault(t *testing.T) {
	s := NewStore()
	bc := coord.BC{X: 1, Y: 2, Z: 3}

	s.Update(bc, func(v *MapBlockAnnotation) {
		v.Anthropocene = true
	})

	got, ok := s.Get(bc)
	if !ok {
		t.Fatal("expected annotation to exist after Update")
	}
	if !got.Anthropocene {
		t.Error("expected Anthropocene=true")
	}
	if got.Uniform != 0 || got.Preserve {
		t.Errorf("unexpected defaults: %+v", got)
	}
}

func TestGetAbsent(t *testing.T) {
	s := NewStore()
	_, ok := s.Get(coord.BC{X: 99, Y: 99, Z: 99})
	if ok {
		t.Error("expected absent coordinate to report ok=false")
	}
}

func TestSizeAndEach(t *testing.T) {
	s := NewStore()
	coords := []coord.BC{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {-5, 10, -20}}
	for _, bc := range coords {
		s.Update(bc, func(v *MapBlockAnnotation) { v.Uniform = 2 })
	}

	if got := s.Size(); got != len(coords) {
		t.Errorf("Size() = %d, want %d", got, len(coords))
	}

	seen := make(map[coord.BC]bool)
	s.Each(func(bc coord.BC, v MapBlockAnnotation) {
		seen[bc] = true
		if v.Uniform != 2 {
			t.Errorf("Each(%+v) = %+v, want Uniform=2", bc, v)
		}
	})
	if len(seen) != len(coords) {
		t.Errorf("Each visited %d coordinates, want %d", len(seen), len(coords))
	}
}

func TestConcurrentDistinctKeysPerWorker(t *testing.T) {
	s := NewStore()
	const workers = 6
	const perWorker = 40

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				bc := coord.BC{X: int32(w), Y: int32(i), Z: 0}
				s.Update(bc, func(v *MapBlockAnnotation) { v.Uniform = uint16(w*1000 + i) })
			}
		}(w)
	}
	wg.Wait()

	if got, want := s.Size(), workers*perWorker; got != want {
		t.Fatalf("Size() = %d, want %d", got, want)
	}

	for w := 0; w < workers; w++ {
		for i := 0; i < perWorker; i++ {
			bc := coord.BC{X: int32(w), Y: int32(i), Z: 0}
			v, ok := s.Get(bc)
			if !ok {
				t.Fatalf("missing entry for %+v", bc)
			}
			if want := uint16(w*1000 + i); v.Uniform != want {
				t.Errorf("Get(%+v).Uniform = %d, want %d", bc, v.Uniform, want)
			}
		}
	}
}
