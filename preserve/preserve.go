// Package preserve implements the dedicated aggregator that turns
// per-worker "anthropocene" seed sets into preserve bits on the
// annotation store: a merge queue fed by workers, a merge goroutine that
// expands each seed by a configured radius into a staging set, and a
// drain step that stamps the preserve bit once the staging set crosses a
// configured limit.
package preserve

import (
	"sync"

	"github.com/mt-map-search/mapscan/annot"
	"github.com/mt-map-search/mapscan/coord"
)

// Aggregator merges seed batches from workers into a staging set of block
// coordinates, draining it into the annotation store once it grows past
// a configured limit.
type Aggregator struct {
	store  *annot.Store
	radius int
	limit  int

	mergeMu    sync.Mutex
	mergeCV    *sync.Cond
	queue      [][]coord.BC
	tombstoned bool

	finalMu sync.Mutex
	staging map[coord.BC]struct{}
}

// New returns an Aggregator that stamps preserve bits into store, expanding
// each seed by radius blocks in every direction and draining its staging
// set once it exceeds limit entries.
func New(store *annot.Store, radius, limit int) *Aggregator {
	a := &Aggregator{
		store:   store,
		radius:  radius,
		limit:   limit,
		staging: make(map[coord.BC]struct{}),
	}
	a.mergeCV = sync.NewCond(&a.mergeMu)
	return a
}

// Enqueue submits a batch of seed coordinates from a worker. Empty batches
// are dropped without waking the merge loop.
func (a *Aggregator) Enqueue(seeds []coord.BC) {
	if len(seeds) == 0 {
		return
	}
	a.mergeMu.Lock()
	a.queue = append(a.queue, seeds)
	a.mergeMu.Unlock()
	a.mergeCV.Signal()
}

// SetTombstone signals that no more seed batches will be enqueued. The
// merge loop exits once it has drained every batch queued before this
// call.
func (a *Aggregator) SetTombstone() {
	a.mergeMu.Lock()
	a.tombstoned = true
	a.mergeMu.Unlock()
	a.mergeCV.Broadcast()
}

// Run drains seed batches and merges them until SetTombstone has been
// called and the queue is empty. Intended to run on its own goroutine; the
// driver joins it after tombstoning.
func (a *Aggregator) Run() {
	for {
		a.mergeMu.Lock()
		for len(a.queue) == 0 && !a.tombstoned {
			a.mergeCV.Wait()
		}
		if len(a.queue) == 0 && a.tombstoned {
			a.mergeMu.Unlock()
			return
		}
		batch := a.queue[0]
		a.queue = a.queue[1:]
		a.mergeMu.Unlock()

		a.merge(batch)
	}
}

// merge expands every seed in batch by the configured radius into the
// staging set, draining it into the annotation store if it grows past the
// configured limit.
func (a *Aggregator) merge(batch []coord.BC) {
	a.finalMu.Lock()
	defer a.finalMu.Unlock()

	r := int32(a.radius)
	for _, seed := range batch {
		for z := seed.Z - r; z <= seed.Z+r; z++ {
			for y := seed.Y - r; y <= seed.Y+r; y++ {
				for x := seed.X - r; x <= seed.X+r; x++ {
					a.staging[coord.BC{X: x, Y: y, Z: z}] = struct{}{}
				}
			}
		}
	}

	if len(a.staging) > a.limit {
		a.drainLocked()
	}
}

// drainLocked stamps preserve=true for every coordinate in the staging
// set and clears it. Caller must hold finalMu.
func (a *Aggregator) drainLocked() {
	for bc := range a.staging {
		a.store.Update(bc, func(v *annot.MapBlockAnnotation) {
			v.Preserve = true
		})
	}
	a.staging = make(map[coord.BC]struct{})
}

// Flush drains any remaining staged coordinates into the annotation store.
// The driver calls this once after Run has returned, to apply whatever
// residual set never crossed the limit.
func (a *Aggregator) Flush() {
	a.finalMu.Lock()
	defer a.finalMu.Unlock()
	a.drainLocked()
}
