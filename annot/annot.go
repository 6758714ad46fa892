// Package annot implements a hash-sharded, lock-striped map from a block
// coordinate to a small annotation record, plus the MapBlockAnnotation
// value type itself. Shard selection hashes the packed block id with
// murmur3 (github.com/spaolacci/murmur3) modulo a fixed prime shard count.
package annot

import (
	"encoding/binary"
	"sync"

	"github.com/spaolacci/murmur3"

	"github.com/mt-map-search/mapscan/coord"
)

// shardCount is a fixed odd prime chosen experimentally in the original
// tool to balance lock contention against per-shard overhead.
const shardCount = 1117

// MapBlockAnnotation is the per-block-coordinate record accumulated by
// pipeline workers and the preserve aggregator. At most 4 bytes.
//
// Invariant: Uniform != 0 iff all 4096 nodes of the block carry the same
// global content id, in which case Uniform equals that content id.
type MapBlockAnnotation struct {
	Uniform      uint16
	Anthropocene bool
	Preserve     bool
}

type shard struct {
	mu   sync.Mutex
	data map[coord.BC]MapBlockAnnotation
	// pad keeps each shard on its own cache line to avoid false sharing
	// between adjacent mutexes under concurrent access from many workers.
	// The mutex (8 bytes) and map header (8 bytes) plus 48 bytes of pad
	// make each shard 64 bytes.
	_ [48]byte
}

// Store is the sharded 3D annotation map.
type Store struct {
	shards [shardCount]shard
}

// NewStore creates an empty, ready-to-use Store.
func NewStore() *Store {
	s := &Store{}
	for i := range s.shards {
		s.shards[i].data = make(map[coord.BC]MapBlockAnnotation)
	}
	return s
}

func shardIndex(bc coord.BC) uint64 {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(coord.Pack(bc)))
	return murmur3.Sum64(buf[:]) % shardCount
}

// Update locks the shard owning bc, applies fn to the (possibly
// freshly-defaulted) annotation in place, and returns. This is the
// closure-passing substitute for a borrow-scoped lock guard, which Go
// lacks: the lock is held for the duration of fn.
func (s *Store) Update(bc coord.BC, fn func(v *MapBlockAnnotation)) {
	idx := shardIndex(bc)
	sh := &s.shards[idx]
	sh.mu.Lock()
	defer sh.mu.Unlock()

	v := sh.data[bc]
	fn(&v)
	sh.data[bc] = v
}

// Get returns the current annotation for bc and whether it has ever been
// touched.
func (s *Store) Get(bc coord.BC) (MapBlockAnnotation, bool) {
	idx := shardIndex(bc)
	sh := &s.shards[idx]
	sh.mu.Lock()
	defer sh.mu.Unlock()

	v, ok := sh.data[bc]
	return v, ok
}

// Size returns the total number of populated block coordinates across all
// shards.
func (s *Store) Size() int {
	total := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		total += len(sh.data)
		sh.mu.Unlock()
	}
	return total
}

// Each calls fn once per populated block coordinate. fn must not mutate the
// store. Intended for the driver's final annotation flush, after all
// workers and the preserve aggregator have been joined.
func (s *Store) Each(fn func(bc coord.BC, v MapBlockAnnotation)) {
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for bc, v := range sh.data {
			fn(bc, v)
		}
		sh.mu.Unlock()
	}
}
