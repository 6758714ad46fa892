package pipeline

import "sync/atomic"

// stats holds the run's atomic progress counters, read concurrently by
// every worker and by the progress reporter.
type stats struct {
	queued int64
	good   int64
	bad    int64
}

func (s *stats) addQueued(n int64) { atomic.AddInt64(&s.queued, n) }
func (s *stats) addGood(n int64)   { atomic.AddInt64(&s.good, n) }
func (s *stats) addBad(n int64)    { atomic.AddInt64(&s.bad, n) }

func (s *stats) Queued() int64 { return atomic.LoadInt64(&s.queued) }
func (s *stats) Good() int64   { return atomic.LoadInt64(&s.good) }
func (s *stats) Bad() int64    { return atomic.LoadInt64(&s.bad) }

// Total is the number of blocks the workers have finished processing,
// successfully or not.
func (s *stats) Total() int64 { return s.Good() + s.Bad() }
