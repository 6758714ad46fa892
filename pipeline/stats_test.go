package pipeline

import "testing"

func TestStatsCounters(t *testing.T) {
	var s stats
	s.addQueued(5)
	s.addGood(3)
	s.addBad(2)

	if s.Queued() != 5 {
		t.Errorf("Queued() = %d, want 5", s.Queued())
	}
	if s.Good() != 3 {
		t.Errorf("Good() = %d, want 3", s.Good())
	}
	if s.Bad() != 2 {
		t.Errorf("Bad() = %d, want 2", s.Bad())
	}
	if s.Total() != 5 {
		t.Errorf("Total() = %d, want 5", s.Total())
	}
}
