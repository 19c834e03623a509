package analytics

import (
	"testing"
	"time"
)

func TestRollingSeriesFIFOEviction(t *testing.T) {
	s := NewRollingSeries(3)
	base := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s.Push(base.Add(time.Duration(i)*time.Second), float64(i))
	}
	if s.Len() != 3 {
		t.Fatalf("expected len 3, got %d", s.Len())
	}
	vals := s.Values(0)
	want := []float64{2, 3, 4}
	for i, v := range want {
		if vals[i] != v {
			t.Fatalf("expected %v at %d, got %v", v, i, vals[i])
		}
	}
}

func TestRollingSeriesLast(t *testing.T) {
	s := NewRollingSeries(4)
	if _, ok := s.Last(); ok {
		t.Fatalf("expected empty series")
	}
	now := time.Now()
	s.Push(now, 1.5)
	p, ok := s.Last()
	if !ok || p.Value != 1.5 {
		t.Fatalf("unexpected last %+v", p)
	}
}

func TestRollingSeriesWindowedValues(t *testing.T) {
	s := NewRollingSeries(10)
	base := time.Now()
	for i := 0; i < 10; i++ {
		s.Push(base.Add(time.Duration(i)*time.Second), float64(i))
	}
	vals := s.Values(3)
	if len(vals) != 3 || vals[0] != 7 || vals[2] != 9 {
		t.Fatalf("unexpected window %v", vals)
	}
}
