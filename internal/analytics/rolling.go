package analytics

import "time"

// Point is one (timestamp, value) observation.
type Point struct {
	Timestamp time.Time
	Value     float64
}

// RollingSeries is a bounded-capacity FIFO of observations. When full, the
// oldest observation is evicted on push. Capacity must be at least the
// largest window a caller will ever ask for.
type RollingSeries struct {
	buf   []Point
	head  int // index of oldest
	count int
}

// NewRollingSeries creates a series with fixed capacity.
func NewRollingSeries(capacity int) *RollingSeries {
	if capacity < 1 {
		capacity = 1
	}
	return &RollingSeries{buf: make([]Point, capacity)}
}

// Push appends an observation, evicting the oldest when at capacity.
func (s *RollingSeries) Push(ts time.Time, v float64) {
	if s.count < len(s.buf) {
		s.buf[(s.head+s.count)%len(s.buf)] = Point{Timestamp: ts, Value: v}
		s.count++
		return
	}
	s.buf[s.head] = Point{Timestamp: ts, Value: v}
	s.head = (s.head + 1) % len(s.buf)
}

// Len returns the number of stored observations.
func (s *RollingSeries) Len() int { return s.count }

// Cap returns the fixed capacity.
func (s *RollingSeries) Cap() int { return len(s.buf) }

// At returns the i-th observation, oldest first.
func (s *RollingSeries) At(i int) Point {
	return s.buf[(s.head+i)%len(s.buf)]
}

// Last returns the newest observation and false when empty.
func (s *RollingSeries) Last() (Point, bool) {
	if s.count == 0 {
		return Point{}, false
	}
	return s.At(s.count - 1), true
}

// Values copies out the newest n values, oldest first. n <= 0 means all.
func (s *RollingSeries) Values(n int) []float64 {
	if n <= 0 || n > s.count {
		n = s.count
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = s.At(s.count - n + i).Value
	}
	return out
}

// Points copies out the newest n observations, oldest first. n <= 0 means all.
func (s *RollingSeries) Points(n int) []Point {
	if n <= 0 || n > s.count {
		n = s.count
	}
	out := make([]Point, n)
	for i := 0; i < n; i++ {
		out[i] = s.At(s.count - n + i)
	}
	return out
}

// Reset drops all observations, keeping capacity.
func (s *RollingSeries) Reset() {
	s.head = 0
	s.count = 0
}
