package repository

import "time"

// Timeframe represents candle resolution buckets.
type Timeframe string

const (
	TF1s Timeframe = "1s"
	TF1m Timeframe = "1m"
	TF5m Timeframe = "5m"
)

// AllTimeframes lists every supported resolution, finest first.
var AllTimeframes = []Timeframe{TF1s, TF1m, TF5m}

// IsValid returns true if tf is a supported timeframe.
func (tf Timeframe) IsValid() bool {
	switch tf {
	case TF1s, TF1m, TF5m:
		return true
	default:
		return false
	}
}

// DefaultTimeframe returns the default timeframe.
func DefaultTimeframe() Timeframe { return TF1m }

// Normalize returns tf if supported, the default otherwise.
func (tf Timeframe) Normalize() Timeframe {
	if tf.IsValid() {
		return tf
	}
	return DefaultTimeframe()
}

// Duration returns the bucket width of the timeframe.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case TF1s:
		return time.Second
	case TF5m:
		return 5 * time.Minute
	default:
		return time.Minute
	}
}

// Floor aligns t down to the timeframe bucket boundary.
func (tf Timeframe) Floor(t time.Time) time.Time {
	return t.Truncate(tf.Duration())
}
