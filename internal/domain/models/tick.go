package models

import (
	"fmt"
	"math"
	"time"
)

// Tick is a single normalized trade event from the venue stream.
// Immutable once created.
type Tick struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Size      float64   `json:"size"`
}

// Validate rejects ticks that must never enter the pipeline.
func (t *Tick) Validate() error {
	if t == nil {
		return fmt.Errorf("tick nil")
	}
	if t.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if t.Timestamp.IsZero() {
		return fmt.Errorf("timestamp invalid")
	}
	if t.Price <= 0 || math.IsNaN(t.Price) || math.IsInf(t.Price, 0) {
		return fmt.Errorf("price invalid: %v", t.Price)
	}
	if t.Size < 0 || math.IsNaN(t.Size) || math.IsInf(t.Size, 0) {
		return fmt.Errorf("size invalid: %v", t.Size)
	}
	return nil
}
