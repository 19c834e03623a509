package models

import "time"

// Candle is an OHLCV aggregate of the trades inside one time bucket.
// BucketStart is the timeframe-aligned floor of every tick folded into it.
// Closed candles are append-only and immutable.
type Candle struct {
	Symbol      string    `json:"symbol"`
	Timeframe   string    `json:"timeframe"`
	BucketStart time.Time `json:"bucket_start"`
	Open        float64   `json:"open"`
	High        float64   `json:"high"`
	Low         float64   `json:"low"`
	Close       float64   `json:"close"`
	Volume      float64   `json:"volume"`
	TradeCount  int64     `json:"trade_count"`
}

// Merge folds one more tick into the candle. The caller guarantees the
// tick belongs to this bucket.
func (c *Candle) Merge(t *Tick) {
	if t.Price > c.High {
		c.High = t.Price
	}
	if t.Price < c.Low {
		c.Low = t.Price
	}
	c.Close = t.Price
	c.Volume += t.Size
	c.TradeCount++
}

// NewCandle opens a candle seeded from its first tick.
func NewCandle(symbol, timeframe string, bucketStart time.Time, t *Tick) Candle {
	return Candle{
		Symbol:      symbol,
		Timeframe:   timeframe,
		BucketStart: bucketStart,
		Open:        t.Price,
		High:        t.Price,
		Low:         t.Price,
		Close:       t.Price,
		Volume:      t.Size,
		TradeCount:  1,
	}
}
