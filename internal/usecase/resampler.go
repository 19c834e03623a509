package usecase

import (
	"context"
	"sync"
	"sync/atomic"

	"PairStream/internal/domain/models"
	domrepo "PairStream/internal/domain/repository"
	applogger "PairStream/pkg/logger"
)

// Resampler folds ticks into one open candle per (symbol, timeframe) and a
// bounded ring of closed candles. State is sharded per symbol with one
// mutex per shard; readers get copy-on-read snapshots so analytics never
// block ingestion for long.
type Resampler struct {
	timeframes []domrepo.Timeframe
	capacity   int
	store      domrepo.MarketStore
	metrics    domrepo.Metrics
	l          *applogger.Logger

	mu     sync.RWMutex // guards the shard map, not shard contents
	shards map[string]*symbolShard

	outOfOrder atomic.Int64
}

type symbolShard struct {
	mu     sync.Mutex
	frames map[domrepo.Timeframe]*frameState
}

// frameState is a fixed-capacity ring of closed candles plus the open one.
type frameState struct {
	open  *models.Candle
	ring  []models.Candle
	head  int
	count int
}

// NewResampler creates a resampler for the given timeframes with a fixed
// closed-candle history per (symbol, timeframe). store may be nil when
// candle persistence is handled elsewhere.
func NewResampler(timeframes []domrepo.Timeframe, capacity int, store domrepo.MarketStore, metrics domrepo.Metrics) *Resampler {
	if capacity < 1 {
		capacity = 1
	}
	if len(timeframes) == 0 {
		timeframes = domrepo.AllTimeframes
	}
	return &Resampler{
		timeframes: timeframes,
		capacity:   capacity,
		store:      store,
		metrics:    metrics,
		shards:     make(map[string]*symbolShard),
	}
}

// SetLogger injects a structured logger.
func (r *Resampler) SetLogger(l *applogger.Logger) { r.l = l }

// OnTick folds a tick into every configured timeframe. Ticks older than the
// open candle's bucket are dropped with a counted warning; tick time is
// assumed monotonically non-decreasing per symbol.
func (r *Resampler) OnTick(ctx context.Context, t *models.Tick) {
	if err := t.Validate(); err != nil {
		if r.metrics != nil {
			r.metrics.RecordError("resample_invalid_tick")
		}
		return
	}

	shard := r.shard(t.Symbol)

	var closed []models.Candle
	shard.mu.Lock()
	for _, tf := range r.timeframes {
		fs, ok := shard.frames[tf]
		if !ok {
			fs = &frameState{ring: make([]models.Candle, r.capacity)}
			shard.frames[tf] = fs
		}
		bucket := tf.Floor(t.Timestamp)

		if fs.open == nil {
			c := models.NewCandle(t.Symbol, string(tf), bucket, t)
			fs.open = &c
			continue
		}

		switch {
		case bucket.Equal(fs.open.BucketStart):
			fs.open.Merge(t)
		case bucket.After(fs.open.BucketStart):
			done := *fs.open
			fs.push(done)
			closed = append(closed, done)
			c := models.NewCandle(t.Symbol, string(tf), bucket, t)
			fs.open = &c
		default:
			r.outOfOrder.Add(1)
			if r.metrics != nil {
				r.metrics.RecordTickDropped("out_of_order")
			}
			if r.l != nil {
				r.l.Warn("out-of-order tick dropped",
					applogger.String("symbol", t.Symbol),
					applogger.String("tf", string(tf)),
				)
			}
		}
	}
	shard.mu.Unlock()

	// persist closed candles outside the shard lock; storage failures are
	// reported, never block ingestion
	for i := range closed {
		c := closed[i]
		if r.metrics != nil {
			r.metrics.RecordCandleClosed(c.Symbol, c.Timeframe)
		}
		if r.store == nil {
			continue
		}
		if err := r.store.AppendCandle(ctx, &c); err != nil {
			if r.metrics != nil {
				r.metrics.RecordError("candle_store")
			}
			if r.l != nil {
				r.l.Error("candle persist failed",
					applogger.String("symbol", c.Symbol),
					applogger.String("tf", c.Timeframe),
					applogger.Error(err),
				)
			}
		}
	}
}

// Candles returns the most recent limit closed candles (oldest first) plus
// the current open candle if present. The result is an independent copy.
func (r *Resampler) Candles(symbol string, tf domrepo.Timeframe, limit int) []models.Candle {
	r.mu.RLock()
	shard, ok := r.shards[symbol]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	shard.mu.Lock()
	defer shard.mu.Unlock()
	fs, ok := shard.frames[tf]
	if !ok {
		return nil
	}

	n := fs.count
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]models.Candle, 0, n+1)
	for i := fs.count - n; i < fs.count; i++ {
		out = append(out, fs.ring[(fs.head+i)%len(fs.ring)])
	}
	if fs.open != nil {
		out = append(out, *fs.open)
	}
	return out
}

// ClosedCandles is Candles without the open candle. limit <= 0 means all.
func (r *Resampler) ClosedCandles(symbol string, tf domrepo.Timeframe, limit int) []models.Candle {
	fetch := 0
	if limit > 0 {
		fetch = limit + 1
	}
	all := r.Candles(symbol, tf, fetch)
	if len(all) == 0 {
		return nil
	}
	// last entry is the open candle whenever one exists; Candles always
	// appends it, so strip it
	all = all[:len(all)-1]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all
}

// OutOfOrderDropped reports how many ticks were rejected as out-of-order.
func (r *Resampler) OutOfOrderDropped() int64 { return r.outOfOrder.Load() }

// Reset drops all per-symbol state.
func (r *Resampler) Reset() {
	r.mu.Lock()
	r.shards = make(map[string]*symbolShard)
	r.mu.Unlock()
}

func (r *Resampler) shard(symbol string) *symbolShard {
	r.mu.RLock()
	s, ok := r.shards[symbol]
	r.mu.RUnlock()
	if ok {
		return s
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok = r.shards[symbol]; ok {
		return s
	}
	s = &symbolShard{frames: make(map[domrepo.Timeframe]*frameState)}
	r.shards[symbol] = s
	return s
}

func (fs *frameState) push(c models.Candle) {
	if fs.count < len(fs.ring) {
		fs.ring[(fs.head+fs.count)%len(fs.ring)] = c
		fs.count++
		return
	}
	fs.ring[fs.head] = c
	fs.head = (fs.head + 1) % len(fs.ring)
}
