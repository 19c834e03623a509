package usecase

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"PairStream/internal/domain/models"
	domrepo "PairStream/internal/domain/repository"
	applogger "PairStream/pkg/logger"
)

// IngestBuffer absorbs ticks from the stream adapter into bounded
// per-symbol queues and flushes them on a fixed interval: forward to the
// resampler in arrival order, batch-write to durable storage, push to the
// hot cache, and broadcast. When a queue overflows the oldest ticks are
// dropped and counted; data loss is reported, never fatal.
type IngestBuffer struct {
	store     domrepo.MarketStore
	cache     domrepo.LiveCache
	bcast     domrepo.Broadcaster
	resampler *Resampler
	metrics   domrepo.Metrics
	l         *applogger.Logger

	flushEvery time.Duration
	queueCap   int
	recentCap  int

	mu      sync.Mutex
	queues  map[string][]*models.Tick
	recent  map[string]*tickRing
	pending []*models.Tick // accepted ticks awaiting a successful storage write

	dropped atomic.Int64
}

// tickRing is a fixed-capacity FIFO of recent ticks per symbol.
type tickRing struct {
	buf   []*models.Tick
	head  int
	count int
}

func (r *tickRing) push(t *models.Tick) {
	if r.count < len(r.buf) {
		r.buf[(r.head+r.count)%len(r.buf)] = t
		r.count++
		return
	}
	r.buf[r.head] = t
	r.head = (r.head + 1) % len(r.buf)
}

func (r *tickRing) last() *models.Tick {
	if r.count == 0 {
		return nil
	}
	return r.buf[(r.head+r.count-1)%len(r.buf)]
}

func (r *tickRing) newest(n int) []*models.Tick {
	if n <= 0 || n > r.count {
		n = r.count
	}
	out := make([]*models.Tick, n)
	for i := 0; i < n; i++ {
		out[i] = r.buf[(r.head+r.count-n+i)%len(r.buf)]
	}
	return out
}

// BufferOption configures IngestBuffer.
type BufferOption func(*IngestBuffer)

// WithFlushInterval sets the flush period.
func WithFlushInterval(d time.Duration) BufferOption {
	return func(b *IngestBuffer) {
		if d > 0 {
			b.flushEvery = d
		}
	}
}

// WithQueueCap sets the per-symbol queue bound.
func WithQueueCap(n int) BufferOption {
	return func(b *IngestBuffer) {
		if n > 0 {
			b.queueCap = n
		}
	}
}

// WithRecentCap sets how many recent ticks are kept in memory per symbol.
func WithRecentCap(n int) BufferOption {
	return func(b *IngestBuffer) {
		if n > 0 {
			b.recentCap = n
		}
	}
}

// NewIngestBuffer creates an ingestion buffer. cache and bcast may be nil.
func NewIngestBuffer(
	store domrepo.MarketStore,
	cache domrepo.LiveCache,
	bcast domrepo.Broadcaster,
	resampler *Resampler,
	metrics domrepo.Metrics,
	opts ...BufferOption,
) *IngestBuffer {
	b := &IngestBuffer{
		store:      store,
		cache:      cache,
		bcast:      bcast,
		resampler:  resampler,
		metrics:    metrics,
		flushEvery: time.Second,
		queueCap:   10000,
		recentCap:  1000,
		queues:     make(map[string][]*models.Tick),
		recent:     make(map[string]*tickRing),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetLogger injects a structured logger.
func (b *IngestBuffer) SetLogger(l *applogger.Logger) { b.l = l }

// Accept enqueues a tick without blocking. Invalid ticks are rejected,
// overflow drops the oldest queued tick for that symbol.
func (b *IngestBuffer) Accept(t *models.Tick) {
	if err := t.Validate(); err != nil {
		if b.metrics != nil {
			b.metrics.RecordError("ingest_invalid_tick")
		}
		return
	}

	b.mu.Lock()
	q := b.queues[t.Symbol]
	if len(q) >= b.queueCap {
		q = q[1:]
		b.dropped.Add(1)
		if b.metrics != nil {
			b.metrics.RecordTickDropped("overflow")
		}
	}
	b.queues[t.Symbol] = append(q, t)

	ring, ok := b.recent[t.Symbol]
	if !ok {
		ring = &tickRing{buf: make([]*models.Tick, b.recentCap)}
		b.recent[t.Symbol] = ring
	}
	ring.push(t)
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.RecordTickIngested(t.Symbol)
		b.metrics.RecordLastPrice(t.Symbol, t.Price)
	}
}

// Flush drains the queues once: forwards to the resampler in arrival
// order, then persists, caches, and broadcasts. Storage failures keep the
// batch pending for the next interval; forwarded ticks are not rolled back.
func (b *IngestBuffer) Flush(ctx context.Context) {
	start := time.Now()

	b.mu.Lock()
	if len(b.queues) == 0 && len(b.pending) == 0 {
		b.mu.Unlock()
		return
	}
	drained := b.queues
	b.queues = make(map[string][]*models.Tick)
	b.mu.Unlock()

	symbols := make([]string, 0, len(drained))
	for s := range drained {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	batch := make([]*models.Tick, 0, 256)
	for _, s := range symbols {
		for _, t := range drained[s] {
			if b.resampler != nil {
				b.resampler.OnTick(ctx, t)
			}
			batch = append(batch, t)
		}
	}

	if b.cache != nil {
		for _, t := range batch {
			if err := b.cache.PushTick(ctx, t); err != nil {
				if b.metrics != nil {
					b.metrics.RecordError("cache_push")
				}
				break
			}
		}
		for _, s := range symbols {
			if last := drained[s][len(drained[s])-1]; last != nil {
				_ = b.cache.SetLatestPrice(ctx, s, last.Price)
			}
		}
	}

	if b.bcast != nil && len(batch) > 0 {
		if err := b.bcast.BroadcastTicks(ctx, batch); err != nil {
			if b.metrics != nil {
				b.metrics.RecordError("broadcast_ticks")
			}
			if b.l != nil {
				b.l.Warn("tick broadcast failed", applogger.Error(err))
			}
		}
	}

	b.mu.Lock()
	toStore := append(b.pending, batch...)
	b.pending = nil
	b.mu.Unlock()

	if b.store != nil && len(toStore) > 0 {
		if err := b.store.AppendTicks(ctx, toStore); err != nil {
			if b.metrics != nil {
				b.metrics.RecordError("tick_store")
			}
			if b.l != nil {
				b.l.Error("tick batch persist failed, retrying next flush",
					applogger.Int("ticks", len(toStore)),
					applogger.Error(err),
				)
			}
			b.retain(toStore)
		}
	}

	if b.metrics != nil {
		b.metrics.RecordLatency("ingest_flush", time.Since(start).Seconds())
	}
}

// retain keeps a failed storage batch for the next flush, bounded so a
// long outage cannot grow memory without limit.
func (b *IngestBuffer) retain(batch []*models.Tick) {
	bound := b.queueCap * 4
	b.mu.Lock()
	b.pending = append(b.pending, batch...)
	if over := len(b.pending) - bound; over > 0 {
		b.pending = b.pending[over:]
		b.dropped.Add(int64(over))
		if b.metrics != nil {
			b.metrics.RecordTickDropped("storage_backlog")
		}
	}
	b.mu.Unlock()
}

// Run drives periodic flushes until ctx is cancelled, then performs one
// final drain.
func (b *IngestBuffer) Run(ctx context.Context) {
	ticker := time.NewTicker(b.flushEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.Background(), b.flushEvery)
			b.Flush(final)
			cancel()
			return
		case <-ticker.C:
			b.Flush(ctx)
		}
	}
}

// LatestPrice returns the newest accepted price for a symbol.
func (b *IngestBuffer) LatestPrice(symbol string) (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ring, ok := b.recent[symbol]
	if !ok {
		return 0, false
	}
	last := ring.last()
	if last == nil {
		return 0, false
	}
	return last.Price, true
}

// RecentTicks copies out up to n recent ticks for a symbol, oldest first.
func (b *IngestBuffer) RecentTicks(symbol string, n int) []*models.Tick {
	b.mu.Lock()
	defer b.mu.Unlock()
	ring, ok := b.recent[symbol]
	if !ok {
		return nil
	}
	return ring.newest(n)
}

// Dropped reports how many ticks were lost to overflow or storage backlog.
func (b *IngestBuffer) Dropped() int64 { return b.dropped.Load() }

// Buffered reports how many ticks are queued waiting for the next flush.
func (b *IngestBuffer) Buffered() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.pending)
	for _, q := range b.queues {
		n += len(q)
	}
	return n
}
