package usecase

import (
	"context"
	"time"

	"PairStream/internal/domain/models"
	domrepo "PairStream/internal/domain/repository"
	applogger "PairStream/pkg/logger"
)

// TickCollector drives the market stream: connect, subscribe, consume, and
// reconnect with a fixed backoff on stream errors. Every accepted tick goes
// through the ingest buffer.
type TickCollector struct {
	stream  domrepo.MarketStream
	buf     *IngestBuffer
	metrics domrepo.Metrics
	l       *applogger.Logger
	backoff time.Duration
}

// NewTickCollector creates a collector over a connected or unconnected stream.
func NewTickCollector(stream domrepo.MarketStream, buf *IngestBuffer, metrics domrepo.Metrics) *TickCollector {
	return &TickCollector{
		stream:  stream,
		buf:     buf,
		metrics: metrics,
		backoff: 3 * time.Second,
	}
}

// SetLogger injects a structured logger.
func (c *TickCollector) SetLogger(l *applogger.Logger) { c.l = l }

// IsConnected reports whether the underlying stream is up.
func (c *TickCollector) IsConnected() bool { return c.stream.IsConnected() }

// AddSymbol grows the live subscription set.
func (c *TickCollector) AddSymbol(ctx context.Context, symbol string) error {
	return c.stream.AddSymbol(ctx, symbol)
}

// Symbols lists the currently subscribed symbols.
func (c *TickCollector) Symbols() []string { return c.stream.Symbols() }

// Start connects, subscribes, and spawns the consume loop.
func (c *TickCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	tickCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, tickCh, errCh)
	return nil
}

func (c *TickCollector) consume(ctx context.Context, tickCh <-chan *models.Tick, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err == nil {
				continue
			}
			if c.metrics != nil {
				c.metrics.RecordError("stream")
			}
			if c.l != nil {
				c.l.Warn("stream error, reconnecting", applogger.Error(err))
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.backoff):
			}
			if err := c.stream.Reconnect(ctx); err != nil {
				if c.metrics != nil {
					c.metrics.RecordError("reconnect")
				}
				if c.l != nil {
					c.l.Error("reconnect failed", applogger.Error(err))
				}
			}
		case t := <-tickCh:
			if t == nil {
				continue
			}
			c.buf.Accept(t)
		}
	}
}

// Stop closes the stream; the consume loop exits via ctx.
func (c *TickCollector) Stop() error { return c.stream.Close() }
