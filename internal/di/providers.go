package di

import (
	"fmt"
	"time"

	"PairStream/internal/domain/repository"
	"PairStream/internal/handler/api"
	internalrepo "PairStream/internal/repository"
	"PairStream/internal/service/binance"
	"PairStream/internal/usecase"
	"PairStream/pkg/cache"
	pkgch "PairStream/pkg/clickhouse"
	"PairStream/pkg/config"
	pkgkafka "PairStream/pkg/kafka"
	applogger "PairStream/pkg/logger"
	"PairStream/pkg/metrics"
	"PairStream/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "dev" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client. Schema creation is
// done by the stores at startup.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideMarketStore creates the ClickHouse tick/candle store.
func ProvideMarketStore(ch *pkgch.Client, l *applogger.Logger) *internalrepo.CHMarketStore {
	s := internalrepo.NewCHMarketStore(ch)
	s.SetLogger(l)
	return s
}

// ProvideAlertStore creates the ClickHouse alert store.
func ProvideAlertStore(ch *pkgch.Client, l *applogger.Logger) *internalrepo.CHAlertStore {
	s := internalrepo.NewCHAlertStore(ch)
	s.SetLogger(l)
	return s
}

// ProvideRedisCache creates the Redis connection, or nil when disabled.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideStatsCache layers an in-memory L1 over Redis for computed stats.
func ProvideStatsCache(rc *cache.RedisCache) cache.Service {
	if rc == nil {
		return nil
	}
	return cache.NewLayeredCache(rc)
}

// ProvideLiveCache creates the hot cache of recent market data.
func ProvideLiveCache(rc *cache.RedisCache, cfg *config.Config) repository.LiveCache {
	if rc == nil {
		return nil
	}
	return internalrepo.NewRedisLiveCache(rc.Client(), cfg.Redis.Prefix)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideBroadcaster fans ticks and triggers out to Kafka, or nil when
// Kafka is disabled. When a log topic is configured, aggregated error logs
// are shipped through the same producer.
func ProvideBroadcaster(producer *pkgkafka.Producer, cfg *config.Config, l *applogger.Logger) repository.Broadcaster {
	if producer == nil {
		return nil
	}
	b := internalrepo.NewKafkaBroadcaster(producer, cfg.Kafka.TickTopic, cfg.Kafka.TriggerTopic)
	if cfg.Kafka.LogTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogTopic,
			Publisher:      b,
		})
	}
	return b
}

// ProvideBinanceStream creates the Binance WebSocket stream.
func ProvideBinanceStream(cfg *config.Config) repository.MarketStream {
	return binance.New(
		cfg.Binance.WebSocketURL,
		cfg.Binance.Symbols,
		cfg.Binance.ReconnectDelay,
		cfg.Binance.PingInterval,
	)
}

// ProvideResampler creates the candle resampler.
func ProvideResampler(cfg *config.Config, store *internalrepo.CHMarketStore, m repository.Metrics, l *applogger.Logger) *usecase.Resampler {
	tfs := make([]repository.Timeframe, 0, len(cfg.Resample.Timeframes))
	for _, s := range cfg.Resample.Timeframes {
		tfs = append(tfs, repository.Timeframe(s))
	}
	history := cfg.Resample.History
	if history <= 0 {
		history = 500
	}
	r := usecase.NewResampler(tfs, history, store, m)
	r.SetLogger(l)
	return r
}

// ProvideIngestBuffer creates the ingestion buffer.
func ProvideIngestBuffer(
	cfg *config.Config,
	store *internalrepo.CHMarketStore,
	live repository.LiveCache,
	bcast repository.Broadcaster,
	resampler *usecase.Resampler,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.IngestBuffer {
	opts := []usecase.BufferOption{
		usecase.WithFlushInterval(cfg.Ingest.FlushInterval),
		usecase.WithQueueCap(cfg.Ingest.QueueCap),
		usecase.WithRecentCap(cfg.Ingest.RecentTicks),
	}
	b := usecase.NewIngestBuffer(store, live, bcast, resampler, m, opts...)
	b.SetLogger(l)
	return b
}

// ProvideTickCollector creates the stream collector.
func ProvideTickCollector(stream repository.MarketStream, buf *usecase.IngestBuffer, m repository.Metrics, l *applogger.Logger) *usecase.TickCollector {
	c := usecase.NewTickCollector(stream, buf, m)
	c.SetLogger(l)
	return c
}

// ProvideAnalytics creates the statistics usecase.
func ProvideAnalytics(
	resampler *usecase.Resampler,
	buf *usecase.IngestBuffer,
	store *internalrepo.CHMarketStore,
	statsCache cache.Service,
	m repository.Metrics,
) *usecase.Analytics {
	return usecase.NewAnalytics(resampler, buf, store, statsCache, m)
}

// ProvideAlertEngine creates the alert engine.
func ProvideAlertEngine(
	cfg *config.Config,
	alerts *internalrepo.CHAlertStore,
	stats *usecase.Analytics,
	buf *usecase.IngestBuffer,
	bcast repository.Broadcaster,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.AlertEngine {
	e := usecase.NewAlertEngine(alerts, stats, buf, bcast, m,
		usecase.WithEvalInterval(cfg.Alerts.EvalInterval),
		usecase.WithEvalTimeframe(repository.Timeframe(cfg.Alerts.Timeframe)),
	)
	e.SetLogger(l)
	return e
}

// ProvideMarketQuery creates the read-side usecase.
func ProvideMarketQuery(
	resampler *usecase.Resampler,
	buf *usecase.IngestBuffer,
	store *internalrepo.CHMarketStore,
	live repository.LiveCache,
) *usecase.MarketQuery {
	return usecase.NewMarketQuery(resampler, buf, store, live)
}

// ProvideHandler creates the HTTP handler.
func ProvideHandler(
	l *applogger.Logger,
	query *usecase.MarketQuery,
	stats *usecase.Analytics,
	alerts *usecase.AlertEngine,
	collector *usecase.TickCollector,
	buf *usecase.IngestBuffer,
	resampler *usecase.Resampler,
) *api.Handler {
	return api.New(l, query, stats, alerts, collector, buf, resampler)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	collector *usecase.TickCollector,
	buf *usecase.IngestBuffer,
	engine *usecase.AlertEngine,
	marketStore *internalrepo.CHMarketStore,
	alertStore *internalrepo.CHAlertStore,
	chClient *pkgch.Client,
	rc *cache.RedisCache,
	bcast repository.Broadcaster,
	handler *api.Handler,
) *server.App {
	return server.New(cfg, l, collector, buf, engine, marketStore, alertStore, chClient, rc, bcast, handler)
}
