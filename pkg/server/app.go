package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PairStream/internal/domain/repository"
	"PairStream/internal/handler/api"
	internalrepo "PairStream/internal/repository"
	"PairStream/internal/usecase"
	"PairStream/pkg/cache"
	pkgch "PairStream/pkg/clickhouse"
	"PairStream/pkg/config"
	xhttp "PairStream/pkg/http"
	applogger "PairStream/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	l           *applogger.Logger
	collector   *usecase.TickCollector
	buf         *usecase.IngestBuffer
	engine      *usecase.AlertEngine
	marketStore *internalrepo.CHMarketStore
	alertStore  *internalrepo.CHAlertStore
	chClient    *pkgch.Client
	redis       *cache.RedisCache
	bcast       repository.Broadcaster
	handler     *api.Handler
	httpServer  *xhttp.Server
}

// New creates the App with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	collector *usecase.TickCollector,
	buf *usecase.IngestBuffer,
	engine *usecase.AlertEngine,
	marketStore *internalrepo.CHMarketStore,
	alertStore *internalrepo.CHAlertStore,
	chClient *pkgch.Client,
	redis *cache.RedisCache,
	bcast repository.Broadcaster,
	handler *api.Handler,
) *App {
	return &App{
		cfg:         cfg,
		l:           l,
		collector:   collector,
		buf:         buf,
		engine:      engine,
		marketStore: marketStore,
		alertStore:  alertStore,
		chClient:    chClient,
		redis:       redis,
		bcast:       bcast,
		handler:     handler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// schema first; nothing else is useful without it
	initCtx, initCancel := context.WithTimeout(ctx, 15*time.Second)
	defer initCancel()
	if err := a.marketStore.Init(initCtx); err != nil {
		return fmt.Errorf("market schema: %w", err)
	}
	if err := a.alertStore.Init(initCtx); err != nil {
		return fmt.Errorf("alert schema: %w", err)
	}

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithRequestMetrics(a.l, time.Second),
		xhttp.WithMetricsEndpoint(a.cfg.Metrics.Enabled, a.cfg.Metrics.Path),
	)

	if err := a.collector.Start(ctx); err != nil {
		return fmt.Errorf("collector start: %w", err)
	}
	a.l.Info("collector started", applogger.Strings("symbols", a.cfg.Binance.Symbols))

	go a.buf.Run(ctx)
	go a.engine.Run(ctx)

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	if err := a.collector.Stop(); err != nil {
		a.l.Warn("collector stop error", applogger.Error(err))
	}

	// one last flush so accepted ticks are not lost
	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	a.buf.Flush(flushCtx)
	flushCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
	}

	// flush aggregated logs while the producer is still open
	a.l.RemoveCollector()
	if a.bcast != nil {
		if err := a.bcast.Close(); err != nil {
			a.l.Warn("broadcaster close error", applogger.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.l.Warn("redis close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
