//go:build wireinject
// +build wireinject

package di

import (
	"PairStream/pkg/config"
	"PairStream/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideRedisCache,
		ProvideKafkaProducer,

		// Repositories
		ProvideMarketStore,
		ProvideAlertStore,
		ProvideStatsCache,
		ProvideLiveCache,
		ProvideBroadcaster,
		ProvideBinanceStream,

		// Use cases
		ProvideResampler,
		ProvideIngestBuffer,
		ProvideTickCollector,
		ProvideAnalytics,
		ProvideAlertEngine,
		ProvideMarketQuery,

		// HTTP and application
		ProvideHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
