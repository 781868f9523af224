package fx

import (
	"valorant-companion/internal/config"
	"valorant-companion/internal/ingest"
	"valorant-companion/internal/logger"
	"valorant-companion/internal/pandascore"
	"valorant-companion/internal/server"
	"valorant-companion/internal/service"
	"valorant-companion/internal/store"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideScheduler(src *pandascore.Client, mirror *store.Store, cfg *config.Config, log zerolog.Logger) *ingest.Scheduler {
	return ingest.NewScheduler(src, mirror, cfg, log)
}

func ProvideCatalog(mirror *store.Store, upstream *pandascore.Client, log zerolog.Logger) *service.Catalog {
	return service.NewCatalog(mirror, upstream, log)
}

func ProvideServer(catalog *service.Catalog, mirror *store.Store, log zerolog.Logger) *server.Server {
	return server.New(catalog, mirror, log)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(store.New),
	fx.Provide(pandascore.NewClient),
	fx.Provide(ProvideScheduler),
	fx.Provide(ProvideCatalog),
	fx.Provide(ProvideServer),
)
