package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"valorant-companion/internal/config"
	"valorant-companion/internal/constants"
	fxmodules "valorant-companion/internal/fx"
	"valorant-companion/internal/ingest"
	"valorant-companion/internal/server"
	"valorant-companion/internal/store"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		// The startup hook awaits the first full catalog pull.
		fx.StartTimeout(5*time.Minute),
		fx.Invoke(runServer),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	apiServer *server.Server,
	scheduler *ingest.Scheduler,
	mirror *store.Store,
	cfg *config.Config,
	logger zerolog.Logger,
) {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: c.Handler(apiServer.Router()),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// First cycle is awaited; its failure aborts startup.
			if err := scheduler.Start(ctx); err != nil {
				return err
			}

			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			scheduler.Stop()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}
			if err := mirror.Close(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("error closing MongoDB connection")
			}
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}
