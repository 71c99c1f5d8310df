// Package command holds the tours CLI. The root command serves the API;
// "db" manages the MongoDB collections.
//
//	tours                      # serve the API
//	tours db indexes           # create missing indexes
//	tours db import tours.json # insert tours from a JSON array
//	tours db delete            # delete every tour
//
// Configuration is read from TOURS_ environment variables, and from a .env
// file when present.
package command

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deppfellow/tours/internal/config"
	"github.com/deppfellow/tours/internal/handler"
	"github.com/deppfellow/tours/internal/logger"
	"github.com/deppfellow/tours/internal/repository"
	"github.com/deppfellow/tours/internal/router"
	"github.com/deppfellow/tours/internal/server"
	"github.com/deppfellow/tours/internal/service"
	"github.com/spf13/cobra"
)

// DefaultContextTimeout bounds startup steps and graceful shutdown.
const DefaultContextTimeout = 30 * time.Second

var rootCmd = &cobra.Command{
	Use:          "tours",
	Short:        "Tours booking API",
	Long:         `Tours booking API: tour catalogue, image uploads, statistics and geo queries over MongoDB.`,
	RunE:         serve,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
}

func serve(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	loggerService := logger.NewLoggerService(cfg.Observability)
	defer loggerService.Shutdown()

	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	srv, err := server.New(cfg, &log, loggerService)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize server")
		return err
	}

	indexCtx, cancel := context.WithTimeout(cmd.Context(), DefaultContextTimeout)
	if err := srv.DB.EnsureIndexes(indexCtx, &log); err != nil {
		log.Warn().Err(err).Msg("failed to ensure indexes")
	}
	cancel()

	repos := repository.NewRepositories(srv)
	services, err := service.NewServices(srv, repos)
	if err != nil {
		log.Error().Err(err).Msg("could not create services")
		return err
	}

	handlers := handler.NewHandlers(srv, services)
	srv.SetupHTTPServer(router.NewRouter(srv, handlers, services))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server")
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("server stopped")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultContextTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return err
	}

	log.Info().Msg("server exited properly")
	return nil
}

// Execute runs the command named by the arguments and exits non-zero on
// failure.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
