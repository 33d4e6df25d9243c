// cmd/server/serve.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jason-s-yu/kingscup/internal/cache"
	"github.com/jason-s-yu/kingscup/internal/catalog"
	"github.com/jason-s-yu/kingscup/internal/config"
	"github.com/jason-s-yu/kingscup/internal/database"
	"github.com/jason-s-yu/kingscup/internal/handlers"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

func newCmd() *cobra.Command {
	cfg := &config.Config{}

	cmd := &cobra.Command{
		Use:     "kingscup",
		Short:   "Realtime session server for the King's Cup drinking game.",
		Args:    cobra.ExactArgs(0),
		Version: releaseVersion,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.ApplyEnv(cmd.Flags()); err != nil {
				return err
			}
			return cfg.Validate()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), cfg)
		},
	}
	config.RegisterServerFlags(cmd.Flags(), cfg)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("kingscup v{{.Version}}\n")
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := cfg.NewLogger()

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	logger.WithField("cards", cat.Size()).Info("catalog loaded")

	gs := handlers.NewGameServer(logger, cat)
	gs.Options = handlers.Options{
		OutboundQueueSize: cfg.OutboundQueue,
		PingInterval:      cfg.PingInterval,
		WriteTimeout:      cfg.WriteTimeout,
		RateLimit:         rate.Limit(cfg.RateLimit),
		RateBurst:         cfg.RateBurst,
		PublicURL:         cfg.PublicURL,
		ImageDir:          cfg.ImageDir,
	}

	if cfg.DatabaseURL != "" {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := database.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		gs.Decks = database.NewDeckStore(pool)
		logger.Info("custom deck storage enabled")
	}

	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		gs.Recorder = cache.NewActionPublisher(rdb, cfg.QueueName)
		logger.WithField("queue", cfg.QueueName).Info("session action log enabled")
	}

	// request contexts, websocket loops included, end when baseCtx is cancelled
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handlers.NewRouter(logger, gs),
		IdleTimeout:       10 * time.Minute,
		ReadHeaderTimeout: cfg.ReadTimeout,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	errs := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s://%s/", cfg.Scheme(), srv.Addr)
		var err error
		if cfg.Scheme() == "https" {
			err = srv.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		if err != nil {
			return fmt.Errorf("server exited: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	cancelBase()
	if err != nil {
		logger.WithError(err).Warn("graceful shutdown incomplete")
	}
	logger.WithFields(logrus.Fields{"sessions": gs.Sessions.Len()}).Info("server stopped")
	return nil
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.CatalogFile == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.LoadFile(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return cat, nil
}
