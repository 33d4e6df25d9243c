// cmd/historian/main.go drains session actions from the Redis queue into Postgres.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/kingscup/internal/cache"
	"github.com/jason-s-yu/kingscup/internal/config"
	"github.com/jason-s-yu/kingscup/internal/database"
	"github.com/jason-s-yu/kingscup/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cobra.CheckErr(newCmd().ExecuteContext(ctx))
}

func newCmd() *cobra.Command {
	cfg := &config.Config{}

	cmd := &cobra.Command{
		Use:   "kingscup-historian",
		Short: "Persist King's Cup session actions from Redis to Postgres.",
		Args:  cobra.ExactArgs(0),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.ApplyEnv(cmd.Flags()); err != nil {
				return err
			}
			return cfg.ValidateHistorian()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cfg)
		},
	}
	config.RegisterHistorianFlags(cmd.Flags(), cfg)

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := cfg.NewLogger()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		return err
	}

	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	opts := historian.DefaultOptions()
	opts.BatchSize = cfg.BatchSize
	opts.FlushEvery = cfg.FlushEvery

	svc := historian.New(
		historian.NewRedisQueue(rdb, cfg.QueueName),
		database.NewActionStore(pool),
		opts,
		logger,
	)
	logger.WithField("queue", cfg.QueueName).Info("draining session actions")
	return svc.Run(ctx)
}
