// cmd/historian/main.go is an asynchronous historian service that pops engine action records
// from a Redis queue and persists them to a PostgreSQL database.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/setgame/internal/cache"
	"github.com/jason-s-yu/setgame/internal/config"
	"github.com/jason-s-yu/setgame/internal/database"
	"github.com/jason-s-yu/setgame/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

// leaderboardSize is how many top rounds are logged at startup and shutdown.
const leaderboardSize = 5

func main() {
	logger := logrus.New()
	if err := run(logger); err != nil {
		logger.Fatal(err)
	}
}

func run(logger *logrus.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger.SetLevel(cfg.Level())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer rdb.Close()

	store, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	logLeaderboard(ctx, store, logger)

	svc := historian.NewService(
		cache.NewRedisQueue(rdb, cfg.QueueName),
		store,
		historian.Options{
			BatchSize:     cfg.BatchSize,
			FlushInterval: cfg.FlushInterval(),
		},
		logger,
	)
	svc.Start(ctx)

	logger.WithFields(logrus.Fields{
		"redis": cfg.RedisAddr,
		"queue": cfg.QueueName,
	}).Info("set-historian running")

	<-ctx.Done()
	logger.Info("terminating")
	svc.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logLeaderboard(shutdownCtx, store, logger)
	return nil
}

// logLeaderboard logs the best recorded rounds. Failures are logged, not returned.
func logLeaderboard(ctx context.Context, store *database.Store, logger *logrus.Logger) {
	top, err := store.TopScores(ctx, leaderboardSize)
	if err != nil {
		logger.WithError(err).Warn("could not load top scores")
		return
	}
	for rank, r := range top {
		logger.WithFields(logrus.Fields{
			"rank":       rank + 1,
			"game_id":    r.GameID,
			"round":      r.Round,
			"score":      r.Score,
			"sets_found": r.SetsFound,
			"mismatches": r.Mismatches,
		}).Info("top round")
	}
}
