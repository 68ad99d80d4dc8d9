// Command cleanup physically removes soft-deleted comments older than the
// configured retention period. It is intended to be invoked by an external
// cron job, not as an in-process goroutine.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/polascin/renaltales-backend/internal/app"
	"github.com/polascin/renaltales-backend/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, closeDB, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeDB()

	retention := time.Duration(cfg.Comments.PurgeRetentionDays) * 24 * time.Hour

	purged, err := store.Comments.PurgeOlderThan(ctx, retention)
	if err != nil {
		logger.Error("comment purge failed",
			slog.String("error", err.Error()),
			slog.Duration("retention", retention),
		)
		closeDB()
		os.Exit(1)
	}

	logger.Info("comment purge completed",
		slog.Int64("purged", purged),
		slog.Duration("retention", retention),
	)
}
