package app

import (
	"context"
	"log/slog"

	"github.com/polascin/renaltales-backend/internal/adapter/postgres"
	"github.com/polascin/renaltales-backend/internal/adapter/postgres/category"
	"github.com/polascin/renaltales-backend/internal/adapter/postgres/comment"
	"github.com/polascin/renaltales-backend/internal/adapter/postgres/loader"
	"github.com/polascin/renaltales-backend/internal/adapter/postgres/record"
	"github.com/polascin/renaltales-backend/internal/adapter/postgres/story"
	"github.com/polascin/renaltales-backend/internal/adapter/postgres/storycontent"
	"github.com/polascin/renaltales-backend/internal/adapter/postgres/storyrevision"
	"github.com/polascin/renaltales-backend/internal/adapter/postgres/user"
	"github.com/polascin/renaltales-backend/internal/config"
)

// Store holds every repository, all sharing one connection source.
type Store struct {
	Tx         *postgres.TxManager
	Users      *user.Repo
	Categories *category.Repo
	Stories    *story.Repo
	Contents   *storycontent.Repo
	Revisions  *storyrevision.Repo
	Comments   *comment.Repo

	// Preload batch parameters for loader.BelongsTo and loader.HasMany.
	Preload loader.Settings
}

// NewStore builds the repositories over db.
func NewStore(db postgres.DB, cfg *config.Config, logger *slog.Logger) *Store {
	opts := record.Options{
		Logger:       logger,
		QueryTimeout: cfg.Persistence.QueryTimeout,
	}
	return &Store{
		Tx:         postgres.NewTxManager(db, logger),
		Users:      user.New(db, cfg.Security, opts),
		Categories: category.New(db, opts),
		Stories:    story.New(db, opts),
		Contents:   storycontent.New(db, opts),
		Revisions:  storyrevision.New(db, opts),
		Comments:   comment.New(db, opts),
		Preload:    loader.NewSettings(cfg.Persistence),
	}
}

// Open connects to the database and builds the store. The returned func
// closes the pool.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, func(), error) {
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("database connected",
		slog.String("version", BuildVersion()),
		slog.Int("max_conns", int(pool.Config().MaxConns)),
	)
	return NewStore(pool, cfg, logger), pool.Close, nil
}
