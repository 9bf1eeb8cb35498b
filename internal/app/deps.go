package app

import (
	"context"
	"log/slog"

	"github.com/picstream/backend/internal/auth"
	"github.com/picstream/backend/internal/config"
	"github.com/picstream/backend/internal/db"
	"github.com/picstream/backend/internal/handlers"
	"github.com/picstream/backend/internal/media"
	"github.com/picstream/backend/internal/middleware"
	"github.com/picstream/backend/internal/realtime"
	"github.com/picstream/backend/internal/repositories"
	"github.com/picstream/backend/internal/storage"
)

// buildDependencies wires the concrete implementations used by the HTTP
// handlers. The returned cleanup stops the background collaborators (media
// ingestor, realtime hub) and must run after the HTTP server has drained.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, func(context.Context) error, error) {
	blobs, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}

	posts := repositories.NewPostgresPostRepository(pool)
	ingestor := media.NewIngestor(blobs, posts, media.IngestorConfig{
		QueueSize: cfg.MediaQueueSize,
		Workers:   cfg.MediaWorkers,
	}, logger)

	hub := realtime.NewHub(logger)

	signer := auth.NewTokenSigner(cfg.JWTSecret, "picstream")
	sessions := auth.NewManager(cfg.AccessTTL, cfg.RefreshTTL, signer, repositories.NewPostgresSessionStore(pool))

	cleanup := func(ctx context.Context) error {
		hub.Shutdown()
		return ingestor.Shutdown(ctx)
	}

	return handlers.Dependencies{
		Users:        repositories.NewPostgresUserRepository(pool),
		Profiles:     repositories.NewPostgresProfileRepository(pool),
		Posts:        repositories.NewCachingPostRepository(posts, cfg.FeedCacheTTL),
		Interactions: repositories.NewPostgresInteractionRepository(pool),
		Comments:     repositories.NewPostgresCommentRepository(pool),
		Follows:      repositories.NewPostgresFollowRepository(pool),
		Stories:      repositories.NewPostgresStoryRepository(pool),

		Sessions: sessions,
		Verifier: sessions,
		Ingestor: ingestor,
		Blobs:    blobs,
		Events:   hub,
		Hub:      hub,

		AuthLimiter:       middleware.NewKeyRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow, cfg.AuthRateBurst, 0),
		PasswordMinLength: cfg.PasswordMinLength,
		MaxUploadSize:     cfg.MediaMaxBytes,
	}, cleanup, nil
}
