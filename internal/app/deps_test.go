package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/picstream/backend/internal/config"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Close() {}

func TestBuildDependencies(t *testing.T) {
	cfg := config.Config{
		JWTSecret:      "test-secret",
		AccessTTL:      time.Minute,
		RefreshTTL:     time.Hour,
		AuthRateLimit:  10,
		AuthRateWindow: time.Minute,
		AuthRateBurst:  5,
		FeedCacheTTL:   time.Second,
		MediaQueueSize: 1,
		MediaWorkers:   1,
		MediaMaxBytes:  1 << 20,
		ObjectStore:    config.ObjectStoreConfig{Bucket: "test-bucket", Endpoint: "http://localhost:9000", Region: "us-east-1"},
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps, cleanup, err := buildDependencies(context.Background(), fakePool{}, cfg, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleanup == nil {
		t.Fatal("expected cleanup function")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = cleanup(ctx)
	}()

	if deps.Users == nil {
		t.Fatal("expected user repository to be configured")
	}
	if deps.Profiles == nil {
		t.Fatal("expected profile repository to be configured")
	}
	if deps.Posts == nil {
		t.Fatal("expected post repository to be configured")
	}
	if deps.Interactions == nil {
		t.Fatal("expected interaction repository to be configured")
	}
	if deps.Comments == nil {
		t.Fatal("expected comment repository to be configured")
	}
	if deps.Follows == nil {
		t.Fatal("expected follow repository to be configured")
	}
	if deps.Stories == nil {
		t.Fatal("expected story repository to be configured")
	}
	if deps.Sessions == nil || deps.Verifier == nil {
		t.Fatal("expected session manager to be configured")
	}
	if deps.Ingestor == nil {
		t.Fatal("expected media ingestor to be configured")
	}
	if deps.Blobs == nil {
		t.Fatal("expected blob storage to be configured")
	}
	if deps.Events == nil || deps.Hub == nil {
		t.Fatal("expected realtime hub to be configured")
	}
	if deps.AuthLimiter == nil {
		t.Fatal("expected auth rate limiter to be configured")
	}
}
