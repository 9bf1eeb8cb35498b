package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/picstream/backend/internal/repositories"
)

// BlobStorage persists uploaded media bytes and returns a public location.
type BlobStorage interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// IngestorConfig controls the concurrency characteristics of the ingestor.
type IngestorConfig struct {
	QueueSize int
	Workers   int
}

// Ingestor asynchronously persists uploaded images to blob storage and
// records the outcome on the owning post. Posts stay in media_status
// 'pending' until a worker finishes, so half-ingested media never reaches a
// feed.
type Ingestor struct {
	storage BlobStorage
	updater repositories.MediaStatusUpdater
	logger  *slog.Logger

	jobs   chan ingestJob
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

type ingestJob struct {
	postID      string
	contentType string
	data        []byte
}

var errIngestorClosed = errors.New("media ingestor closed")

// NewIngestor constructs a background worker pool that persists media.
func NewIngestor(storage BlobStorage, updater repositories.MediaStatusUpdater, cfg IngestorConfig, logger *slog.Logger) *Ingestor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	ing := &Ingestor{
		storage: storage,
		updater: updater,
		logger:  logger,
		jobs:    make(chan ingestJob, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	ing.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go ing.worker()
	}

	return ing
}

// Enqueue schedules persistence of the post's image bytes.
func (i *Ingestor) Enqueue(ctx context.Context, postID, contentType string, data []byte) error {
	if _, err := ExtensionFor(contentType); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-i.ctx.Done():
		return errIngestorClosed
	default:
	}

	job := ingestJob{postID: postID, contentType: contentType, data: data}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-i.ctx.Done():
		return errIngestorClosed
	case i.jobs <- job:
		return nil
	}
}

// Shutdown waits for the worker pool to drain outstanding jobs.
func (i *Ingestor) Shutdown(ctx context.Context) error {
	i.once.Do(func() {
		i.cancel()
		close(i.jobs)
	})

	done := make(chan struct{})
	go func() {
		i.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (i *Ingestor) worker() {
	defer i.wg.Done()

	for job := range i.jobs {
		i.handleJob(job)
	}
}

func (i *Ingestor) handleJob(job ingestJob) {
	if i.storage == nil || i.updater == nil {
		i.logger.Error("media ingestor missing dependencies", "hasStorage", i.storage != nil, "hasUpdater", i.updater != nil)
		return
	}

	saveCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	ext, err := ExtensionFor(job.contentType)
	if err != nil {
		i.logger.Error("media ingestion rejected", "postId", job.postID, "contentType", job.contentType)
		i.recordFailure(job.postID)
		return
	}

	key := objectKey("posts", job.postID, ext)
	location, err := i.storage.Save(saveCtx, key, job.contentType, bytes.NewReader(job.data))
	if err != nil {
		i.logger.Error("media ingestion failed", "postId", job.postID, "error", err)
		i.recordFailure(job.postID)
		return
	}

	if err := i.recordSuccess(job.postID, location); err != nil {
		i.logger.Error("mark media ready", "postId", job.postID, "error", err)
		i.recordFailure(job.postID)
	}
}

func (i *Ingestor) recordFailure(postID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := i.updater.MarkMediaFailed(ctx, postID); err != nil {
		i.logger.Error("record media failure", "postId", postID, "error", err)
	}
}

func (i *Ingestor) recordSuccess(postID, location string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return i.updater.MarkMediaReady(ctx, postID, location)
}

func objectKey(prefix, id, ext string) string {
	key := path.Join(prefix, fmt.Sprintf("%s%s", id, ext))
	return strings.TrimLeft(key, "/")
}
