package generation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benvon/sparkreply/internal/logger"
	"github.com/benvon/sparkreply/internal/metrics"
	"github.com/benvon/sparkreply/internal/models"
	"go.uber.org/zap"
)

// DefaultPersistTimeout bounds a single background write
const DefaultPersistTimeout = 10 * time.Second

// Sink writes results synchronously. The database and the job queue both implement it.
type Sink interface {
	PersistGeneration(ctx context.Context, g *models.Generation) error
	PersistSavedContent(ctx context.Context, item *models.SavedContent) error
}

// Recorder persists results without blocking or failing the request
type Recorder interface {
	Record(ctx context.Context, g *models.Generation)
	RecordSaved(ctx context.Context, item *models.SavedContent)
}

// GenerationStore inserts history rows into a per-type table
type GenerationStore interface {
	Create(ctx context.Context, table string, g *models.Generation) error
}

// SavedContentStore inserts saved content
type SavedContentStore interface {
	Create(ctx context.Context, item *models.SavedContent) error
}

// StoreSink writes straight to the repositories
type StoreSink struct {
	Generations GenerationStore
	Saved       SavedContentStore
}

// PersistGeneration inserts g into the table for its content type
func (s *StoreSink) PersistGeneration(ctx context.Context, g *models.Generation) error {
	spec, err := Spec(g.ContentType)
	if err != nil {
		return err
	}
	if err := s.Generations.Create(ctx, spec.Table, g); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}
	return nil
}

// PersistSavedContent inserts item
func (s *StoreSink) PersistSavedContent(ctx context.Context, item *models.SavedContent) error {
	if err := s.Saved.Create(ctx, item); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}
	return nil
}

// AsyncRecorder hands each write to a goroutine detached from the request's
// cancellation. Wait drains outstanding writes on shutdown.
type AsyncRecorder struct {
	sink    Sink
	timeout time.Duration
	logger  *zap.Logger
	metrics *metrics.Collector
	wg      sync.WaitGroup
}

// NewAsyncRecorder creates a recorder over sink
func NewAsyncRecorder(sink Sink, logger *zap.Logger, m *metrics.Collector) *AsyncRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AsyncRecorder{sink: sink, timeout: DefaultPersistTimeout, logger: logger, metrics: m}
}

// Record persists a generation in the background
func (r *AsyncRecorder) Record(ctx context.Context, g *models.Generation) {
	r.run(ctx, "generation", g.UserID.String(), string(g.ContentType), func(ctx context.Context) error {
		return r.sink.PersistGeneration(ctx, g)
	})
}

// RecordSaved persists a saved content item in the background
func (r *AsyncRecorder) RecordSaved(ctx context.Context, item *models.SavedContent) {
	r.run(ctx, "saved_content", item.UserID.String(), string(item.Type), func(ctx context.Context) error {
		return r.sink.PersistSavedContent(ctx, item)
	})
}

func (r *AsyncRecorder) run(parent context.Context, kind, userID, contentType string, write func(context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), r.timeout)
		defer cancel()

		if err := write(ctx); err != nil {
			r.metrics.RecordPersistence(kind, "failed")
			r.logger.Error("persistence_failed",
				zap.String("kind", kind),
				zap.String("user_id", userID),
				zap.String("content_type", contentType),
				zap.String("error", logger.SanitizeError(err)),
			)
			return
		}
		r.metrics.RecordPersistence(kind, "ok")
	}()
}

// Wait blocks until every pending write finishes or ctx is done
func (r *AsyncRecorder) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to drain pending writes: %w", ctx.Err())
	}
}

// NopRecorder discards every write. It is used when persistence is not configured.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, *models.Generation) {}
func (NopRecorder) RecordSaved(context.Context, *models.SavedContent) {}
