package queue

import (
	"context"
	"fmt"

	"github.com/benvon/sparkreply/internal/models"
)

// Sink hands persistence writes to the worker through the queue. It satisfies the
// generation package's Sink, so the server can swap direct writes for queued ones.
type Sink struct {
	publisher Publisher
}

// NewSink creates a queue-backed persistence sink
func NewSink(publisher Publisher) *Sink {
	return &Sink{publisher: publisher}
}

// PersistGeneration enqueues a generation write
func (s *Sink) PersistGeneration(ctx context.Context, g *models.Generation) error {
	if err := s.publisher.Enqueue(ctx, NewGenerationJob(g)); err != nil {
		return fmt.Errorf("failed to enqueue generation %s: %w", g.ID, err)
	}
	return nil
}

// PersistSavedContent enqueues a saved content write
func (s *Sink) PersistSavedContent(ctx context.Context, item *models.SavedContent) error {
	if err := s.publisher.Enqueue(ctx, NewSavedContentJob(item)); err != nil {
		return fmt.Errorf("failed to enqueue saved content %s: %w", item.ID, err)
	}
	return nil
}
