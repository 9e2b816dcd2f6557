package workers

import (
	"context"
	"fmt"
	"time"

	logpkg "github.com/benvon/sparkreply/internal/logger"
	"github.com/benvon/sparkreply/internal/metrics"
	"github.com/benvon/sparkreply/internal/models"
	"github.com/benvon/sparkreply/internal/queue"
	"go.uber.org/zap"
)

// DefaultJobTimeout bounds a single persistence write
const DefaultJobTimeout = 10 * time.Second

// Store performs the actual writes. generation.StoreSink satisfies it.
type Store interface {
	PersistGeneration(ctx context.Context, g *models.Generation) error
	PersistSavedContent(ctx context.Context, item *models.SavedContent) error
}

// JobProcessor handles one decoded job
type JobProcessor func(ctx context.Context, job *queue.Job) error

// Persister drains persistence jobs into the store
type Persister struct {
	store    Store
	logger   *zap.Logger
	metrics  *metrics.Collector
	timeout  time.Duration
	registry map[queue.JobType]JobProcessor
}

// NewPersister creates a persister and registers the generation and saved content processors
func NewPersister(store Store, logger *zap.Logger, m *metrics.Collector) *Persister {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Persister{
		store:    store,
		logger:   logger,
		metrics:  m,
		timeout:  DefaultJobTimeout,
		registry: make(map[queue.JobType]JobProcessor),
	}
	p.RegisterProcessor(queue.JobTypePersistGeneration, p.persistGeneration)
	p.RegisterProcessor(queue.JobTypePersistSavedContent, p.persistSavedContent)
	return p
}

// RegisterProcessor registers a processor for a job type.
func (p *Persister) RegisterProcessor(typ queue.JobType, proc JobProcessor) {
	p.registry[typ] = proc
}

func (p *Persister) persistGeneration(ctx context.Context, job *queue.Job) error {
	return p.store.PersistGeneration(ctx, job.Generation)
}

func (p *Persister) persistSavedContent(ctx context.Context, job *queue.Job) error {
	return p.store.PersistSavedContent(ctx, job.Saved)
}

// ProcessJob runs the processor for the message's job type. Failed and unknown jobs
// are dead-lettered; there is no redelivery.
func (p *Persister) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()
	jobID := job.ID.String()

	proc, ok := p.registry[job.Type]
	if !ok {
		p.metrics.RecordQueueJob(string(job.Type), "unknown")
		if nackErr := msg.Nack(false); nackErr != nil {
			p.logger.Error("failed_to_nack_unknown_job_type",
				zap.String("job_id", jobID),
				zap.String("job_type", string(job.Type)),
				zap.String("error", logpkg.SanitizeError(nackErr)),
			)
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := proc(ctx, job); err != nil {
		p.metrics.RecordQueueJob(string(job.Type), "failed")
		p.logger.Error("persistence_job_failed",
			zap.String("job_id", jobID),
			zap.String("job_type", string(job.Type)),
			zap.String("user_id", job.UserID.String()),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		if nackErr := msg.Nack(false); nackErr != nil {
			p.logger.Warn("failed_to_nack_persistence_job",
				zap.String("job_id", jobID),
				zap.String("error", logpkg.SanitizeError(nackErr)),
			)
		}
		return fmt.Errorf("persistence job failed: %w", err)
	}

	p.metrics.RecordQueueJob(string(job.Type), "ok")
	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack persistence job: %w", ackErr)
	}
	p.logger.Debug("persistence_job_done",
		zap.String("job_id", jobID),
		zap.String("job_type", string(job.Type)),
	)
	return nil
}

// Run processes messages until the channel closes or ctx is cancelled. Errors from
// individual jobs are already logged and do not stop the loop.
func (p *Persister) Run(ctx context.Context, messages <-chan *queue.Message, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			p.logger.Error("queue_error", zap.String("error", logpkg.SanitizeError(err)))
		case msg, ok := <-messages:
			if !ok {
				p.logger.Info("message_channel_closed")
				return
			}
			_ = p.ProcessJob(ctx, msg)
		}
	}
}
