package queue

import (
	"errors"
	"time"

	"github.com/benvon/sparkreply/internal/models"
	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypePersistGeneration writes one generation row to its history table
	JobTypePersistGeneration JobType = "persist_generation"
	// JobTypePersistSavedContent writes one saved content row
	JobTypePersistSavedContent JobType = "persist_saved_content"
)

// Job is one persistence write handed from the server to the worker
type Job struct {
	ID         uuid.UUID            `json:"id"`
	Type       JobType              `json:"type"`
	UserID     uuid.UUID            `json:"user_id"`
	Generation *models.Generation   `json:"generation,omitempty"`
	Saved      *models.SavedContent `json:"saved,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
}

// NewGenerationJob wraps a generation for the worker
func NewGenerationJob(g *models.Generation) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       JobTypePersistGeneration,
		UserID:     g.UserID,
		Generation: g,
		CreatedAt:  time.Now().UTC(),
	}
}

// NewSavedContentJob wraps a saved content item for the worker
func NewSavedContentJob(item *models.SavedContent) *Job {
	return &Job{
		ID:        uuid.New(),
		Type:      JobTypePersistSavedContent,
		UserID:    item.UserID,
		Saved:     item,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks that the payload matches the job type
func (j *Job) Validate() error {
	if j.UserID == uuid.Nil {
		return errors.New("user_id is required")
	}
	switch j.Type {
	case JobTypePersistGeneration:
		if j.Generation == nil {
			return errors.New("generation payload is required")
		}
		if j.Generation.UserID != j.UserID {
			return errors.New("generation does not belong to job user")
		}
	case JobTypePersistSavedContent:
		if j.Saved == nil {
			return errors.New("saved content payload is required")
		}
		if j.Saved.UserID != j.UserID {
			return errors.New("saved content does not belong to job user")
		}
	default:
		return errors.New("unknown job type: " + string(j.Type))
	}
	return nil
}
