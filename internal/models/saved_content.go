package models

import (
	"time"

	"github.com/google/uuid"
)

// SavedContent is an item the user explicitly kept from a generation
type SavedContent struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"user_id"`
	Type      ContentType `json:"type"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	Metadata  Metadata    `json:"metadata,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// SavedContentPatch carries the mutable fields of a saved item
type SavedContentPatch struct {
	Title    *string  `json:"title,omitempty" validate:"omitempty,max=200"`
	Content  *string  `json:"content,omitempty" validate:"omitempty,min=1,max=5000"`
	Metadata Metadata `json:"metadata,omitempty"`
}
