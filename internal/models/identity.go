package models

import "github.com/google/uuid"

// Identity is the authenticated caller. UserID is the owner id for every persisted row.
type Identity struct {
	UserID  uuid.UUID `json:"user_id"`
	Subject string    `json:"subject"`
	Email   string    `json:"email,omitempty"`
	Name    string    `json:"name,omitempty"`
}
