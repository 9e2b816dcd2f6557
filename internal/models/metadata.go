package models

import (
	"database/sql/driver"
	"encoding/json"
)

// Metadata is a free-form JSON object stored alongside generations and saved content
type Metadata map[string]any

// Value implements driver.Valuer for JSONB storage
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB storage
func (m *Metadata) Scan(value any) error {
	return scanJSON(value, m)
}

// String returns the string stored under key, or "" when absent or not a string.
func (m Metadata) String(key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}
