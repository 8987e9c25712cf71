package store

import (
	"encoding/json"
	"time"
)

// Document is the persisted metadata for one uploaded document. Paragraphs
// holds the extracted paragraph list as JSON; ContentText is the joined
// plain text kept for full-text search.
type Document struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Name        string          `json:"name"`
	Checksum    string          `json:"checksum"`
	Paragraphs  json.RawMessage `json:"paragraphs"`
	ContentText string          `json:"-"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
