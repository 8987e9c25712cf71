// Package session provides storage backends for in-flight editing sessions.
//
// An editing session owns the original uploaded container, the paragraph
// identifier map, and the per-paragraph style snapshots captured at upload
// time. The four fields are always created, read, and evicted together.
package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a session was never created, already
// consumed by an export, or expired. Callers must restart from upload.
var ErrNotFound = errors.New("session not found or expired")

// Record is the unit of session state. Buffer is the original binary
// container; ParagraphMap maps paragraph id to its index in original
// document order; StyleMap holds the verbatim w:pPr snapshot per id.
type Record struct {
	Buffer       []byte            `json:"buffer"`
	ParagraphMap map[string]int    `json:"paragraphMap"`
	StyleMap     map[string]string `json:"styleMap"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// Store is the session storage contract. Put, Get, and Evict are atomic per
// key; Evict is idempotent. Sweep removes every session older than the
// backend's TTL and reports how many were evicted.
type Store interface {
	Put(ctx context.Context, documentID string, rec Record) error
	Get(ctx context.Context, documentID string) (Record, error)
	Evict(ctx context.Context, documentID string) error
	Sweep(ctx context.Context, now time.Time) int
}
