package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a document id has no persisted metadata.
var ErrNotFound = errors.New("document not found")

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// Ping checks database connectivity for the readiness probe.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateDocument persists the metadata for a freshly parsed upload.
func (s *PostgresStore) CreateDocument(ctx context.Context, doc Document) error {
	const insert = `
		INSERT INTO documents (id, user_id, name, checksum, paragraphs, content_text)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if _, err := s.db.ExecContext(ctx, insert,
		doc.ID, doc.UserID, doc.Name, doc.Checksum, doc.Paragraphs, doc.ContentText,
	); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	return nil
}

// GetDocument loads one document's metadata.
func (s *PostgresStore) GetDocument(ctx context.Context, documentID string) (Document, error) {
	const query = `
		SELECT id, user_id, name, checksum, paragraphs, content_text, created_at, updated_at
		FROM documents
		WHERE id = $1
	`

	var doc Document

	err := s.db.QueryRowContext(ctx, query, documentID).Scan(
		&doc.ID, &doc.UserID, &doc.Name, &doc.Checksum, &doc.Paragraphs,
		&doc.ContentText, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}

	if err != nil {
		return Document{}, fmt.Errorf("load document: %w", err)
	}

	return doc, nil
}

// ListDocuments returns a user's documents, most recently updated first.
// The paragraph payload is omitted from listings.
func (s *PostgresStore) ListDocuments(ctx context.Context, userID string) ([]Document, error) {
	const query = `
		SELECT id, user_id, name, checksum, created_at, updated_at
		FROM documents
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := []Document{}

	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.UserID, &doc.Name, &doc.Checksum, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}

		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return docs, nil
}

// UpdateParagraphs replaces the stored paragraph list after an export.
func (s *PostgresStore) UpdateParagraphs(ctx context.Context, documentID string, paragraphs json.RawMessage, contentText string) error {
	const update = `
		UPDATE documents
		SET paragraphs = $2, content_text = $3, updated_at = NOW()
		WHERE id = $1
	`

	res, err := s.db.ExecContext(ctx, update, documentID, paragraphs, contentText)
	if err != nil {
		return fmt.Errorf("update paragraphs: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteDocument removes a document's metadata. Only the owner's rows match.
func (s *PostgresStore) DeleteDocument(ctx context.Context, userID, documentID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE id = $1 AND user_id = $2`, documentID, userID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return nil
}
