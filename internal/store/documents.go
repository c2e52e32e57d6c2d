package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Document is a named entry in the library.
type Document struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Seq  int64  `json:"seq"`
}

// CreateDocument inserts a new, empty document entry.
func (s *Store) CreateDocument(ctx context.Context, name string) (Document, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Document{}, fmt.Errorf("create document: empty name")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Document{}, fmt.Errorf("create document: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM documents`).Scan(&seq); err != nil {
		return Document{}, fmt.Errorf("create document: next seq: %w", err)
	}

	doc := Document{ID: s.ids.Generate(), Name: name, Seq: seq}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO documents (id, name, seq)
		VALUES (?, ?, ?)
	`, doc.ID, doc.Name, doc.Seq); err != nil {
		return Document{}, fmt.Errorf("create document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Document{}, fmt.Errorf("create document: commit: %w", err)
	}
	s.logger.Info("document created", "id", doc.ID, "name", doc.Name)
	return doc, nil
}

// GetDocument returns one document entry.
func (s *Store) GetDocument(ctx context.Context, id string) (Document, error) {
	var doc Document
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, seq FROM documents WHERE id = ?
	`, id).Scan(&doc.ID, &doc.Name, &doc.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// FindDocument returns the oldest document with the given name.
func (s *Store) FindDocument(ctx context.Context, name string) (Document, error) {
	var doc Document
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, seq FROM documents
		WHERE name = ?
		ORDER BY seq ASC
		LIMIT 1
	`, strings.TrimSpace(name)).Scan(&doc.ID, &doc.Name, &doc.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("document %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("find document: %w", err)
	}
	return doc, nil
}

// ListDocuments returns every document in creation order.
// Returns an empty slice (not nil) when the library is empty.
func (s *Store) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, seq FROM documents
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Name, &d.Seq); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes a document and, by cascade, its revisions.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	s.logger.Info("document deleted", "id", id)
	return nil
}
