package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/wiregraph/internal/ir"
)

// Revision describes one stored document body.
type Revision struct {
	ID          int64  `json:"id"`
	DocumentID  string `json:"document_id"`
	Seq         int64  `json:"seq"`
	ContentHash string `json:"content_hash"`
	NodeCount   int    `json:"node_count"`
	LinkCount   int    `json:"link_count"`
}

// SaveRevision stores doc as the next revision of documentID.
// Returns the revision and whether a new record was inserted.
//
// Uses ON CONFLICT(document_id, content_hash) DO NOTHING: saving content
// already stored under this document returns the existing revision and
// inserted=false.
func (s *Store) SaveRevision(ctx context.Context, documentID string, doc *ir.Document) (rev Revision, inserted bool, err error) {
	if doc == nil || doc.Nodes == nil {
		return Revision{}, false, fmt.Errorf("save revision: %w", ir.ErrMalformedDocument)
	}
	hash, err := ir.DocumentHash(doc)
	if err != nil {
		return Revision{}, false, fmt.Errorf("save revision: %w", err)
	}
	body, err := ir.MarshalCanonical(doc)
	if err != nil {
		return Revision{}, false, fmt.Errorf("save revision: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Revision{}, false, fmt.Errorf("save revision: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE id = ?`, documentID).Scan(&exists); err != nil {
		return Revision{}, false, fmt.Errorf("save revision: %w", err)
	}
	if exists == 0 {
		return Revision{}, false, fmt.Errorf("document %s: %w", documentID, ErrNotFound)
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) + 1 FROM revisions WHERE document_id = ?
	`, documentID).Scan(&seq); err != nil {
		return Revision{}, false, fmt.Errorf("save revision: next seq: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO revisions
		(document_id, seq, content_hash, body, node_count, link_count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id, content_hash) DO NOTHING
	`,
		documentID,
		seq,
		hash,
		string(body),
		len(doc.Nodes),
		len(doc.Links),
	)
	if err != nil {
		return Revision{}, false, fmt.Errorf("save revision: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Revision{}, false, fmt.Errorf("save revision: rows affected: %w", err)
	}

	rev, err = scanRevision(tx.QueryRowContext(ctx, `
		SELECT id, document_id, seq, content_hash, node_count, link_count
		FROM revisions
		WHERE document_id = ? AND content_hash = ?
	`, documentID, hash))
	if err != nil {
		return Revision{}, false, fmt.Errorf("save revision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Revision{}, false, fmt.Errorf("save revision: commit: %w", err)
	}

	inserted = affected > 0
	s.logger.Info("revision saved",
		"document_id", documentID,
		"seq", rev.Seq,
		"inserted", inserted)
	return rev, inserted, nil
}

// LoadLatest returns the newest revision of a document.
func (s *Store) LoadLatest(ctx context.Context, documentID string) (*ir.Document, Revision, error) {
	return s.loadOne(ctx, `
		SELECT id, document_id, seq, content_hash, node_count, link_count, body
		FROM revisions
		WHERE document_id = ?
		ORDER BY seq DESC
		LIMIT 1
	`, documentID)
}

// LoadRevision returns one revision of a document by seq.
func (s *Store) LoadRevision(ctx context.Context, documentID string, seq int64) (*ir.Document, Revision, error) {
	return s.loadOne(ctx, `
		SELECT id, document_id, seq, content_hash, node_count, link_count, body
		FROM revisions
		WHERE document_id = ? AND seq = ?
	`, documentID, seq)
}

func (s *Store) loadOne(ctx context.Context, query string, args ...any) (*ir.Document, Revision, error) {
	var (
		rev  Revision
		body string
	)
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&rev.ID, &rev.DocumentID, &rev.Seq, &rev.ContentHash, &rev.NodeCount, &rev.LinkCount, &body,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Revision{}, fmt.Errorf("revision of %v: %w", args[0], ErrNotFound)
	}
	if err != nil {
		return nil, Revision{}, fmt.Errorf("load revision: %w", err)
	}

	doc, err := ir.ParseDocument([]byte(body))
	if err != nil {
		return nil, Revision{}, fmt.Errorf("load revision %d: %w", rev.Seq, err)
	}
	return doc, rev, nil
}

// ListRevisions returns a document's revisions in seq order.
// Returns an empty slice (not nil) if none exist.
func (s *Store) ListRevisions(ctx context.Context, documentID string) ([]Revision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, seq, content_hash, node_count, link_count
		FROM revisions
		WHERE document_id = ?
		ORDER BY seq ASC
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("query revisions: %w", err)
	}
	defer rows.Close()

	revs := []Revision{}
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, err
		}
		revs = append(revs, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions: %w", err)
	}
	return revs, nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRevision(row scanner) (Revision, error) {
	var rev Revision
	if err := row.Scan(&rev.ID, &rev.DocumentID, &rev.Seq, &rev.ContentHash, &rev.NodeCount, &rev.LinkCount); err != nil {
		return Revision{}, fmt.Errorf("scan revision: %w", err)
	}
	return rev, nil
}
