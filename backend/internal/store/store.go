package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	apperrors "mindweave/backend/pkg/errors"
	"mindweave/backend/pkg/logger"
)

// Content kinds mirrored into the graph
const (
	TypeNote = "note"
	TypeLink = "link"
	TypeFile = "file"
)

// Content is a single content row owned by a user
type Content struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	Tags      []string  `json:"tags"`
	AutoTags  []string  `json:"auto_tags"`
	CreatedAt time.Time `json:"created_at"`
}

// AllTags returns the deduplicated union of explicit and auto-generated
// tags, preserving first-seen order.
func (c *Content) AllTags() []string {
	seen := make(map[string]bool)
	var unique []string
	for _, tag := range append(append([]string{}, c.Tags...), c.AutoTags...) {
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		unique = append(unique, tag)
	}
	return unique
}

// Store is the relational+vector store of record: content rows plus
// per-content embedding vectors, backed by SQLite.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS content (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	title      TEXT NOT NULL,
	type       TEXT NOT NULL,
	tags       TEXT NOT NULL DEFAULT '[]',
	auto_tags  TEXT NOT NULL DEFAULT '[]',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_content_user ON content(user_id);

CREATE TABLE IF NOT EXISTS embeddings (
	content_id TEXT PRIMARY KEY REFERENCES content(id) ON DELETE CASCADE,
	vector     BLOB NOT NULL
);
`

// Open opens (creating if necessary) the SQLite database at path
func Open(path string) (*Store, error) {
	// The pragma rides on the DSN so every pooled connection gets it, not
	// just the one a plain Exec would hit
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, apperrors.NewStoreOpenFailed(path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, apperrors.NewStoreOpenFailed(path, err)
	}

	return &Store{
		db:     db,
		logger: logger.Named("store"),
	}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// GetContent fetches a single content row by id. Returns (nil, nil) when the
// row does not exist; deleted-before-sync is an expected race, not an error.
func (s *Store) GetContent(ctx context.Context, id string) (*Content, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, type, tags, auto_tags, created_at
		FROM content WHERE id = ?`, id)

	item, err := scanContent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStoreQueryFailed(fmt.Sprintf("get content %s", id), err)
	}
	return item, nil
}

// ListContent fetches all content rows owned by a user
func (s *Store) ListContent(ctx context.Context, userID string) ([]Content, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, type, tags, auto_tags, created_at
		FROM content WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, apperrors.NewStoreQueryFailed("list content", err)
	}
	defer rows.Close()

	var items []Content
	for rows.Next() {
		item, err := scanContent(rows)
		if err != nil {
			return nil, apperrors.NewStoreQueryFailed("scan content row", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpsertContent creates or replaces a content row
func (s *Store) UpsertContent(ctx context.Context, item *Content) error {
	tags, err := json.Marshal(sliceOrEmpty(item.Tags))
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}
	autoTags, err := json.Marshal(sliceOrEmpty(item.AutoTags))
	if err != nil {
		return fmt.Errorf("failed to encode auto tags: %w", err)
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO content (id, user_id, title, type, tags, auto_tags, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			title = excluded.title,
			type = excluded.type,
			tags = excluded.tags,
			auto_tags = excluded.auto_tags`,
		item.ID, item.UserID, item.Title, item.Type, string(tags), string(autoTags), item.CreatedAt.Unix())
	if err != nil {
		return apperrors.NewStoreQueryFailed(fmt.Sprintf("upsert content %s", item.ID), err)
	}
	return nil
}

// DeleteContent removes a content row and its embedding
func (s *Store) DeleteContent(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM content WHERE id = ?`, id); err != nil {
		return apperrors.NewStoreQueryFailed(fmt.Sprintf("delete content %s", id), err)
	}
	return nil
}

// UpsertEmbedding stores the embedding vector for a content row
func (s *Store) UpsertEmbedding(ctx context.Context, contentID string, vector []float32) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO embeddings (content_id, vector) VALUES (?, ?)
		ON CONFLICT(content_id) DO UPDATE SET vector = excluded.vector`,
		contentID, encodeVector(vector))
	if err != nil {
		return apperrors.NewStoreQueryFailed(fmt.Sprintf("upsert embedding for %s", contentID), err)
	}
	return nil
}

// GetEmbedding fetches the embedding vector for a content row. Returns
// (nil, nil) when no embedding exists yet, since embeddings may lag content
// creation.
func (s *Store) GetEmbedding(ctx context.Context, contentID string) ([]float32, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT vector FROM embeddings WHERE content_id = ?`, contentID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStoreQueryFailed(fmt.Sprintf("get embedding for %s", contentID), err)
	}
	return decodeVector(blob), nil
}

// ListMissingEmbeddings returns content rows that have no embedding yet
func (s *Store) ListMissingEmbeddings(ctx context.Context) ([]Content, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.user_id, c.title, c.type, c.tags, c.auto_tags, c.created_at
		FROM content c
		LEFT JOIN embeddings e ON e.content_id = c.id
		WHERE e.content_id IS NULL
		ORDER BY c.created_at`)
	if err != nil {
		return nil, apperrors.NewStoreQueryFailed("list missing embeddings", err)
	}
	defer rows.Close()

	var items []Content
	for rows.Next() {
		item, err := scanContent(rows)
		if err != nil {
			return nil, apperrors.NewStoreQueryFailed("scan content row", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContent(row rowScanner) (*Content, error) {
	var item Content
	var tags, autoTags string
	var createdAt int64
	if err := row.Scan(&item.ID, &item.UserID, &item.Title, &item.Type, &tags, &autoTags, &createdAt); err != nil {
		return nil, err
	}
	item.CreatedAt = time.Unix(createdAt, 0).UTC()
	if err := json.Unmarshal([]byte(tags), &item.Tags); err != nil {
		item.Tags = nil
	}
	if err := json.Unmarshal([]byte(autoTags), &item.AutoTags); err != nil {
		item.AutoTags = nil
	}
	return &item, nil
}

func sliceOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
