package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/liliang-cn/standbot/internal/domain"
)

const documentColumns = `id, website, title, description, url, social_links, stand_numbers,
	raw_text, source_type, embedding, created_at, updated_at`

// queryableFields maps QueryByField names to columns
var queryableFields = map[string]string{
	"title":       "title",
	"url":         "url",
	"source_type": "source_type",
	"sourceType":  "source_type",
}

// DocumentRepository handles document persistence
type DocumentRepository struct {
	db *DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Upsert creates a document or replaces the stored copy
func (r *DocumentRepository) Upsert(ctx context.Context, doc *domain.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	now := time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	socialJSON, _ := json.Marshal(doc.SocialLinks)
	standsJSON, _ := json.Marshal(doc.StandNumbers)
	var embedding sql.NullString
	if len(doc.Embedding) > 0 {
		b, err := json.Marshal(doc.Embedding)
		if err != nil {
			return fmt.Errorf("failed to encode embedding: %w", err)
		}
		embedding = sql.NullString{String: string(b), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			website = excluded.website,
			title = excluded.title,
			description = excluded.description,
			url = excluded.url,
			social_links = excluded.social_links,
			stand_numbers = excluded.stand_numbers,
			raw_text = excluded.raw_text,
			source_type = excluded.source_type,
			embedding = COALESCE(excluded.embedding, documents.embedding),
			updated_at = excluded.updated_at
	`, doc.ID, doc.Website, doc.Title, doc.Description, doc.URL, string(socialJSON),
		string(standsJSON), doc.RawText, doc.SourceType, embedding, doc.CreatedAt, doc.UpdatedAt)

	return err
}

// Get retrieves a document by ID
func (r *DocumentRepository) Get(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	return scanDocument(row)
}

// FindByURL returns the document of website published at url
func (r *DocumentRepository) FindByURL(ctx context.Context, website, url string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE website = ? AND url = ?
		ORDER BY updated_at DESC LIMIT 1
	`, website, url)
	return scanDocument(row)
}

// FindByStandNumber returns the first document of website listing the stand number
func (r *DocumentRepository) FindByStandNumber(ctx context.Context, website, number string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE website = ?
		  AND EXISTS (SELECT 1 FROM json_each(documents.stand_numbers) WHERE json_each.value = ?)
		ORDER BY title ASC LIMIT 1
	`, website, number)
	return scanDocument(row)
}

// QueryByField returns the documents of website whose field equals value.
// Only title, url and source_type can be queried.
func (r *DocumentRepository) QueryByField(ctx context.Context, website, field, value string) ([]*domain.Document, error) {
	column, ok := queryableFields[field]
	if !ok {
		return nil, fmt.Errorf("%w: field %q is not queryable", domain.ErrInvalidRequest, field)
	}
	return r.query(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE website = ? AND `+column+` = ?
		ORDER BY title ASC
	`, website, value)
}

// List retrieves all documents of website, or every document when website is empty
func (r *DocumentRepository) List(ctx context.Context, website string) ([]*domain.Document, error) {
	if website == "" {
		return r.query(ctx, `SELECT `+documentColumns+` FROM documents ORDER BY website, title`)
	}
	return r.query(ctx, `SELECT `+documentColumns+` FROM documents WHERE website = ? ORDER BY title`, website)
}

// ListWithEmbeddings retrieves the documents of website that can take part in similarity search
func (r *DocumentRepository) ListWithEmbeddings(ctx context.Context, website string) ([]*domain.Document, error) {
	return r.query(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE website = ? AND embedding IS NOT NULL AND embedding != ''
	`, website)
}

// Delete deletes a document
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Count returns the number of stored documents
func (r *DocumentRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

func (r *DocumentRepository) query(ctx context.Context, q string, args ...any) ([]*domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	doc := &domain.Document{}
	var description, url, social, stands, rawText, sourceType, embedding sql.NullString

	err := row.Scan(&doc.ID, &doc.Website, &doc.Title, &description, &url, &social, &stands,
		&rawText, &sourceType, &embedding, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	doc.Description = description.String
	doc.URL = url.String
	doc.RawText = rawText.String
	doc.SourceType = sourceType.String
	if social.Valid && social.String != "" {
		json.Unmarshal([]byte(social.String), &doc.SocialLinks)
	}
	if stands.Valid && stands.String != "" {
		json.Unmarshal([]byte(stands.String), &doc.StandNumbers)
	}
	if embedding.Valid && embedding.String != "" {
		if err := json.Unmarshal([]byte(embedding.String), &doc.Embedding); err != nil {
			return nil, fmt.Errorf("failed to decode embedding of %s: %w", doc.ID, err)
		}
	}

	return doc, nil
}
