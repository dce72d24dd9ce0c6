package domain

import "time"

// Source types for exhibitor documents
const (
	SourceTypeExhibitor  = "exhibitor"
	SourceTypeMasterList = "master_list"
	SourceTypePage       = "page"
)

// Document is a retrieval unit: one exhibitor, page or master list.
// Cached copies are read-mostly snapshots and may go stale.
type Document struct {
	ID           string    `json:"id"`
	Website      string    `json:"website"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	URL          string    `json:"url,omitempty"`
	SocialLinks  []string  `json:"social_links,omitempty"`
	StandNumbers []string  `json:"stand_numbers,omitempty"`
	RawText      string    `json:"raw_text,omitempty"`
	SourceType   string    `json:"source_type,omitempty"`
	Embedding    []float64 `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasStandNumber reports whether the document occupies the given stand.
func (d *Document) HasStandNumber(number string) bool {
	for _, n := range d.StandNumbers {
		if n == number {
			return true
		}
	}
	return false
}

// EmbeddingText is the text that gets embedded for similarity search
func (d *Document) EmbeddingText() string {
	text := d.Title
	if d.Description != "" {
		text += "\n" + d.Description
	}
	if d.RawText != "" {
		text += "\n" + d.RawText
	}
	return text
}

// ScoredDocument is a similarity search hit
type ScoredDocument struct {
	Document *Document `json:"document"`
	Score    float64   `json:"score"`
}

// UpsertDocumentRequest is the admin request to create or replace a document
type UpsertDocumentRequest struct {
	ID           string   `json:"id,omitempty"`
	Website      string   `json:"website" binding:"required"`
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description,omitempty"`
	URL          string   `json:"url,omitempty"`
	SocialLinks  []string `json:"social_links,omitempty"`
	StandNumbers []string `json:"stand_numbers,omitempty"`
	RawText      string   `json:"raw_text,omitempty"`
	SourceType   string   `json:"source_type,omitempty"`
}

// DocumentListResponse is the response for listing documents
type DocumentListResponse struct {
	Documents []*Document `json:"documents"`
	Total     int         `json:"total"`
	Page      int         `json:"page"`
	PageSize  int         `json:"page_size"`
}

// ImportResult summarizes a bulk import
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}
