package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/liliang-cn/standbot/internal/domain"
	"github.com/liliang-cn/standbot/internal/llm"
	"github.com/sourcegraph/conc/iter"
)

// Retrieval defaults
const (
	DefaultTopK      = 5
	DefaultThreshold = 0.5
)

// SearchService finds the documents of a website that best match a query
type SearchService struct {
	docs     DocumentStore
	embedder Embedder
	phrases  *Phrases
}

// NewSearchService creates a new search service
func NewSearchService(docs DocumentStore, embedder Embedder, phrases *Phrases) *SearchService {
	if phrases == nil {
		phrases = DefaultPhrases()
	}
	return &SearchService{
		docs:     docs,
		embedder: embedder,
		phrases:  phrases,
	}
}

// Search embeds query and returns up to topK documents of website whose
// similarity is at least threshold, best first. When nothing clears the
// threshold the documents whose titles share keywords with query are returned
// instead.
func (s *SearchService) Search(ctx context.Context, website, query string, topK int, threshold float64) ([]*domain.Document, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	candidates, err := s.docs.ListWithEmbeddings(ctx, website)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	scored := iter.Map(candidates, func(doc **domain.Document) domain.ScoredDocument {
		return domain.ScoredDocument{
			Document: *doc,
			Score:    llm.CosineSimilarity(vector, (*doc).Embedding),
		}
	})

	hits := scored[:0]
	for _, sd := range scored {
		if sd.Score >= threshold {
			hits = append(hits, sd)
		}
	}
	sortScored(hits)

	if len(hits) == 0 {
		return s.keywordMatch(ctx, website, query, topK)
	}

	if len(hits) > topK {
		hits = hits[:topK]
	}
	out := make([]*domain.Document, len(hits))
	for i, h := range hits {
		out[i] = h.Document
	}
	return out, nil
}

// keywordMatch ranks documents by how many query keywords their title contains
func (s *SearchService) keywordMatch(ctx context.Context, website, query string, topK int) ([]*domain.Document, error) {
	keywords := s.phrases.Keywords(query)
	if len(keywords) == 0 {
		return nil, nil
	}

	docs, err := s.docs.List(ctx, website)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	var hits []domain.ScoredDocument
	for _, doc := range docs {
		title := strings.ToLower(doc.Title)
		matched := 0
		for _, kw := range keywords {
			if strings.Contains(title, kw) {
				matched++
			}
		}
		if matched > 0 {
			hits = append(hits, domain.ScoredDocument{Document: doc, Score: float64(matched)})
		}
	}
	sortScored(hits)

	if len(hits) > topK {
		hits = hits[:topK]
	}
	out := make([]*domain.Document, len(hits))
	for i, h := range hits {
		out[i] = h.Document
	}
	return out, nil
}

func sortScored(hits []domain.ScoredDocument) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Document.ID < hits[j].Document.ID
	})
}
