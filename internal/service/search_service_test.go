package service

import (
	"context"
	"errors"
	"testing"

	"github.com/liliang-cn/standbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(docs []*domain.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func TestSearch_FiltersSortsAndLimits(t *testing.T) {
	docs := newFakeDocs(
		&domain.Document{ID: "c", Website: "ffd", Title: "C", Embedding: []float64{1, 0}},
		&domain.Document{ID: "a", Website: "ffd", Title: "A", Embedding: []float64{1, 0}},
		&domain.Document{ID: "b", Website: "ffd", Title: "B", Embedding: []float64{0.6, 0.8}},
		&domain.Document{ID: "d", Website: "ffd", Title: "D", Embedding: []float64{0, 1}},
		&domain.Document{ID: "e", Website: "abiss", Title: "E", Embedding: []float64{1, 0}},
	)
	s := NewSearchService(docs, &fakeEmbedder{fallback: []float64{1, 0}}, nil)

	got, err := s.Search(context.Background(), "ffd", "query", 5, 0.5)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b"}, ids(got))

	got, err = s.Search(context.Background(), "ffd", "query", 2, 0.5)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids(got))

	got, err = s.Search(context.Background(), "ffd", "query", 0, 0.9)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids(got))
}

func TestSearch_FallsBackToTitleKeywords(t *testing.T) {
	docs := newFakeDocs(
		&domain.Document{ID: "oak", Website: "ffd", Title: "Oak Parquet Masters", Embedding: []float64{0, 1}},
		&domain.Document{ID: "tile", Website: "ffd", Title: "Tile World"},
		&domain.Document{ID: "both", Website: "ffd", Title: "Oak and Tile"},
	)
	s := NewSearchService(docs, &fakeEmbedder{fallback: []float64{1, 0}}, nil)

	got, err := s.Search(context.Background(), "ffd", "Where is the oak tile stand?", 5, 0.5)
	require.NoError(t, err)
	assert.Equal(t, []string{"both", "oak", "tile"}, ids(got))
}

func TestSearch_OnlyStopwordsFindsNothing(t *testing.T) {
	docs := newFakeDocs(&domain.Document{ID: "x", Website: "ffd", Title: "Where Is It"})
	s := NewSearchService(docs, &fakeEmbedder{fallback: []float64{1, 0}}, nil)

	got, err := s.Search(context.Background(), "ffd", "where is the", 5, 0.5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearch_EmbedFailure(t *testing.T) {
	s := NewSearchService(newFakeDocs(), &fakeEmbedder{err: errors.New("boom")}, nil)

	_, err := s.Search(context.Background(), "ffd", "q", 5, 0.5)
	assert.Error(t, err)
}
