package service

import (
	"context"
	"errors"
	"testing"

	"github.com/liliang-cn/standbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const mixedExhibitors = `{
  "exhibitors": [
    {"id": "acme", "companyName": "Acme Flooring", "standNumbers": [142, "143"], "socialLinks": "https://linkedin.com/acme, https://acme.be", "websiteUrl": "https://acme.be"},
    {"name": "Beta Tiles", "stand_number": "7; #8", "raw_text": "Ceramic tiles", "source_type": "exhibitor", "website": "abiss"},
    {"title": "All exhibitors", "url": "https://www.flooringfairdays.be/exhibitors", "type": "master_list"},
    {"description": "no title here"},
    "not an object"
  ]
}`

func TestParseDocuments_NormalizesLooseFields(t *testing.T) {
	docs, problems, err := ParseDocuments("ffd", []byte(mixedExhibitors))
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Len(t, problems, 2)

	acme := docs[0]
	assert.Equal(t, "acme", acme.ID)
	assert.Equal(t, "ffd", acme.Website)
	assert.Equal(t, "Acme Flooring", acme.Title)
	assert.Equal(t, []string{"142", "143"}, acme.StandNumbers)
	assert.Equal(t, []string{"https://linkedin.com/acme", "https://acme.be"}, acme.SocialLinks)
	assert.Equal(t, "https://acme.be", acme.URL)
	assert.Equal(t, domain.SourceTypeExhibitor, acme.SourceType)

	beta := docs[1]
	assert.Equal(t, "abiss", beta.Website)
	assert.Equal(t, []string{"7", "8"}, beta.StandNumbers)
	assert.Equal(t, "Ceramic tiles", beta.RawText)

	assert.Equal(t, domain.SourceTypeMasterList, docs[2].SourceType)
}

func TestParseDocuments_TopLevelArray(t *testing.T) {
	docs, _, err := ParseDocuments("artisan", []byte(`[{"title": "Gamma", "stand": 12}]`))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "artisan", docs[0].Website)
	assert.Equal(t, []string{"12"}, docs[0].StandNumbers)
}

func TestParseDocuments_Invalid(t *testing.T) {
	_, _, err := ParseDocuments("ffd", []byte(`{"exhibitors": `))
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, _, err = ParseDocuments("ffd", []byte(`{"name": "single"}`))
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestImportJSON_EmbedsAndStores(t *testing.T) {
	docs := newFakeDocs()
	embedder := &fakeEmbedder{fallback: []float64{0.5, 0.5}}
	s := NewIngestService(docs, embedder, nil)

	result, err := s.ImportJSON(context.Background(), "ffd", []byte(mixedExhibitors))
	require.NoError(t, err)

	assert.Equal(t, 3, result.Imported)
	assert.Equal(t, 2, result.Skipped)
	assert.Len(t, embedder.calls(), 3)

	stored, err := docs.Get(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5}, stored.Embedding)
}

func TestImportJSON_StoresDocumentsThatFailToEmbed(t *testing.T) {
	docs := newFakeDocs()
	s := NewIngestService(docs, &fakeEmbedder{err: errors.New("quota")}, nil)

	result, err := s.ImportJSON(context.Background(), "ffd", []byte(`[{"id": "g", "title": "Gamma", "stand": 12}]`))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "embedding failed")

	got, err := docs.FindByStandNumber(context.Background(), "ffd", "12")
	require.NoError(t, err)
	assert.Equal(t, "g", got.ID)
}

func TestUpsertDocument(t *testing.T) {
	docs := newFakeDocs()
	s := NewIngestService(docs, &fakeEmbedder{fallback: []float64{1}}, nil)

	doc, err := s.UpsertDocument(context.Background(), &domain.UpsertDocumentRequest{
		Website:      "ABISS",
		Title:        " Delta ",
		StandNumbers: []string{"#5", "5", " 6 "},
	})
	require.NoError(t, err)
	assert.Equal(t, "abiss", doc.Website)
	assert.Equal(t, "Delta", doc.Title)
	assert.Equal(t, []string{"5", "6"}, doc.StandNumbers)
	assert.Equal(t, domain.SourceTypeExhibitor, doc.SourceType)
	assert.Equal(t, []float64{1}, doc.Embedding)

	_, err = s.UpsertDocument(context.Background(), &domain.UpsertDocumentRequest{Website: "ffd", Title: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestCoerce(t *testing.T) {
	body := `{"a": 3, "b": "4", "c": "0.7", "d": 0.25, "e": "lots", "f": null}`

	n, err := CoerceInt(gjson.Get(body, "a"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = CoerceInt(gjson.Get(body, "b"))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = CoerceInt(gjson.Get(body, "missing"))
	require.NoError(t, err)
	assert.Zero(t, n)

	f, err := CoerceFloat(gjson.Get(body, "c"))
	require.NoError(t, err)
	assert.InDelta(t, 0.7, f, 1e-9)

	f, err = CoerceFloat(gjson.Get(body, "d"))
	require.NoError(t, err)
	assert.InDelta(t, 0.25, f, 1e-9)

	f, err = CoerceFloat(gjson.Get(body, "f"))
	require.NoError(t, err)
	assert.Zero(t, f)

	_, err = CoerceInt(gjson.Get(body, "e"))
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}
