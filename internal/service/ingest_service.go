package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/liliang-cn/standbot/internal/domain"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cast"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const embedWorkers = 4

// Alternative spellings of each document field in imported JSON
var (
	idKeys          = []string{"id", "_id"}
	websiteKeys     = []string{"website", "site"}
	titleKeys       = []string{"title", "name", "companyName", "company_name", "company"}
	descriptionKeys = []string{"description", "desc", "summary"}
	urlKeys         = []string{"url", "link", "websiteUrl", "website_url"}
	socialKeys      = []string{"socialLinks", "social_links", "socials", "social"}
	standKeys       = []string{"standNumbers", "stand_numbers", "standNumber", "stand_number", "stands", "stand", "booth"}
	rawTextKeys     = []string{"rawText", "raw_text", "text", "content"}
	sourceTypeKeys  = []string{"sourceType", "source_type", "type"}
)

// IngestService normalizes, embeds and stores exhibitor documents
type IngestService struct {
	docs     DocumentStore
	embedder Embedder
	logger   *zap.Logger
}

// NewIngestService creates a new ingest service
func NewIngestService(docs DocumentStore, embedder Embedder, logger *zap.Logger) *IngestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestService{
		docs:     docs,
		embedder: embedder,
		logger:   logger,
	}
}

// UpsertDocument embeds and stores a single document
func (s *IngestService) UpsertDocument(ctx context.Context, req *domain.UpsertDocumentRequest) (*domain.Document, error) {
	doc := &domain.Document{
		ID:           req.ID,
		Website:      domain.NormalizeWebsite(req.Website),
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		URL:          strings.TrimSpace(req.URL),
		SocialLinks:  req.SocialLinks,
		StandNumbers: normalizeStands(req.StandNumbers),
		RawText:      req.RawText,
		SourceType:   req.SourceType,
	}
	if doc.Title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidRequest)
	}
	if doc.SourceType == "" {
		doc.SourceType = domain.SourceTypeExhibitor
	}

	if s.embedder != nil {
		vector, err := s.embedder.Embed(ctx, doc.EmbeddingText())
		if err != nil {
			return nil, fmt.Errorf("failed to embed document: %w", err)
		}
		doc.Embedding = vector
	}

	if err := s.docs.Upsert(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}
	return doc, nil
}

// ImportJSON stores every document found in data. Documents that fail to
// embed are still stored so stand lookups find them; the failure is reported
// in the result.
func (s *IngestService) ImportJSON(ctx context.Context, website string, data []byte) (*domain.ImportResult, error) {
	docs, problems, err := ParseDocuments(website, data)
	if err != nil {
		return nil, err
	}
	result := &domain.ImportResult{Skipped: len(problems), Errors: problems}

	if s.embedder != nil {
		embedErrs := make([]error, len(docs))
		p := pool.New().WithMaxGoroutines(embedWorkers)
		for i, doc := range docs {
			p.Go(func() {
				vector, err := s.embedder.Embed(ctx, doc.EmbeddingText())
				if err != nil {
					embedErrs[i] = err
					return
				}
				doc.Embedding = vector
			})
		}
		p.Wait()

		for i, err := range embedErrs {
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: embedding failed: %v", docs[i].Title, err))
			}
		}
	}

	for _, doc := range docs {
		if err := s.docs.Upsert(ctx, doc); err != nil {
			s.logger.Warn("Failed to import document",
				zap.String("title", doc.Title),
				zap.Error(err),
			)
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", doc.Title, err))
			continue
		}
		result.Imported++
	}

	s.logger.Info("Imported documents",
		zap.String("website", website),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// ParseDocuments decodes loosely-typed exhibitor JSON: either an array or an
// object holding one under "exhibitors", "documents" or "data". Entries
// without a title are skipped and reported.
func ParseDocuments(website string, data []byte) ([]*domain.Document, []string, error) {
	if !gjson.ValidBytes(data) {
		return nil, nil, fmt.Errorf("%w: malformed JSON", domain.ErrInvalidRequest)
	}

	root := gjson.ParseBytes(data)
	if root.IsObject() {
		for _, key := range []string{"exhibitors", "documents", "data"} {
			if v := root.Get(key); v.IsArray() {
				root = v
				break
			}
		}
	}
	if !root.IsArray() {
		return nil, nil, fmt.Errorf("%w: expected a list of documents", domain.ErrInvalidRequest)
	}

	var (
		docs     []*domain.Document
		problems []string
	)
	for i, item := range root.Array() {
		if !item.IsObject() {
			problems = append(problems, fmt.Sprintf("entry %d: not an object", i))
			continue
		}
		doc := parseDocument(item, website)
		if doc.Title == "" {
			problems = append(problems, fmt.Sprintf("entry %d: missing title", i))
			continue
		}
		docs = append(docs, doc)
	}
	return docs, problems, nil
}

func parseDocument(item gjson.Result, website string) *domain.Document {
	site := firstString(item, websiteKeys)
	if site == "" {
		site = website
	}
	sourceType := firstString(item, sourceTypeKeys)
	if sourceType == "" {
		sourceType = domain.SourceTypeExhibitor
	}

	return &domain.Document{
		ID:           firstString(item, idKeys),
		Website:      domain.NormalizeWebsite(site),
		Title:        firstString(item, titleKeys),
		Description:  firstString(item, descriptionKeys),
		URL:          firstString(item, urlKeys),
		SocialLinks:  stringList(first(item, socialKeys)),
		StandNumbers: normalizeStands(stringList(first(item, standKeys))),
		RawText:      firstString(item, rawTextKeys),
		SourceType:   sourceType,
	}
}

func first(item gjson.Result, keys []string) gjson.Result {
	for _, k := range keys {
		if v := item.Get(k); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}

func firstString(item gjson.Result, keys []string) string {
	v := first(item, keys)
	if !v.Exists() {
		return ""
	}
	return strings.TrimSpace(cast.ToString(v.Value()))
}

// stringList accepts an array of scalars, a single scalar or a separated string
func stringList(v gjson.Result) []string {
	if !v.Exists() {
		return nil
	}
	var raw []string
	if v.IsArray() {
		for _, e := range v.Array() {
			raw = append(raw, cast.ToString(e.Value()))
		}
	} else {
		raw = []string{cast.ToString(v.Value())}
	}

	var out []string
	for _, r := range raw {
		for _, part := range strings.FieldsFunc(r, func(c rune) bool { return c == ',' || c == ';' || c == '|' }) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func normalizeStands(stands []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, s := range stands {
		s = strings.TrimSpace(s)
		s = strings.TrimLeft(s, "#")
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// CoerceInt reads a number or numeric string from a JSON value
func CoerceInt(v gjson.Result) (int, error) {
	if !v.Exists() || v.Type == gjson.Null {
		return 0, nil
	}
	n, err := cast.ToIntE(strings.TrimSpace(cast.ToString(v.Value())))
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not a number", domain.ErrInvalidRequest, v.Raw)
	}
	return n, nil
}

// CoerceFloat reads a number or numeric string from a JSON value
func CoerceFloat(v gjson.Result) (float64, error) {
	if !v.Exists() || v.Type == gjson.Null {
		return 0, nil
	}
	f, err := cast.ToFloat64E(strings.TrimSpace(cast.ToString(v.Value())))
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not a number", domain.ErrInvalidRequest, v.Raw)
	}
	return f, nil
}
