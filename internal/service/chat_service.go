package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/liliang-cn/standbot/internal/cache"
	"github.com/liliang-cn/standbot/internal/config"
	"github.com/liliang-cn/standbot/internal/domain"
	"github.com/liliang-cn/standbot/internal/ratelimit"
	"github.com/liliang-cn/standbot/internal/session"
	"go.uber.org/zap"
)

const (
	maxEntityTitleLength = 100
	emptyAnswerFallback  = "Sorry, I could not find an answer to that. Please check the exhibitor list."
)

var (
	standPattern         = regexp.MustCompile(`(?i)\b(?:stand|booth)\s*[:#]?\s*(\d{1,4})\b`)
	numericEntityPattern = regexp.MustCompile(`^\d{1,4}$`)
	boldPattern          = regexp.MustCompile(`\*\*([^*\n]+?)\*\*`)
)

// ChatDeps are the collaborators of the chat service
type ChatDeps struct {
	Config       *config.Config
	Sessions     *session.Store
	Limiter      *ratelimit.Limiter
	Documents    DocumentStore
	Search       *SearchService
	ContextCache *cache.ContextCache
	ForcedCache  *cache.ForcedCache
	LLM          ChatModel
	Profiles     ProfileStore
	ChatLogs     ChatLogger
	Phrases      *Phrases
	Logger       *zap.Logger
}

// ChatService runs one conversation turn: admission, sanitizing, entity
// resolution, retrieval, prompting and session update.
type ChatService struct {
	cfg          *config.Config
	sessions     *session.Store
	limiter      *ratelimit.Limiter
	docs         DocumentStore
	search       *SearchService
	contextCache *cache.ContextCache
	forced       *cache.ForcedCache
	llm          ChatModel
	profiles     ProfileStore
	chatLogs     ChatLogger
	phrases      *Phrases
	sanitizer    *Sanitizer
	logger       *zap.Logger
	now          func() time.Time
}

// NewChatService creates a new chat service
func NewChatService(deps ChatDeps) *ChatService {
	phrases := deps.Phrases
	if phrases == nil {
		phrases = DefaultPhrases()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ChatService{
		cfg:          deps.Config,
		sessions:     deps.Sessions,
		limiter:      deps.Limiter,
		docs:         deps.Documents,
		search:       deps.Search,
		contextCache: deps.ContextCache,
		forced:       deps.ForcedCache,
		llm:          deps.LLM,
		profiles:     deps.Profiles,
		chatLogs:     deps.ChatLogs,
		phrases:      phrases,
		sanitizer:    NewSanitizer(phrases.SQLKeywords, deps.Config.Chat.MaxQueryLength),
		logger:       logger,
		now:          time.Now,
	}
}

// Chat handles one turn. Returned errors wrap domain.ErrRateLimited,
// domain.ErrInvalidRequest or domain.ErrSessionInvalid; anything else is an
// internal failure.
func (s *ChatService) Chat(ctx context.Context, req *domain.ChatRequest) (resp *domain.ChatResponse, err error) {
	if err := s.limiter.Allow(req.SessionID); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("chat turn panicked: %v", r)
		}
		if err != nil && !isClientError(err) {
			s.logger.Error("Chat turn failed",
				zap.String("session_id", req.SessionID),
				zap.String("website", req.Website),
				zap.Error(err),
			)
		}
	}()

	return s.turn(ctx, req)
}

func (s *ChatService) turn(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	website := domain.NormalizeWebsite(req.Website)
	sid := req.SessionID

	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidRequest)
	}
	query := s.sanitizer.Query(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty after sanitizing", domain.ErrInvalidRequest)
	}

	visitor, err := s.visitor(ctx, sid)
	if err != nil {
		return nil, err
	}

	// Follow-up resolution
	entity := s.sessions.LastEntity(sid)
	searchQuery := query
	if entity != "" && s.phrases.IsFollowUp(query) {
		if numericEntityPattern.MatchString(entity) {
			doc, err := s.docs.FindByStandNumber(ctx, website, entity)
			switch {
			case err == nil:
				entity = doc.Title
				s.sessions.SetLastEntity(sid, entity)
			case !errors.Is(err, domain.ErrNotFound):
				return nil, fmt.Errorf("failed to resolve stand %s: %w", entity, err)
			}
		}
		searchQuery = entity + " " + query
	}

	// Direct stand match, otherwise similarity search
	var results []*domain.Document
	directMatch := false
	if m := standPattern.FindStringSubmatch(query); m != nil {
		doc, err := s.docs.FindByStandNumber(ctx, website, m[1])
		switch {
		case err == nil:
			results = append(results, doc)
			directMatch = true
			entity = doc.Title
			s.sessions.SetLastEntity(sid, entity)
		case !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("failed to look up stand %s: %w", m[1], err)
		}
	}
	if !directMatch {
		topK, threshold := req.TopK, req.Threshold
		if topK <= 0 {
			topK = s.cfg.Chat.TopK
		}
		if threshold <= 0 {
			threshold = s.cfg.Chat.Threshold
		}
		results, err = s.search.Search(ctx, website, searchQuery, topK, threshold)
		if err != nil {
			return nil, err
		}
	}

	site := s.cfg.Site(website)
	if s.forced != nil {
		if forced := s.forced.Get(ctx, website, site.ForcedURL); forced != nil && !containsURL(results, forced.URL) {
			results = insertForced(results, forced, directMatch)
		}
	}
	results = dedupe(results)

	prompt := buildPrompt(promptInput{
		LastEntity: entity,
		Visitor:    visitor,
		History:    s.sessions.History(sid),
		Documents:  s.promptDocuments(results),
		ForcedURL:  site.ForcedURL,
		Question:   searchQuery,
	})

	answer, err := s.llm.Complete(ctx, SystemPrompt(website), prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to get completion: %w", err)
	}

	if name := extractEntity(answer, results); name != "" {
		entity = name
		s.sessions.SetLastEntity(sid, entity)
	}

	if entity != "" && s.phrases.IsDirectLinkRequest(query) {
		if link := directLink(entity, results, s.cfg.PlatformDomains()); link != "" {
			answer = "The direct link is: " + link
		}
	}

	answer = s.sanitizer.Answer(answer)
	if answer == "" {
		answer = emptyAnswerFallback
	}

	now := s.now()
	s.sessions.AppendMessage(sid,
		domain.Message{Text: query, IsUser: true, Timestamp: now},
		domain.Message{Text: answer, IsUser: false, Timestamp: now},
	)

	s.record(ctx, sid, website, query, answer, now)

	return &domain.ChatResponse{Response: answer}, nil
}

// visitor returns the registered profile of the session. A missing profile is
// only an error when registration is required.
func (s *ChatService) visitor(ctx context.Context, sid string) (*domain.Profile, error) {
	if s.profiles == nil {
		if s.cfg.Chat.RequireRegistration {
			return nil, domain.ErrSessionInvalid
		}
		return nil, nil
	}

	profile, err := s.profiles.Get(ctx, sid)
	if errors.Is(err, domain.ErrNotFound) {
		if s.cfg.Chat.RequireRegistration {
			return nil, domain.ErrSessionInvalid
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return profile, nil
}

// promptDocuments swaps in fresher cached copies and caches the rest
func (s *ChatService) promptDocuments(results []*domain.Document) []*domain.Document {
	n := len(results)
	if n > maxPromptDocuments {
		n = maxPromptDocuments
	}
	docs := make([]*domain.Document, 0, n)
	for _, doc := range results[:n] {
		if s.contextCache != nil {
			doc = s.contextCache.Fresher(doc)
		}
		docs = append(docs, doc)
	}
	return docs
}

func (s *ChatService) record(ctx context.Context, sid, website, question, answer string, at time.Time) {
	if s.chatLogs == nil {
		return
	}
	err := s.chatLogs.Record(ctx, &domain.ChatLog{
		SessionID: sid,
		Website:   website,
		Question:  question,
		Answer:    answer,
		CreatedAt: at,
	})
	if err != nil {
		s.logger.Warn("Failed to record chat log",
			zap.String("session_id", sid),
			zap.Error(err),
		)
	}
}

// RateLimitStatus admits one request for the session and reports its counters
func (s *ChatService) RateLimitStatus(sessionID string) (domain.RateLimitStatus, error) {
	if err := s.limiter.Allow(sessionID); err != nil {
		return domain.RateLimitStatus{}, err
	}
	return s.limiter.Status(sessionID), nil
}

func isClientError(err error) bool {
	return errors.Is(err, domain.ErrRateLimited) ||
		errors.Is(err, domain.ErrInvalidRequest) ||
		errors.Is(err, domain.ErrSessionInvalid)
}

// insertForced puts the master list first, behind a direct stand match if any
func insertForced(results []*domain.Document, forced *domain.Document, directMatch bool) []*domain.Document {
	out := make([]*domain.Document, 0, len(results)+1)
	if directMatch && len(results) > 0 {
		out = append(out, results[0], forced)
		return append(out, results[1:]...)
	}
	out = append(out, forced)
	return append(out, results...)
}

func containsURL(docs []*domain.Document, u string) bool {
	if u == "" {
		return false
	}
	for _, d := range docs {
		if d.URL == u {
			return true
		}
	}
	return false
}

func dedupe(docs []*domain.Document) []*domain.Document {
	seen := make(map[string]struct{}, len(docs))
	out := docs[:0]
	for _, d := range docs {
		if _, ok := seen[d.ID]; ok {
			continue
		}
		seen[d.ID] = struct{}{}
		out = append(out, d)
	}
	return out
}

// extractEntity names the exhibitor an answer is about: the first bold span,
// else a short title among the first two results. Master lists never count.
func extractEntity(answer string, results []*domain.Document) string {
	if m := boldPattern.FindStringSubmatch(answer); m != nil {
		if name := strings.TrimSpace(m[1]); name != "" {
			return name
		}
	}

	checked := 0
	for _, doc := range results {
		if checked == 2 {
			break
		}
		if doc.SourceType == domain.SourceTypeMasterList {
			continue
		}
		checked++
		if title := strings.TrimSpace(doc.Title); title != "" && len([]rune(title)) < maxEntityTitleLength {
			return title
		}
	}
	return ""
}

// directLink finds the exhibitor's own website among results
func directLink(entity string, results []*domain.Document, platformDomains []string) string {
	e := strings.ToLower(entity)
	for _, doc := range results {
		if !strings.Contains(strings.ToLower(doc.Title), e) {
			continue
		}
		if doc.URL != "" && !isPlatformURL(doc.URL, platformDomains) {
			return doc.URL
		}
		for _, link := range doc.SocialLinks {
			if isPlatformURL(link, platformDomains) {
				continue
			}
			if strings.Contains(link, ".com") || strings.Contains(link, ".be") || strings.Contains(link, ".nl") {
				return link
			}
		}
	}
	return ""
}

func isPlatformURL(raw string, platformDomains []string) bool {
	host := strings.ToLower(raw)
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		host = strings.ToLower(u.Hostname())
	}
	for _, d := range platformDomains {
		if host == d || strings.HasSuffix(host, "."+d) || strings.Contains(host, d) {
			return true
		}
	}
	return false
}
