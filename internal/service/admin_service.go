package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/liliang-cn/standbot/internal/cache"
	"github.com/liliang-cn/standbot/internal/config"
	"github.com/liliang-cn/standbot/internal/domain"
	"github.com/liliang-cn/standbot/internal/ratelimit"
	"github.com/liliang-cn/standbot/internal/session"
)

// AdminService handles admin operations
type AdminService struct {
	cfg          *config.Config
	docs         DocumentStore
	ingest       *IngestService
	chatLogs     ChatLogger
	sessions     *session.Store
	limiter      *ratelimit.Limiter
	contextCache *cache.ContextCache
}

// NewAdminService creates a new admin service
func NewAdminService(
	cfg *config.Config,
	docs DocumentStore,
	ingest *IngestService,
	chatLogs ChatLogger,
	sessions *session.Store,
	limiter *ratelimit.Limiter,
	contextCache *cache.ContextCache,
) *AdminService {
	return &AdminService{
		cfg:          cfg,
		docs:         docs,
		ingest:       ingest,
		chatLogs:     chatLogs,
		sessions:     sessions,
		limiter:      limiter,
		contextCache: contextCache,
	}
}

// Document operations

func (s *AdminService) CreateDocument(ctx context.Context, req *domain.UpsertDocumentRequest) (*domain.Document, error) {
	req.ID = ""
	return s.ingest.UpsertDocument(ctx, req)
}

func (s *AdminService) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	return s.docs.Get(ctx, id)
}

func (s *AdminService) UpdateDocument(ctx context.Context, id string, req *domain.UpsertDocumentRequest) (*domain.Document, error) {
	if _, err := s.docs.Get(ctx, id); err != nil {
		return nil, err
	}
	req.ID = id
	return s.ingest.UpsertDocument(ctx, req)
}

func (s *AdminService) DeleteDocument(ctx context.Context, id string) error {
	return s.docs.Delete(ctx, id)
}

func (s *AdminService) ListDocuments(ctx context.Context, website string, page, pageSize int) (*domain.DocumentListResponse, error) {
	docs, err := s.docs.List(ctx, website)
	if err != nil {
		return nil, err
	}

	// Pagination
	total := len(docs)
	start := (page - 1) * pageSize
	if start < 0 {
		start = 0
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	var pagedDocs []*domain.Document
	if start < total {
		pagedDocs = docs[start:end]
	} else {
		pagedDocs = []*domain.Document{}
	}

	return &domain.DocumentListResponse{
		Documents: pagedDocs,
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
	}, nil
}

func (s *AdminService) QueryDocuments(ctx context.Context, website, field, value string) ([]*domain.Document, error) {
	return s.docs.QueryByField(ctx, domain.NormalizeWebsite(website), field, value)
}

func (s *AdminService) ImportDocuments(ctx context.Context, website string, data []byte) (*domain.ImportResult, error) {
	return s.ingest.ImportJSON(ctx, domain.NormalizeWebsite(website), data)
}

// Site operations

func (s *AdminService) ListSites(ctx context.Context) []*domain.Site {
	ids := make([]string, 0, len(s.cfg.Sites))
	for id := range s.cfg.Sites {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	sites := make([]*domain.Site, 0, len(ids))
	for _, id := range ids {
		sites = append(sites, siteFromConfig(id, s.cfg.Sites[id]))
	}
	return sites
}

// Sessions

func (s *AdminService) GetSession(ctx context.Context, id string) (*domain.SessionSnapshot, error) {
	if !s.sessions.Exists(id) {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	snap := s.sessions.Snapshot(id, s.cfg.RateLimit.Window())
	return &snap, nil
}

func (s *AdminService) ListSessionChats(ctx context.Context, id string) ([]*domain.ChatLog, error) {
	return s.chatLogs.ListBySession(ctx, id)
}

// Stats

func (s *AdminService) GetStats(ctx context.Context) (*domain.Stats, error) {
	docCount, err := s.docs.Count(ctx)
	if err != nil {
		return nil, err
	}
	chats, err := s.chatLogs.CountChats(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.Stats{
		TotalDocuments:      docCount,
		TotalChats:          chats,
		ActiveSessions:      s.sessions.Len(),
		GlobalRequestsToday: s.limiter.GlobalCount(),
		ContextCacheEntries: s.contextCache.Len(),
	}, nil
}
