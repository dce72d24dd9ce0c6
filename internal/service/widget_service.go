package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/liliang-cn/standbot/internal/config"
	"github.com/liliang-cn/standbot/internal/domain"
)

// WidgetConfigResponse is the response for widget config
type WidgetConfigResponse struct {
	Website string              `json:"website"`
	Name    string              `json:"name"`
	Config  domain.WidgetConfig `json:"config"`
	BaseURL string              `json:"base_url"`
}

// WidgetService handles widget operations
type WidgetService struct {
	cfg         *config.Config
	profiles    ProfileStore
	chatService *ChatService
}

// NewWidgetService creates a new widget service
func NewWidgetService(cfg *config.Config, profiles ProfileStore, chatService *ChatService) *WidgetService {
	return &WidgetService{
		cfg:         cfg,
		profiles:    profiles,
		chatService: chatService,
	}
}

// GetWidgetConfig returns the widget configuration for a website
func (s *WidgetService) GetWidgetConfig(ctx context.Context, website string) *WidgetConfigResponse {
	website = domain.NormalizeWebsite(website)
	site := siteFromConfig(website, s.cfg.Site(website))

	return &WidgetConfigResponse{
		Website: site.ID,
		Name:    site.Name,
		Config:  site.WidgetConfig,
		BaseURL: s.cfg.Server.BaseURL,
	}
}

// Chat handles a chat message
func (s *WidgetService) Chat(ctx context.Context, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	return s.chatService.Chat(ctx, req)
}

// RateLimitStatus admits a request and reports the session's counters
func (s *WidgetService) RateLimitStatus(sessionID string) (domain.RateLimitStatus, error) {
	return s.chatService.RateLimitStatus(sessionID)
}

// Register binds a visitor profile to the session
func (s *WidgetService) Register(ctx context.Context, sessionID, website string, req *domain.RegisterRequest) (*domain.Profile, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" {
		return nil, fmt.Errorf("%w: name and email are required", domain.ErrInvalidRequest)
	}

	profile := &domain.Profile{
		SessionID: sessionID,
		Website:   domain.NormalizeWebsite(website),
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Company:   strings.TrimSpace(req.Company),
	}
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return profile, nil
}

func siteFromConfig(id string, sc config.SiteConfig) *domain.Site {
	widget := domain.DefaultWidgetConfig()
	if sc.WelcomeMessage != "" {
		widget.WelcomeMessage = sc.WelcomeMessage
	}
	return &domain.Site{
		ID:           id,
		Name:         sc.Name,
		Domain:       sc.Domain,
		ForcedURL:    sc.ForcedURL,
		WidgetConfig: widget,
	}
}
