package api

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/standbot/internal/cache"
	"github.com/liliang-cn/standbot/internal/config"
	"github.com/liliang-cn/standbot/internal/ratelimit"
	"github.com/liliang-cn/standbot/internal/repository"
	"github.com/liliang-cn/standbot/internal/service"
	"github.com/liliang-cn/standbot/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSetupRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		RateLimit: config.RateLimitConfig{WindowSeconds: 3, MaxRequests: 1, MaxUserRequestsPerDay: 20, MaxGlobalRequestsPerDay: 100},
		Session:   config.SessionConfig{CookieName: "standbot_session", MaxAgeDays: 7},
		Sites:     map[string]config.SiteConfig{"ffd": {Name: "Flooring Fair Days"}},
	}

	db, err := repository.NewDB(filepath.Join(t.TempDir(), "standbot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	docs := repository.NewDocumentRepository(db)
	chatLogs := repository.NewChatLogRepository(db)
	sessions := session.NewStore()
	limiter := ratelimit.NewLimiter(cfg.RateLimit, sessions)
	contextCache, err := cache.NewContextCache(20)
	require.NoError(t, err)

	adminService := service.NewAdminService(cfg, docs, service.NewIngestService(docs, nil, nil), chatLogs, sessions, limiter, contextCache)
	chatService := service.NewChatService(service.ChatDeps{Config: cfg, Sessions: sessions, Limiter: limiter, Documents: docs})
	widgetService := service.NewWidgetService(cfg, repository.NewProfileRepository(db), chatService)

	r := SetupRouter(adminService, widgetService, sessions, zap.NewNop(), RouterConfig{
		APIKey:       "secret",
		AllowOrigins: []string{"*"},
		Session:      cfg.Session,
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.Header.Set("X-API-Key", "secret")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/widget/ffd/config", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Flooring Fair Days")
}
