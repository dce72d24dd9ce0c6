package widget

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/standbot/internal/config"
	"github.com/liliang-cn/standbot/internal/domain"
	"github.com/liliang-cn/standbot/internal/service"
	"github.com/liliang-cn/standbot/internal/session"
	"github.com/tidwall/gjson"
)

// StatusSessionInvalid tells the widget to show the registration form again
const StatusSessionInvalid = 440

const (
	maxBodyBytes    = 64 << 10
	internalMessage = "Something went wrong. Please try again later."
)

// Handler handles widget API requests
type Handler struct {
	widgetService *service.WidgetService
	sessions      *session.Store
	cookie        config.SessionConfig
}

// NewHandler creates a new widget handler
func NewHandler(widgetService *service.WidgetService, sessions *session.Store, cookie config.SessionConfig) *Handler {
	return &Handler{
		widgetService: widgetService,
		sessions:      sessions,
		cookie:        cookie,
	}
}

// RegisterRoutes registers widget routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/ratelimit-demo", h.RateLimitDemo)
	r.GET("/:website/config", h.GetConfig)
	r.POST("/:website/chat", h.Chat)
	r.POST("/:website/register", h.Register)
}

// GetConfig returns the widget configuration for a website
func (h *Handler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.widgetService.GetWidgetConfig(c.Request.Context(), c.Param("website")))
}

// Chat handles a chat message
func (h *Handler) Chat(c *gin.Context) {
	sessionID := h.session(c)

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil || !gjson.ValidBytes(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	topK, err := service.CoerceInt(gjson.GetBytes(body, "topK"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	threshold, err := service.CoerceFloat(gjson.GetBytes(body, "threshold"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.widgetService.Chat(c.Request.Context(), &domain.ChatRequest{
		SessionID: sessionID,
		Website:   c.Param("website"),
		Query:     gjson.GetBytes(body, "query").String(),
		TopK:      topK,
		Threshold: threshold,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Register binds a visitor profile to the session
func (h *Handler) Register(c *gin.Context) {
	sessionID := h.session(c)

	var req domain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.widgetService.Register(c.Request.Context(), sessionID, c.Param("website"), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, profile)
}

// RateLimitDemo admits one request and reports the session's counters
func (h *Handler) RateLimitDemo(c *gin.Context) {
	status, err := h.widgetService.RateLimitStatus(h.session(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// session returns the caller's session id, minting one and setting the
// cookie when the request carries none.
func (h *Handler) session(c *gin.Context) string {
	cookie, _ := c.Cookie(h.cookie.CookieName)
	id, minted := h.sessions.Resolve(cookie)
	if minted {
		c.SetSameSite(h.cookie.SameSiteMode())
		c.SetCookie(h.cookie.CookieName, id, int(h.cookie.MaxAge().Seconds()), "/", "", h.cookie.SecureCookie(), true)
	}
	return id
}

func writeError(c *gin.Context, err error) {
	var rle *domain.RateLimitError
	switch {
	case errors.As(err, &rle):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": rle.Message()})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrSessionInvalid):
		c.JSON(StatusSessionInvalid, gin.H{"error": "session expired, please register again"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": internalMessage})
	}
}
