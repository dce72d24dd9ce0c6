package admin

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/standbot/internal/domain"
	"github.com/liliang-cn/standbot/internal/service"
	"go.uber.org/zap"
)

const maxImportBytes = 32 << 20

// Handler handles admin API requests
type Handler struct {
	adminService *service.AdminService
	logger       *zap.Logger
}

// NewHandler creates a new admin handler
func NewHandler(adminService *service.AdminService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		adminService: adminService,
		logger:       logger,
	}
}

// RegisterRoutes registers admin routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	documents := r.Group("/documents")
	{
		documents.POST("", h.CreateDocument)
		documents.GET("", h.ListDocuments)
		documents.GET("/query", h.QueryDocuments)
		documents.POST("/import", h.ImportDocuments)
		documents.GET("/:id", h.GetDocument)
		documents.PUT("/:id", h.UpdateDocument)
		documents.DELETE("/:id", h.DeleteDocument)
	}

	sessions := r.Group("/sessions")
	{
		sessions.GET("/:id", h.GetSession)
		sessions.GET("/:id/chats", h.ListSessionChats)
	}

	r.GET("/sites", h.ListSites)
	r.GET("/stats", h.GetStats)
}

// Document handlers

func (h *Handler) CreateDocument(c *gin.Context) {
	var req domain.UpsertDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.adminService.CreateDocument(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, doc)
}

func (h *Handler) ListDocuments(c *gin.Context) {
	website := c.Query("website")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}

	resp, err := h.adminService.ListDocuments(c.Request.Context(), website, page, pageSize)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) QueryDocuments(c *gin.Context) {
	docs, err := h.adminService.QueryDocuments(c.Request.Context(), c.Query("website"), c.Query("field"), c.Query("value"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if docs == nil {
		docs = []*domain.Document{}
	}

	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (h *Handler) ImportDocuments(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	result, err := h.adminService.ImportDocuments(c.Request.Context(), c.Query("website"), body)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetDocument(c *gin.Context) {
	doc, err := h.adminService.GetDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

func (h *Handler) UpdateDocument(c *gin.Context) {
	var req domain.UpsertDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.adminService.UpdateDocument(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

func (h *Handler) DeleteDocument(c *gin.Context) {
	if err := h.adminService.DeleteDocument(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "document deleted"})
}

// Session handlers

func (h *Handler) GetSession(c *gin.Context) {
	snap, err := h.adminService.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

func (h *Handler) ListSessionChats(c *gin.Context) {
	chats, err := h.adminService.ListSessionChats(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if chats == nil {
		chats = []*domain.ChatLog{}
	}

	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// Site and stats handlers

func (h *Handler) ListSites(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sites": h.adminService.ListSites(c.Request.Context())})
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.adminService.GetStats(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Admin request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
