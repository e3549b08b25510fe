package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"animevault/internal/http-api/dto"
	"animevault/internal/http-api/repository"
	"animevault/internal/http-api/service"
	"animevault/internal/sources"

	"github.com/gin-gonic/gin"
)

type AnimeHandler struct {
	svc            service.AnimeService
	authMiddleware gin.HandlerFunc
	sourceTimeout  time.Duration
}

func NewAnimeHandler(svc service.AnimeService, authMiddleware gin.HandlerFunc, sourceTimeout time.Duration) *AnimeHandler {
	return &AnimeHandler{svc: svc, authMiddleware: authMiddleware, sourceTimeout: sourceTimeout}
}

func (h *AnimeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	// Public routes
	rg.GET("", h.List)
	rg.GET("/external/search", h.SearchExternal)
	rg.GET("/:anime_id", h.Get)

	// Authenticated routes
	rg.POST("", h.authMiddleware, h.Create)
	rg.PATCH("/:anime_id", h.authMiddleware, h.Update)
	rg.DELETE("/:anime_id", h.authMiddleware, h.Delete)
	rg.POST("/external/save/:external_id", h.authMiddleware, h.SaveExternal)
}

func (h *AnimeHandler) List(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	skip, limit := parseSkipLimit(c, 0, 20)

	list, total, err := h.svc.GetAll(ctx, skip, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.AnimeResponse, 0, len(list))
	for _, a := range list {
		resp = append(resp, dto.FromAnimeModel(a))
	}

	c.JSON(http.StatusOK, gin.H{
		"data": resp,
		"pagination": gin.H{
			"skip":  skip,
			"limit": limit,
			"total": total,
		},
	})
}

func (h *AnimeHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("anime_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	a, err := h.svc.GetByID(ctx, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "anime not found"})
		return
	}
	c.JSON(http.StatusOK, dto.FromAnimeModel(*a))
}

func (h *AnimeHandler) Create(c *gin.Context) {
	var in dto.CreateAnimeDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	model := in.ToModel()
	if err := h.svc.Create(ctx, &model); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, dto.FromAnimeModel(model))
}

func (h *AnimeHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("anime_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var in dto.UpdateAnimeDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	updated, err := h.svc.Update(ctx, id, in.ToUpdates())
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "anime not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.FromAnimeModel(*updated))
}

func (h *AnimeHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("anime_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	removed, err := h.svc.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "anime not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "anime deleted", "anime": dto.FromAnimeModel(*removed)})
}

// SearchExternal handles GET /api/v1/anime/external/search and persists every
// result into the local catalog.
func (h *AnimeHandler) SearchExternal(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q query parameter is required"})
		return
	}

	page := 1
	if p := c.Query("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}
	perPage := 10
	if pp := c.Query("per_page"); pp != "" {
		if parsed, err := strconv.Atoi(pp); err == nil && parsed > 0 && parsed <= 50 {
			perPage = parsed
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.sourceTimeout+5*time.Second)
	defer cancel()

	list, sourceUsed, err := h.svc.SearchExternal(ctx, q, page, perPage)
	if errors.Is(err, sources.ErrUpstreamUnavailable) {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.AnimeResponse, 0, len(list))
	for _, a := range list {
		resp = append(resp, dto.FromAnimeModel(a))
	}
	c.JSON(http.StatusOK, gin.H{
		"data":   resp,
		"source": sourceUsed,
		"total":  len(resp),
	})
}

// SaveExternal handles POST /api/v1/anime/external/save/:external_id.
func (h *AnimeHandler) SaveExternal(c *gin.Context) {
	externalID := strings.TrimSpace(c.Param("external_id"))
	if externalID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "external_id is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.sourceTimeout+5*time.Second)
	defer cancel()

	record, err := h.svc.SaveExternal(ctx, externalID)
	if errors.Is(err, sources.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "anime not found on any source"})
		return
	}
	if errors.Is(err, sources.ErrUpstreamUnavailable) {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, dto.FromAnimeModel(*record))
}

// parseSkipLimit reads ?skip= and ?limit= with defaults and caps.
func parseSkipLimit(c *gin.Context, defaultSkip, defaultLimit int) (int, int) {
	skip := defaultSkip
	limit := defaultLimit

	if s := c.Query("skip"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil && parsed >= 0 {
			skip = parsed
		}
	}
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	return skip, limit
}
