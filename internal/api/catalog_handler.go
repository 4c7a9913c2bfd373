package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jonesrussell/north-cloud/site-renderer/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/domain"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/theme"
)

// PageLister lists the pages visible to a tenant.
type PageLister interface {
	List(ctx context.Context, tenantID *uuid.UUID) ([]domain.PageRef, error)
}

// CatalogHandler describes what the service can serve: registered themes
// and stored pages.
type CatalogHandler struct {
	registry     *theme.Registry
	defaultTheme string
	pages        PageLister
	log          logger.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(registry *theme.Registry, defaultTheme string, pages PageLister, log logger.Logger) *CatalogHandler {
	return &CatalogHandler{registry: registry, defaultTheme: defaultTheme, pages: pages, log: log}
}

type themeInfo struct {
	ID         string   `json:"id"`
	Components []string `json:"components"`
}

// ListThemes handles GET /api/v1/themes.
func (h *CatalogHandler) ListThemes(c *gin.Context) {
	names := h.registry.Names()
	themes := make([]themeInfo, 0, len(names))
	for _, name := range names {
		set, _ := h.registry.Get(name)
		themes = append(themes, themeInfo{ID: name, Components: set.Types()})
	}

	c.JSON(http.StatusOK, gin.H{
		"themes":  themes,
		"default": h.defaultTheme,
		"count":   len(themes),
	})
}

type pageInfo struct {
	Scope    string `json:"scope"`
	Slug     string `json:"slug"`
	Language string `json:"language"`
}

// ListPages handles GET /api/v1/pages.
func (h *CatalogHandler) ListPages(c *gin.Context) {
	tenantID, ok := tenantParam(c)
	if !ok {
		return
	}

	refs, err := h.pages.List(c.Request.Context(), tenantID)
	if err != nil {
		h.log.Error("Failed to list pages", logger.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to list pages"})
		return
	}

	pages := make([]pageInfo, 0, len(refs))
	for _, ref := range refs {
		pages = append(pages, pageInfo{Scope: ref.Scope(), Slug: ref.Slug, Language: ref.Language})
	}

	c.JSON(http.StatusOK, gin.H{
		"pages": pages,
		"count": len(pages),
	})
}
