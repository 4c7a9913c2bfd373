// Package api provides the HTTP handlers for the site renderer.
package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jonesrussell/north-cloud/site-renderer/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/domain"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/fetcher"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/render"
)

// statusClientClosedRequest is the nginx convention for a request the
// client abandoned before the response was ready.
const statusClientClosedRequest = 499

// SourceHeader reports which layer answered a page request.
const SourceHeader = "X-Schema-Source"

// SchemaFetcher loads page schemas.
type SchemaFetcher interface {
	Fetch(ctx context.Context, tenantID *uuid.UUID, slug, language string) (fetcher.Result, error)
	Invalidate(ctx context.Context, tenantID *uuid.UUID, slug string) (int, error)
	InvalidateAll(ctx context.Context) (int, error)
}

// ThemeSelector picks the component set for a tenant.
type ThemeSelector interface {
	ResolveTenant(ctx context.Context, tenantID *uuid.UUID) *render.ComponentSet
}

// PageRenderer folds a schema into a page.
type PageRenderer interface {
	Render(ctx context.Context, schema domain.PageSchema, set *render.ComponentSet) (render.Page, error)
}

// PageHandler serves page schemas and rendered pages.
type PageHandler struct {
	fetcher  SchemaFetcher
	selector ThemeSelector
	renderer PageRenderer
	log      logger.Logger
}

// NewPageHandler creates a new page handler.
func NewPageHandler(f SchemaFetcher, s ThemeSelector, r PageRenderer, log logger.Logger) *PageHandler {
	return &PageHandler{fetcher: f, selector: s, renderer: r, log: log}
}

// GetSchema handles GET /pages/:slug.
func (h *PageHandler) GetSchema(c *gin.Context) {
	tenantID, ok := tenantParam(c)
	if !ok {
		return
	}

	res, ok := h.fetch(c, tenantID)
	if !ok {
		return
	}

	c.Header(SourceHeader, string(res.Source))
	c.JSON(http.StatusOK, res.Schema)
}

// RenderPage handles GET /pages/:slug/render. format=json returns the block
// tree; anything else returns an HTML document.
func (h *PageHandler) RenderPage(c *gin.Context) {
	tenantID, ok := tenantParam(c)
	if !ok {
		return
	}

	res, ok := h.fetch(c, tenantID)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	set := h.selector.ResolveTenant(ctx, tenantID)

	page, err := h.renderer.Render(ctx, res.Schema, set)
	if err != nil {
		// Render only fails when the request context ends.
		c.AbortWithStatus(statusClientClosedRequest)
		return
	}

	c.Header(SourceHeader, string(res.Source))

	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, page)
		return
	}

	var buf bytes.Buffer
	if writeErr := render.WriteHTML(&buf, page); writeErr != nil {
		h.logFor(c).Error("Failed to write page HTML",
			logger.String("slug", page.Slug),
			logger.Error(writeErr),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render page"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// InvalidatePage handles DELETE /api/v1/cache/pages/:slug.
func (h *PageHandler) InvalidatePage(c *gin.Context) {
	tenantID, ok := tenantParam(c)
	if !ok {
		return
	}
	slug := c.Param("slug")

	removed, err := h.fetcher.Invalidate(c.Request.Context(), tenantID, slug)
	if err != nil {
		h.logFor(c).Error("Failed to invalidate page cache",
			logger.Tenant(tenantID),
			logger.String("slug", slug),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to invalidate cache"})
		return
	}

	h.logFor(c).Info("Page cache invalidated",
		logger.Tenant(tenantID),
		logger.String("slug", slug),
		logger.Int("removed", removed),
	)
	c.Status(http.StatusNoContent)
}

// InvalidateAll handles DELETE /api/v1/cache/pages.
func (h *PageHandler) InvalidateAll(c *gin.Context) {
	removed, err := h.fetcher.InvalidateAll(c.Request.Context())
	if err != nil {
		h.logFor(c).Error("Failed to flush page cache", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to invalidate cache"})
		return
	}

	h.logFor(c).Info("Page cache flushed", logger.Int("removed", removed))
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (h *PageHandler) fetch(c *gin.Context, tenantID *uuid.UUID) (fetcher.Result, bool) {
	slug := c.Param("slug")

	lang, err := domain.NormalizeLanguage(c.Query("lang"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid language"})
		return fetcher.Result{}, false
	}

	res, err := h.fetcher.Fetch(c.Request.Context(), tenantID, slug, lang)
	switch {
	case err == nil:
		for _, p := range res.Problems {
			h.logFor(c).Debug("Schema problem", logger.String("slug", slug), logger.Stringer("problem", p))
		}
		return res, true
	case errors.Is(err, domain.ErrPageNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
	case errors.Is(err, domain.ErrEmptySlug):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Slug is required"})
	case errors.Is(err, context.Canceled):
		c.AbortWithStatus(statusClientClosedRequest)
	default:
		h.logFor(c).Error("Unexpected fetch error",
			logger.Tenant(tenantID),
			logger.String("slug", slug),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load page"})
	}
	return fetcher.Result{}, false
}

// logFor returns the request-scoped logger carrying the request id.
func (h *PageHandler) logFor(c *gin.Context) logger.Logger {
	return logger.FromContext(c.Request.Context(), h.log)
}

// tenantParam parses the optional ?tenant= query. Absent means the master
// page scope; an unparsable id is answered with 400.
func tenantParam(c *gin.Context) (*uuid.UUID, bool) {
	raw := c.Query("tenant")
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tenant id"})
		return nil, false
	}
	return &id, true
}
