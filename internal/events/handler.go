package events

//go:generate mockgen -source=handler.go -destination=mocks/mock_handler.go -package=mocks

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	infraevents "github.com/jonesrussell/north-cloud/site-renderer/infrastructure/events"
	"github.com/jonesrussell/north-cloud/site-renderer/infrastructure/logger"
)

// PageInvalidator drops cached copies of a page.
type PageInvalidator interface {
	Invalidate(ctx context.Context, tenantID *uuid.UUID, slug string) (int, error)
}

// TenantForgetter drops a cached tenant record.
type TenantForgetter interface {
	Forget(id uuid.UUID)
}

// Recorder receives event metrics.
type Recorder interface {
	RecordEvent(eventType string, success bool)
	RecordInvalidation(trigger string, removed int)
}

// InvalidationHandler invalidates cached pages for schema events and
// cached tenants for theme changes. Tenants and Recorder may be nil.
type InvalidationHandler struct {
	Pages    PageInvalidator
	Tenants  TenantForgetter
	Recorder Recorder
	Log      logger.Logger
}

// Handle implements Handler.
func (h *InvalidationHandler) Handle(ctx context.Context, event infraevents.SchemaEvent) error {
	err := h.apply(ctx, event)
	if h.Recorder != nil {
		h.Recorder.RecordEvent(string(event.EventType), err == nil)
	}
	return err
}

func (h *InvalidationHandler) apply(ctx context.Context, event infraevents.SchemaEvent) error {
	switch event.EventType {
	case infraevents.SchemaPublished, infraevents.SchemaDeleted:
		removed, err := h.Pages.Invalidate(ctx, event.TenantID, event.Slug)
		if err != nil {
			return fmt.Errorf("invalidate %s: %w", event.Slug, err)
		}
		if h.Recorder != nil {
			h.Recorder.RecordInvalidation("event", removed)
		}
		h.Log.Info("Page cache invalidated",
			logger.String("event_type", string(event.EventType)),
			logger.Tenant(event.TenantID),
			logger.String("slug", event.Slug),
			logger.Int("removed", removed),
		)
		return nil

	case infraevents.TenantThemeChanged:
		if h.Tenants != nil && event.TenantID != nil {
			h.Tenants.Forget(*event.TenantID)
		}
		h.Log.Info("Tenant theme changed", logger.Tenant(event.TenantID))
		return nil

	default:
		h.Log.Warn("Unknown event type", logger.String("event_type", string(event.EventType)))
		return nil
	}
}
