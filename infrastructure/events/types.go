// Package events defines the site schema change events the admin publishes
// to a Redis stream and the renderer consumes to invalidate cached pages.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StreamName is the Redis stream carrying schema events.
const StreamName = "site-schema-events"

// ConsumerGroup is the renderer's consumer group.
const ConsumerGroup = "site-renderer"

// PayloadField is the stream entry field holding the JSON event.
const PayloadField = "event"

// EventType names a schema lifecycle change.
type EventType string

const (
	// SchemaPublished means a page schema was created or replaced.
	SchemaPublished EventType = "SCHEMA_PUBLISHED"
	// SchemaDeleted means a page schema was removed.
	SchemaDeleted EventType = "SCHEMA_DELETED"
	// TenantThemeChanged means a tenant switched theme.
	TenantThemeChanged EventType = "TENANT_THEME_CHANGED"
)

// ErrInvalidEvent is returned by Decode for structurally invalid events.
var ErrInvalidEvent = errors.New("invalid schema event")

// SchemaEvent identifies the page whose schema changed. A nil TenantID is
// the shared master page; an empty Language means every language.
type SchemaEvent struct {
	EventID   uuid.UUID  `json:"event_id"`
	EventType EventType  `json:"event_type"`
	TenantID  *uuid.UUID `json:"tenant_id,omitempty"`
	Slug      string     `json:"slug,omitempty"`
	Language  string     `json:"language,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewSchemaEvent stamps an id and time on a new event.
func NewSchemaEvent(eventType EventType, tenantID *uuid.UUID, slug, language string) SchemaEvent {
	return SchemaEvent{
		EventID:   uuid.New(),
		EventType: eventType,
		TenantID:  tenantID,
		Slug:      slug,
		Language:  language,
		Timestamp: time.Now().UTC(),
	}
}

// Values encodes e as XADD field values.
func (e SchemaEvent) Values() (map[string]any, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal schema event: %w", err)
	}
	return map[string]any{PayloadField: string(data)}, nil
}

// Decode parses a stream payload. Schema events need a slug; theme changes need a tenant.
func Decode(payload string) (SchemaEvent, error) {
	var e SchemaEvent
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return SchemaEvent{}, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}

	switch e.EventType {
	case SchemaPublished, SchemaDeleted:
		if e.Slug == "" {
			return SchemaEvent{}, fmt.Errorf("%w: %s without slug", ErrInvalidEvent, e.EventType)
		}
	case TenantThemeChanged:
		if e.TenantID == nil {
			return SchemaEvent{}, fmt.Errorf("%w: %s without tenant_id", ErrInvalidEvent, e.EventType)
		}
	default:
		return SchemaEvent{}, fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.EventType)
	}

	return e, nil
}
