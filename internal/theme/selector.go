package theme

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonesrussell/north-cloud/site-renderer/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/domain"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/render"
)

// TenantDirectory looks up tenant records.
type TenantDirectory interface {
	GetTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
}

// Selector maps a tenant to its component set.
type Selector struct {
	registry  *Registry
	directory TenantDirectory
	fallback  *render.ComponentSet
	override  string
	log       logger.Logger
}

// NewSelector creates a selector. defaultID must be registered; override,
// when non-empty, must be registered too and wins over every tenant's theme.
func NewSelector(registry *Registry, directory TenantDirectory, defaultID, override string, log logger.Logger) (*Selector, error) {
	fallback, ok := registry.Get(defaultID)
	if !ok {
		return nil, fmt.Errorf("default theme %q is not registered", defaultID)
	}
	if override != "" {
		if _, ok = registry.Get(override); !ok {
			return nil, fmt.Errorf("override theme %q is not registered", override)
		}
	}
	return &Selector{
		registry:  registry,
		directory: directory,
		fallback:  fallback,
		override:  override,
		log:       log,
	}, nil
}

// Default is the set used when no tenant theme applies.
func (s *Selector) Default() *render.ComponentSet {
	return s.fallback
}

// Resolve picks the set for tenant: the override if configured, else the
// tenant's theme. A nil tenant, empty theme or unknown theme gets the default.
func (s *Selector) Resolve(tenant *domain.Tenant) *render.ComponentSet {
	id := s.override
	if id == "" && tenant != nil {
		id = tenant.ThemeID
	}
	if id == "" {
		return s.fallback
	}

	set, ok := s.registry.Get(id)
	if !ok {
		s.log.Warn("Unknown theme requested, using default",
			logger.String("theme_id", id),
			logger.String("default_theme", s.fallback.Name()),
		)
		return s.fallback
	}
	return set
}

// ResolveTenant looks tenantID up in the directory and resolves its theme.
// Lookup failures fall back to the default theme, so rendering never blocks
// on the directory.
func (s *Selector) ResolveTenant(ctx context.Context, tenantID *uuid.UUID) *render.ComponentSet {
	if tenantID == nil || s.override != "" || s.directory == nil {
		return s.Resolve(nil)
	}

	tenant, err := s.directory.GetTenant(ctx, *tenantID)
	if err != nil {
		level := s.log.Warn
		if errors.Is(err, domain.ErrTenantNotFound) {
			level = s.log.Info
		}
		level("Tenant lookup failed, using default theme",
			logger.Tenant(tenantID),
			logger.Error(err),
		)
		return s.fallback
	}
	return s.Resolve(tenant)
}
