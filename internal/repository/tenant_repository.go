package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/domain"
)

// TenantRepository reads the tenants table.
type TenantRepository struct {
	db *sqlx.DB
}

// NewTenantRepository creates a new tenant repository.
func NewTenantRepository(db *sqlx.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

// GetTenant returns domain.ErrTenantNotFound for an unknown id.
func (r *TenantRepository) GetTenant(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	var tenant domain.Tenant
	query := `SELECT id, name, theme_id FROM tenants WHERE id = $1`

	if err := r.db.GetContext(ctx, &tenant, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, fmt.Errorf("get tenant %s: %w", id, err)
	}

	return &tenant, nil
}
