// Package repository reads page schemas and tenants from PostgreSQL.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/domain"
)

// SchemaRepository reads the site_schemas table.
type SchemaRepository struct {
	db *sqlx.DB
}

// NewSchemaRepository creates a new schema repository.
func NewSchemaRepository(db *sqlx.DB) *SchemaRepository {
	return &SchemaRepository{db: db}
}

type schemaRow struct {
	TenantID  uuid.NullUUID `db:"tenant_id"`
	SchemaKey string        `db:"schema_key"`
	Language  string        `db:"language"`
	Document  []byte        `db:"document"`
	UpdatedAt time.Time     `db:"updated_at"`
}

func (r schemaRow) stored() domain.StoredSchema {
	ref := domain.PageRef{Slug: r.SchemaKey, Language: r.Language}
	if r.TenantID.Valid {
		id := r.TenantID.UUID
		ref.TenantID = &id
	}
	return domain.StoredSchema{Ref: ref, Document: r.Document, UpdatedAt: r.UpdatedAt}
}

// Lookup returns the best match for ref in one query. Preference order is
// the tenant's page in ref.Language, the tenant's page in fallbackLanguage,
// the master page in ref.Language, then the master page in fallbackLanguage.
// It returns domain.ErrPageNotFound when none exist.
func (r *SchemaRepository) Lookup(ctx context.Context, ref domain.PageRef, fallbackLanguage string) (domain.StoredSchema, error) {
	query := `
		SELECT tenant_id, schema_key, language, document, updated_at
		FROM site_schemas
		WHERE schema_key = $1
		  AND (tenant_id = $2 OR tenant_id IS NULL)
		  AND language IN ($3, $4)
		ORDER BY (tenant_id IS NULL), (language <> $3)
		LIMIT 1
	`

	var row schemaRow
	err := r.db.GetContext(ctx, &row, query, ref.Slug, nullUUID(ref.TenantID), ref.Language, fallbackLanguage)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.StoredSchema{}, domain.ErrPageNotFound
		}
		return domain.StoredSchema{}, fmt.Errorf("lookup schema %s: %w", ref, err)
	}

	return row.stored(), nil
}

// List returns the pages visible to tenantID: its own pages plus master
// pages it does not override. A nil tenantID lists master pages only.
func (r *SchemaRepository) List(ctx context.Context, tenantID *uuid.UUID) ([]domain.PageRef, error) {
	query := `
		SELECT DISTINCT ON (schema_key, language) tenant_id, schema_key, language
		FROM site_schemas
		WHERE tenant_id = $1 OR tenant_id IS NULL
		ORDER BY schema_key, language, (tenant_id IS NULL)
	`

	var rows []schemaRow
	if err := r.db.SelectContext(ctx, &rows, query, nullUUID(tenantID)); err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}

	refs := make([]domain.PageRef, 0, len(rows))
	for _, row := range rows {
		refs = append(refs, row.stored().Ref)
	}
	return refs, nil
}

// Ping checks database connectivity.
func (r *SchemaRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
