package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	infralogger "github.com/jonesrussell/north-cloud/site-renderer/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/config"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/fetcher"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/repository"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/telemetry"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/theme"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/tenants"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	config.SetDefaults(cfg)
	return cfg
}

func mockDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "postgres")
}

func TestTenantDirectory_Source(t *testing.T) {
	cfg := testConfig()
	db := mockDB(t)

	_, isRepo := tenantDirectory(cfg, db).(*repository.TenantRepository)
	assert.True(t, isRepo, "database source should use the tenants table")

	cfg.Tenants.Source = config.TenantSourceHTTP
	cfg.Tenants.BaseURL = "http://tenants.internal"
	_, isHTTP := tenantDirectory(cfg, db).(*tenants.HTTPDirectory)
	assert.True(t, isHTTP, "http source should use the HTTP directory")
}

func TestSetupPipeline_StoreDownServesDefault(t *testing.T) {
	cfg := testConfig()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	// The mock has no expectations, so every store query fails.
	p, err := SetupPipeline(cfg, mockDB(t), client, telemetry.NewProvider(prometheus.NewRegistry()), infralogger.NewNop())
	require.NoError(t, err)

	res, err := p.Fetcher.Fetch(context.Background(), nil, "home", "")
	require.NoError(t, err)
	assert.Equal(t, fetcher.SourceDefault, res.Source)
	assert.NotEmpty(t, res.Schema.Components)

	page, err := p.Renderer.Render(context.Background(), res.Schema, p.Selector.Default())
	require.NoError(t, err)
	assert.Equal(t, cfg.Themes.Default, page.Theme)
	assert.NotEmpty(t, page.Blocks)
}

func TestSetupPipeline_StalledTenantLookupIsBounded(t *testing.T) {
	cfg := testConfig()
	cfg.Tenants.Timeout = 100 * time.Millisecond

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	tenantID := uuid.New()
	mock.ExpectQuery(`SELECT id, name, theme_id FROM tenants`).
		WithArgs(tenantID).
		WillDelayFor(5 * time.Second).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "theme_id"}).AddRow(tenantID.String(), "Acme", theme.Bold))

	p, err := SetupPipeline(cfg, sqlx.NewDb(sqlDB, "postgres"), nil, telemetry.NewProvider(prometheus.NewRegistry()), infralogger.NewNop())
	require.NoError(t, err)

	start := time.Now()
	set := p.Selector.ResolveTenant(context.Background(), &tenantID)
	elapsed := time.Since(start)

	assert.Equal(t, cfg.Themes.Default, set.Name())
	assert.Less(t, elapsed, 2*time.Second)
}

func TestStartEventConsumer_Disabled(t *testing.T) {
	cfg := testConfig()
	assert.Nil(t, StartEventConsumer(context.Background(), cfg, nil, &Pipeline{}, nil, infralogger.NewNop()))
}
