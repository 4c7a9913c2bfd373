package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonesrussell/north-cloud/site-renderer/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/api"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/domain"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/fetcher"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/render"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/theme"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jwtSecret = "test-secret"

var (
	tenantA = uuid.MustParse("1d2e3f40-5a6b-4c7d-8e9f-0a1b2c3d4e5f")
	tenantB = uuid.MustParse("2e3f4051-6b7c-4d8e-9f0a-1b2c3d4e5f60")
)

type mockFetcher struct {
	fetchFn       func(tenantID *uuid.UUID, slug, language string) (fetcher.Result, error)
	invalidateErr error
	invalidated   []string
	flushed       int
}

func (m *mockFetcher) Fetch(_ context.Context, tenantID *uuid.UUID, slug, language string) (fetcher.Result, error) {
	return m.fetchFn(tenantID, slug, language)
}

func (m *mockFetcher) Invalidate(_ context.Context, tenantID *uuid.UUID, slug string) (int, error) {
	scope := "master"
	if tenantID != nil {
		scope = tenantID.String()
	}
	m.invalidated = append(m.invalidated, scope+":"+slug)
	return 1, m.invalidateErr
}

func (m *mockFetcher) InvalidateAll(context.Context) (int, error) {
	m.flushed++
	return 7, m.invalidateErr
}

type mockLister struct {
	refs []domain.PageRef
	err  error
}

func (m *mockLister) List(context.Context, *uuid.UUID) ([]domain.PageRef, error) {
	return m.refs, m.err
}

type staticDirectory map[uuid.UUID]string

func (d staticDirectory) GetTenant(_ context.Context, id uuid.UUID) (*domain.Tenant, error) {
	themeID, ok := d[id]
	if !ok {
		return nil, domain.ErrTenantNotFound
	}
	return &domain.Tenant{ID: id, ThemeID: themeID}, nil
}

func homeSchema(tenantID *uuid.UUID, slug, language string) (fetcher.Result, error) {
	if slug == "missing" {
		return fetcher.Result{}, domain.ErrPageNotFound
	}
	if language == "" {
		language = "en"
	}
	return fetcher.Result{
		Source: fetcher.SourceStore,
		Schema: domain.PageSchema{
			TenantID: tenantID,
			Slug:     slug,
			Language: language,
			Components: []domain.ComponentNode{
				{Key: "t", Type: "HeroSection", Content: "Welcome"},
				{Key: "x", Type: "UnknownWidget"},
				{Key: "f", Type: "Footer", Content: "Bye"},
			},
		},
	}, nil
}

func setupRouter(t *testing.T, f *mockFetcher, lister *mockLister) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry, err := theme.NewRegistry()
	require.NoError(t, err)
	dir := staticDirectory{tenantA: theme.Classic, tenantB: theme.Bold}
	selector, err := theme.NewSelector(registry, dir, theme.Classic, "", logger.NewNop())
	require.NoError(t, err)

	log := logger.NewNop()
	pages := api.NewPageHandler(f, selector, render.NewRenderer(log), log)
	catalog := api.NewCatalogHandler(registry, theme.Classic, lister, log)

	router := gin.New()
	api.SetupRoutes(router, pages, catalog, prometheus.NewRegistry(), jwtSecret)
	return router
}

func do(router *gin.Engine, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, http.NoBody)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetSchema(t *testing.T) {
	router := setupRouter(t, &mockFetcher{fetchFn: homeSchema}, &mockLister{})

	w := do(router, http.MethodGet, "/pages/home?tenant="+tenantA.String()+"&lang=fr", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "store", w.Header().Get(api.SourceHeader))

	var schema domain.PageSchema
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &schema))
	assert.Equal(t, "home", schema.Slug)
	assert.Equal(t, "fr", schema.Language)
	assert.Equal(t, &tenantA, schema.TenantID)
	assert.Len(t, schema.Components, 3)
}

func TestGetSchema_Errors(t *testing.T) {
	router := setupRouter(t, &mockFetcher{fetchFn: homeSchema}, &mockLister{})

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{name: "invalid tenant", target: "/pages/home?tenant=not-a-uuid", want: http.StatusBadRequest},
		{name: "invalid language", target: "/pages/home?lang=not%20a%20language", want: http.StatusBadRequest},
		{name: "page exists nowhere", target: "/pages/missing", want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodGet, tt.target, "")
			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestGetSchema_NormalizesLanguage(t *testing.T) {
	router := setupRouter(t, &mockFetcher{fetchFn: homeSchema}, &mockLister{})

	w := do(router, http.MethodGet, "/pages/home?lang=EN-us", "")
	require.Equal(t, http.StatusOK, w.Code)

	var schema domain.PageSchema
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &schema))
	assert.Equal(t, "en-US", schema.Language)
}

func TestGetSchema_UnexpectedError(t *testing.T) {
	f := &mockFetcher{fetchFn: func(*uuid.UUID, string, string) (fetcher.Result, error) {
		return fetcher.Result{}, errors.New("boom")
	}}
	router := setupRouter(t, f, &mockLister{})

	w := do(router, http.MethodGet, "/pages/home", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRenderPage_ThemePerTenant(t *testing.T) {
	router := setupRouter(t, &mockFetcher{fetchFn: homeSchema}, &mockLister{})

	classic := do(router, http.MethodGet, "/pages/home/render?tenant="+tenantA.String(), "")
	require.Equal(t, http.StatusOK, classic.Code)
	assert.Contains(t, classic.Header().Get("Content-Type"), "text/html")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(classic.Body.String()))
	require.NoError(t, err)
	assert.Equal(t, "classic", doc.Find("main").AttrOr("data-theme", ""))
	assert.Equal(t, "Welcome", doc.Find("section.hero--classic h2").Text())
	assert.Equal(t, 0, doc.Find(`[data-key="x"]`).Length())
	assert.Equal(t, 1, doc.Find(`footer[data-key="f"]`).Length())

	bold := do(router, http.MethodGet, "/pages/home/render?tenant="+tenantB.String(), "")
	require.Equal(t, http.StatusOK, bold.Code)

	doc, err = goquery.NewDocumentFromReader(strings.NewReader(bold.Body.String()))
	require.NoError(t, err)
	assert.Equal(t, "bold", doc.Find("main").AttrOr("data-theme", ""))
	assert.Equal(t, "Welcome", doc.Find("section.hero--bold h1").Text())
}

func TestRenderPage_JSON(t *testing.T) {
	router := setupRouter(t, &mockFetcher{fetchFn: homeSchema}, &mockLister{})

	w := do(router, http.MethodGet, "/pages/home/render?format=json", "")
	require.Equal(t, http.StatusOK, w.Code)

	var page render.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, theme.Classic, page.Theme)
	require.Len(t, page.Blocks, 2)
	assert.Equal(t, "t", page.Blocks[0].Key)
	assert.Equal(t, "f", page.Blocks[1].Key)
}

func TestRenderPage_Idempotent(t *testing.T) {
	router := setupRouter(t, &mockFetcher{fetchFn: homeSchema}, &mockLister{})

	first := do(router, http.MethodGet, "/pages/home/render?tenant="+tenantB.String(), "")
	second := do(router, http.MethodGet, "/pages/home/render?tenant="+tenantB.String(), "")
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func signToken(t *testing.T) string {
	t.Helper()
	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return signed
}

func TestInvalidatePage(t *testing.T) {
	f := &mockFetcher{fetchFn: homeSchema}
	router := setupRouter(t, f, &mockLister{})
	target := "/api/v1/cache/pages/home?tenant=" + tenantA.String()

	w := do(router, http.MethodDelete, target, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, f.invalidated)

	w = do(router, http.MethodDelete, target, signToken(t))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{tenantA.String() + ":home"}, f.invalidated)

	f.invalidateErr = errors.New("redis down")
	w = do(router, http.MethodDelete, "/api/v1/cache/pages/home", signToken(t))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestInvalidateAll(t *testing.T) {
	f := &mockFetcher{fetchFn: homeSchema}
	router := setupRouter(t, f, &mockLister{})

	w := do(router, http.MethodDelete, "/api/v1/cache/pages", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, f.flushed)

	w = do(router, http.MethodDelete, "/api/v1/cache/pages", signToken(t))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"removed":7}`, w.Body.String())
	assert.Equal(t, 1, f.flushed)

	f.invalidateErr = errors.New("redis down")
	w = do(router, http.MethodDelete, "/api/v1/cache/pages", signToken(t))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCatalog(t *testing.T) {
	lister := &mockLister{refs: []domain.PageRef{
		{TenantID: &tenantA, Slug: "home", Language: "en"},
		{Slug: "header", Language: "en"},
	}}
	router := setupRouter(t, &mockFetcher{fetchFn: homeSchema}, lister)

	w := do(router, http.MethodGet, "/api/v1/themes", "")
	require.Equal(t, http.StatusOK, w.Code)
	var themes struct {
		Default string `json:"default"`
		Themes  []struct {
			ID         string   `json:"id"`
			Components []string `json:"components"`
		} `json:"themes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &themes))
	assert.Equal(t, theme.Classic, themes.Default)
	require.Len(t, themes.Themes, 2)
	assert.Equal(t, theme.Bold, themes.Themes[0].ID)
	assert.Contains(t, themes.Themes[0].Components, theme.TypeHeroSection)

	w = do(router, http.MethodGet, "/api/v1/pages?tenant="+tenantA.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"scope":"master"`)
	assert.Contains(t, w.Body.String(), `"count":2`)

	lister.err = errors.New("db down")
	w = do(router, http.MethodGet, "/api/v1/pages", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router := setupRouter(t, &mockFetcher{fetchFn: homeSchema}, &mockLister{})

	w := do(router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
