package defaults_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonesrussell/north-cloud/site-renderer/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/defaults"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *defaults.Store {
	t.Helper()
	s, err := defaults.New(logger.NewNop())
	require.NoError(t, err)
	return s
}

func TestNew_BuiltinPages(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	assert.Equal(t, []string{"faq", "home", "pricing"}, s.Slugs())

	for _, slug := range s.Slugs() {
		schema, ok := s.Get(domain.PageRef{Slug: slug, Language: "en"})
		require.True(t, ok, slug)
		assert.NotEmpty(t, schema.Components, slug)
		assert.Empty(t, domain.ValidatePageSchema(schema), slug)
	}
}

func TestFallback_ShapesSchemaForRequest(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	tenant := uuid.New()
	ref := domain.PageRef{TenantID: &tenant, Slug: "about-us", Language: "fr"}

	_, ok := s.Get(ref)
	assert.False(t, ok)

	schema := s.Fallback(ref)
	assert.Equal(t, "about-us", schema.Slug)
	assert.Equal(t, "fr", schema.Language)
	assert.Equal(t, &tenant, schema.TenantID)
	assert.NotEmpty(t, schema.Components)
}

func TestLoadDir_OverlayPrecedence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "home.json", `{"components":[{"key":"hero","type":"HeroSection","content":"Overlay"}]}`)
	writeFile(t, dir, "home.fr.json", `{"components":[{"key":"hero","type":"HeroSection","content":"Bienvenue"}]}`)
	writeFile(t, dir, "broken.json", `not json`)
	writeFile(t, dir, "notes.txt", `ignored`)

	s := newStore(t)
	require.NoError(t, s.LoadDir(dir))

	en, ok := s.Get(domain.PageRef{Slug: "home", Language: "en"})
	require.True(t, ok)
	assert.Equal(t, "Overlay", en.Components[0].Content)

	fr, ok := s.Get(domain.PageRef{Slug: "home", Language: "fr"})
	require.True(t, ok)
	assert.Equal(t, "Bienvenue", fr.Components[0].Content)

	_, ok = s.Get(domain.PageRef{Slug: "broken", Language: "en"})
	assert.False(t, ok)

	// Built-ins without an overlay are still served.
	_, ok = s.Get(domain.PageRef{Slug: "pricing", Language: "en"})
	assert.True(t, ok)
}

func TestLoadDir_MissingDirClearsOverlay(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "landing.json", `{"components":[{"key":"hero","type":"HeroSection"}]}`)

	s := newStore(t)
	require.NoError(t, s.LoadDir(dir))
	assert.Contains(t, s.Slugs(), "landing")

	require.NoError(t, s.LoadDir(filepath.Join(dir, "missing")))
	assert.NotContains(t, s.Slugs(), "landing")
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := newStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx, dir) }()

	// The initial load runs before the watch is registered; wait for the
	// watcher to pick up a file written afterwards.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "promo.json"),
			[]byte(`{"components":[{"key":"hero","type":"HeroSection","content":"Sale"}]}`), 0o600)
		schema, ok := s.Get(domain.PageRef{Slug: "promo", Language: "en"})
		return ok && schema.Components[0].Content == "Sale"
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}
