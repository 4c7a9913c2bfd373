// Package defaults provides the built-in page schemas served when the schema
// store cannot answer. Built-ins are embedded in the binary; an optional
// overlay directory can replace or add pages and is reloaded on change.
package defaults

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/jonesrussell/north-cloud/site-renderer/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/domain"
)

// FallbackSlug names the generic page used when no default exists for a slug.
const FallbackSlug = "fallback"

//go:embed schemas/*.json
var builtinFS embed.FS

// Store holds default schemas keyed by slug, or slug.lang for language
// specific overlays. Overlay entries take precedence over built-ins.
type Store struct {
	mu      sync.RWMutex
	builtin map[string][]domain.ComponentNode
	overlay map[string][]domain.ComponentNode
	log     logger.Logger
}

// New loads the embedded defaults.
func New(log logger.Logger) (*Store, error) {
	builtin, err := loadFS(builtinFS, "schemas", log)
	if err != nil {
		return nil, fmt.Errorf("load built-in defaults: %w", err)
	}
	if _, ok := builtin[FallbackSlug]; !ok {
		return nil, fmt.Errorf("built-in defaults: missing %s.json", FallbackSlug)
	}
	return &Store{builtin: builtin, overlay: map[string][]domain.ComponentNode{}, log: log}, nil
}

// Get returns the default schema for slug, shaped for the requested tenant
// and language. Lookup order: overlay slug.lang, overlay slug, built-in slug.
func (s *Store) Get(ref domain.PageRef) (domain.PageSchema, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	components, ok := s.lookup(ref.Slug, ref.Language)
	if !ok {
		return domain.PageSchema{}, false
	}
	return schemaFor(ref, components), true
}

// Fallback returns the default for ref.Slug, or the generic fallback page.
// It always returns a schema.
func (s *Store) Fallback(ref domain.PageRef) domain.PageSchema {
	if schema, ok := s.Get(ref); ok {
		return schema
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	components, _ := s.lookup(FallbackSlug, ref.Language)
	return schemaFor(ref, components)
}

// Slugs lists the slugs with a default page, excluding the generic fallback.
func (s *Store) Slugs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := map[string]struct{}{}
	for k := range s.builtin {
		set[k] = struct{}{}
	}
	for k := range s.overlay {
		slug, _, _ := strings.Cut(k, ".")
		set[slug] = struct{}{}
	}
	delete(set, FallbackSlug)

	slugs := make([]string, 0, len(set))
	for k := range set {
		slugs = append(slugs, k)
	}
	slices.Sort(slugs)
	return slugs
}

// LoadDir replaces the overlay with the *.json files in dir. A missing
// directory clears the overlay. Files that fail to parse are skipped.
func (s *Store) LoadDir(dir string) error {
	overlay := map[string][]domain.ComponentNode{}

	if _, err := os.Stat(dir); err == nil {
		loaded, loadErr := loadFS(os.DirFS(dir), ".", s.log)
		if loadErr != nil {
			return fmt.Errorf("load defaults dir %s: %w", dir, loadErr)
		}
		overlay = loaded
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat defaults dir %s: %w", dir, err)
	}

	s.mu.Lock()
	s.overlay = overlay
	s.mu.Unlock()

	s.log.Info("Default schema overlay loaded",
		logger.String("dir", dir),
		logger.Int("pages", len(overlay)),
	)
	return nil
}

func (s *Store) lookup(slug, language string) ([]domain.ComponentNode, bool) {
	if language != "" {
		if c, ok := s.overlay[slug+"."+language]; ok {
			return c, true
		}
	}
	if c, ok := s.overlay[slug]; ok {
		return c, true
	}
	c, ok := s.builtin[slug]
	return c, ok
}

func schemaFor(ref domain.PageRef, components []domain.ComponentNode) domain.PageSchema {
	return domain.PageSchema{
		TenantID:   ref.TenantID,
		Slug:       ref.Slug,
		Language:   ref.Language,
		Components: components,
	}
}

func loadFS(fsys fs.FS, dir string, log logger.Logger) (map[string][]domain.ComponentNode, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	pages := make(map[string][]domain.ComponentNode, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")

		raw, readErr := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(dir, entry.Name())))
		if readErr != nil {
			return nil, readErr
		}

		components, problems, decodeErr := domain.DecodeDocument(raw)
		if decodeErr != nil {
			log.Warn("Skipping default schema",
				logger.String("file", entry.Name()),
				logger.Error(decodeErr),
			)
			continue
		}
		for _, p := range problems {
			log.Warn("Default schema problem",
				logger.String("file", entry.Name()),
				logger.String("problem", p.String()),
			)
		}
		pages[name] = components
	}
	return pages, nil
}
