// Package domain holds the page schema model shared by storage, fetching and rendering.
package domain

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors.
var (
	ErrPageNotFound    = errors.New("page not found")
	ErrTenantNotFound  = errors.New("tenant not found")
	ErrMalformedSchema = errors.New("malformed page schema")
	ErrEmptySlug       = errors.New("slug is required")
)

// PageSchema is a page as authored: an ordered list of component nodes.
// A nil TenantID marks a shared master page visible to every tenant.
type PageSchema struct {
	TenantID   *uuid.UUID      `json:"tenant_id"`
	Slug       string          `json:"slug"`
	Language   string          `json:"language"`
	Components []ComponentNode `json:"components"`
}

// ComponentNode is one element of the tree. Type selects the component;
// Key identifies the node among its siblings. Items are child nodes.
type ComponentNode struct {
	Key     string            `json:"key"`
	Type    string            `json:"type"`
	Content string            `json:"content,omitempty"`
	Props   map[string]string `json:"props,omitempty"`
	Items   []ComponentNode   `json:"items,omitempty"`
}

// Prop returns the named prop or "".
func (n ComponentNode) Prop(name string) string {
	return n.Props[name]
}

// Tenant is a site owner as known to the tenant directory.
type Tenant struct {
	ID      uuid.UUID `db:"id"       json:"id"`
	Name    string    `db:"name"     json:"name"`
	ThemeID string    `db:"theme_id" json:"theme_id"`
}

// PageRef names a page schema in the store.
type PageRef struct {
	TenantID *uuid.UUID
	Slug     string
	Language string
}

// String renders the ref as tenant:slug:language, with "master" for shared pages.
func (r PageRef) String() string {
	return fmt.Sprintf("%s:%s:%s", r.Scope(), r.Slug, r.Language)
}

// Scope is the tenant id or "master".
func (r PageRef) Scope() string {
	if r.TenantID == nil {
		return "master"
	}
	return r.TenantID.String()
}

// Problem is one recoverable defect found in a schema document.
type Problem struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

func (p Problem) String() string {
	return p.Path + ": " + p.Reason
}

// ValidatePageSchema reports structural defects in an already-typed schema:
// a missing slug, a language that is not BCP 47, empty keys or types and
// duplicate sibling keys.
func ValidatePageSchema(s PageSchema) []Problem {
	var problems []Problem
	if s.Slug == "" {
		problems = append(problems, Problem{Path: "slug", Reason: "is required"})
	}
	if _, err := NormalizeLanguage(s.Language); err != nil {
		problems = append(problems, Problem{Path: "language", Reason: "is not a BCP 47 tag"})
	}
	return validateNodes("components", s.Components, problems)
}

func validateNodes(path string, nodes []ComponentNode, problems []Problem) []Problem {
	seen := make([]string, 0, len(nodes))
	for i, n := range nodes {
		p := fmt.Sprintf("%s[%d]", path, i)
		switch {
		case n.Key == "":
			problems = append(problems, Problem{Path: p, Reason: "key is required"})
		case slices.Contains(seen, n.Key):
			problems = append(problems, Problem{Path: p, Reason: fmt.Sprintf("duplicate key %q", n.Key)})
		default:
			seen = append(seen, n.Key)
		}
		if n.Type == "" {
			problems = append(problems, Problem{Path: p, Reason: "type is required"})
		}
		problems = validateNodes(p+".items", n.Items, problems)
	}
	return problems
}

// StoredSchema is a raw schema document as read from the store.
type StoredSchema struct {
	Ref       PageRef
	Document  []byte
	UpdatedAt time.Time
}
