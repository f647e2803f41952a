package cache

import (
	"errors"
	"fmt"
	"strings"

	"github.com/docno/mailward/internal/store"
)

// ErrNoTemplates reports a resolve against a domain with no cached templates.
var ErrNoTemplates = errors.New("no templates cached for domain")

// NotFoundError reports that no fallback tier matched. The attempted slugs are
// kept in try order for diagnostics.
type NotFoundError struct {
	Domain string
	Name   string
	Slugs  []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("template %q not found for any locale in domain %q (tried slugs: %s)",
		e.Name, e.Domain, strings.Join(e.Slugs, ", "))
}

// Resolve maps (domain, requested locale, template name) to a stored template
// using three fallback tiers, tried in order:
//
//	{locale}-{name}, then {domain default locale}-{name}, then {name}
//
// An empty requested locale resolves exactly as the domain default does, and a
// locale equal to the domain default simply matches on the first tier.
// Resolution is purely in-memory; the store is never consulted.
func (c *Cache) Resolve(domainID int64, locale, name string) (store.Template, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	d, ok := c.domains[domainID]
	if !ok {
		return store.Template{}, fmt.Errorf("resolve template %q: %w (domain_id=%d)", name, ErrDomainNotCached, domainID)
	}
	tmpls := c.templates[domainID]
	if len(tmpls) == 0 {
		return store.Template{}, fmt.Errorf("resolve template %q in domain %q: %w", name, d.Domain, ErrNoTemplates)
	}

	if locale == "" {
		locale = d.DefLocale
	}
	// Default locale comes from the live domain entry, not a snapshot taken at
	// first template insert, so domain updates apply on the next resolve.
	candidates := []string{
		store.Slug(locale, name),
		store.Slug(d.DefLocale, name),
		store.Slug("", name),
	}
	for _, slug := range candidates {
		if t, ok := tmpls[slug]; ok {
			return t, nil
		}
	}
	return store.Template{}, &NotFoundError{Domain: d.Domain, Name: name, Slugs: candidates}
}
