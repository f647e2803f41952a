// Package cache holds an in-memory mirror of domains and templates so the send
// path never touches the store. It is preloaded once at startup and kept
// coherent by explicit upserts after every successful store write.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/docno/mailward/internal/store"
)

// ErrDomainNotCached reports a template upsert for a domain the cache has
// never seen. Domains must be preloaded or upserted before their templates;
// hitting this is an ordering bug in the caller, not a retryable condition.
var ErrDomainNotCached = errors.New("domain not cached")

// Cache is shared by all requests and guarded by a reader-writer lock: the
// resolver takes read locks on the hot send path, upserts take the write lock.
type Cache struct {
	mu        sync.RWMutex
	domains   map[int64]store.Domain
	byName    map[string]int64
	templates map[int64]map[string]store.Template
}

func New() *Cache {
	return &Cache{
		domains:   make(map[int64]store.Domain),
		byName:    make(map[string]int64),
		templates: make(map[int64]map[string]store.Template),
	}
}

// Preload loads all domains, then all templates. Domains must come first:
// template insertion requires the owning domain to be present already. A store
// failure here is a startup precondition failure; the caller should treat it
// as fatal.
func (c *Cache) Preload(ctx context.Context, q store.Querier) error {
	domains, err := q.ListDomains(ctx)
	if err != nil {
		return fmt.Errorf("preload domains: %w", err)
	}
	templates, err := q.ListTemplates(ctx)
	if err != nil {
		return fmt.Errorf("preload templates: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range domains {
		c.putDomain(d)
	}
	for _, t := range templates {
		if err := c.putTemplate(t); err != nil {
			return fmt.Errorf("preload: %w", err)
		}
	}
	return nil
}

// UpsertDomain inserts or overwrites the domain entry. Template records keep
// no copy of the domain's default locale; the resolver reads it from here at
// resolve time, so an update takes effect immediately.
func (c *Cache) UpsertDomain(d store.Domain) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putDomain(d)
}

// UpsertTemplate inserts or overwrites the template at its slug key. The
// owning domain must already be cached.
func (c *Cache) UpsertTemplate(t store.Template) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.putTemplate(t)
}

func (c *Cache) putDomain(d store.Domain) {
	if prev, ok := c.domains[d.DomainID]; ok && prev.Domain != d.Domain {
		delete(c.byName, prev.Domain)
	}
	c.domains[d.DomainID] = d
	c.byName[d.Domain] = d.DomainID
}

func (c *Cache) putTemplate(t store.Template) error {
	if _, ok := c.domains[t.DomainID]; !ok {
		return fmt.Errorf("upsert template %q: %w (domain_id=%d)", t.Slug, ErrDomainNotCached, t.DomainID)
	}
	tmpls, ok := c.templates[t.DomainID]
	if !ok {
		tmpls = make(map[string]store.Template)
		c.templates[t.DomainID] = tmpls
	}
	tmpls[t.Slug] = t
	return nil
}

// DomainByID returns the cached domain, if any.
func (c *Cache) DomainByID(domainID int64) (store.Domain, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.domains[domainID]
	return d, ok
}

// DomainByName returns the cached domain with the given unique name, if any.
func (c *Cache) DomainByName(name string) (store.Domain, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byName[name]
	if !ok {
		return store.Domain{}, false
	}
	return c.domains[id], true
}

// TemplatesForDomain returns a snapshot of the domain's cached templates.
func (c *Cache) TemplatesForDomain(domainID int64) []store.Template {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tmpls := c.templates[domainID]
	out := make([]store.Template, 0, len(tmpls))
	for _, t := range tmpls {
		out = append(out, t)
	}
	return out
}

// Stats reports cached domain and template counts, for startup logging.
func (c *Cache) Stats() (domains, templates int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	domains = len(c.domains)
	for _, tmpls := range c.templates {
		templates += len(tmpls)
	}
	return domains, templates
}
