package api

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/docno/mailward/internal/auth"
	"github.com/docno/mailward/internal/render"
	"github.com/docno/mailward/internal/store"
)

// UpsertTemplate creates or replaces a template within one of the user's
// domains. The body is parse-validated up front so syntax errors surface at
// upsert time instead of at send time, and the cache is updated right after
// the store write.
func (h *Handler) UpsertTemplate(c *gin.Context) {
	user := auth.FromContext(c)

	var body struct {
		Domain   string `json:"domain" binding:"required"`
		Name     string `json:"name" binding:"required"`
		Template string `json:"template" binding:"required"`
		Locale   string `json:"locale"`
		Sender   string `json:"sender"`
		Subject  string `json:"subject"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d, ok := h.resolveDomain(c, user, body.Domain)
	if !ok {
		return
	}

	if err := render.Validate(body.Template); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, created, err := h.queries.UpsertTemplate(c.Request.Context(), store.UpsertTemplateParams{
		UserID:   user.UserID,
		DomainID: d.DomainID,
		Name:     body.Name,
		Locale:   body.Locale,
		Body:     body.Template,
		Sender:   body.Sender,
		Subject:  body.Subject,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save template"})
		return
	}

	if err := h.cache.UpsertTemplate(t); err != nil {
		h.fail(c, err)
		return
	}

	h.log.Info().Str("slug", t.Slug).Str("domain", d.Domain).Bool("created", created).Msg("template upserted")
	c.JSON(http.StatusOK, gin.H{"status": "OK", "slug": t.Slug, "created": created})
}

// ListTemplates returns the cached templates of one of the user's domains.
func (h *Handler) ListTemplates(c *gin.Context) {
	user := auth.FromContext(c)

	d, ok := h.resolveDomain(c, user, c.Query("domain"))
	if !ok {
		return
	}

	templates := h.cache.TemplatesForDomain(d.DomainID)
	sort.Slice(templates, func(i, j int) bool { return templates[i].Slug < templates[j].Slug })

	type entry struct {
		Name    string `json:"name"`
		Locale  string `json:"locale"`
		Slug    string `json:"slug"`
		Subject string `json:"subject"`
		Sender  string `json:"sender"`
	}
	out := make([]entry, 0, len(templates))
	for _, t := range templates {
		out = append(out, entry{Name: t.Name, Locale: t.Locale, Slug: t.Slug, Subject: t.Subject, Sender: t.Sender})
	}
	c.JSON(http.StatusOK, out)
}
