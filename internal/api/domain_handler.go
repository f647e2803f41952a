package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/docno/mailward/internal/auth"
	"github.com/docno/mailward/internal/store"
)

// UpsertDomain creates or updates a domain owned by the authenticated user.
// The cache entry is refreshed right after the store write so the next resolve
// sees the new default locale and sender.
func (h *Handler) UpsertDomain(c *gin.Context) {
	user := auth.FromContext(c)

	var body struct {
		Domain    string `json:"domain" binding:"required"`
		Sender    string `json:"sender"`
		DefLocale string `json:"deflocale"`
		IsDefault bool   `json:"is_default"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d, err := h.queries.UpsertDomain(c.Request.Context(), store.UpsertDomainParams{
		UserID:    user.UserID,
		Domain:    body.Domain,
		Sender:    body.Sender,
		DefLocale: body.DefLocale,
		IsDefault: body.IsDefault,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		c.JSON(http.StatusConflict, gin.H{"error": "domain name is registered to another user"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save domain"})
		return
	}

	h.cache.UpsertDomain(d)
	c.JSON(http.StatusOK, d)
}
