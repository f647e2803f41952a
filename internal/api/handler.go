package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/docno/mailward/internal/auth"
	"github.com/docno/mailward/internal/cache"
	"github.com/docno/mailward/internal/forms"
	"github.com/docno/mailward/internal/mailer"
	"github.com/docno/mailward/internal/store"
)

type Handler struct {
	queries  store.Querier
	cache    *cache.Cache
	pipeline *mailer.Pipeline
	forms    *forms.Registry
	log      zerolog.Logger
}

// CreateUser provisions a new user and returns the API token (shown once).
func (h *Handler) CreateUser(c *gin.Context) {
	var body struct {
		IDName    string `json:"idname" binding:"required"`
		Name      string `json:"name"`
		Email     string `json:"email" binding:"required"`
		DefLocale string `json:"deflocale"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := auth.GenerateToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	u, err := h.queries.CreateUser(c.Request.Context(), store.CreateUserParams{
		IDName:    body.IDName,
		TokenHash: auth.HashToken(token),
		Name:      body.Name,
		Email:     body.Email,
		DefLocale: body.DefLocale,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user_id": u.UserID,
		"token":   token,
		"note":    "Store this API token; it will not be shown again.",
	})
}

// resolveDomain looks up a domain by name for the authenticated user,
// preferring the cache and backfilling it from the store on a miss. Writes the
// error response itself and reports success via the bool.
func (h *Handler) resolveDomain(c *gin.Context, user store.User, name string) (store.Domain, bool) {
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing domain"})
		return store.Domain{}, false
	}
	d, ok := h.cache.DomainByName(name)
	if !ok {
		var err error
		d, err = h.queries.GetDomainByName(c.Request.Context(), name)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown domain: " + name})
			return store.Domain{}, false
		}
		h.cache.UpsertDomain(d)
	}
	// Domains belonging to other users are indistinguishable from missing ones.
	if d.UserID != user.UserID {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown domain: " + name})
		return store.Domain{}, false
	}
	return d, true
}

// fail maps pipeline and cache errors onto HTTP statuses.
func (h *Handler) fail(c *gin.Context, err error) {
	var perr *mailer.Error
	if errors.As(err, &perr) {
		switch perr.Kind {
		case mailer.KindInput:
			c.JSON(http.StatusBadRequest, gin.H{"error": perr.Error()})
		case mailer.KindLookup:
			c.JSON(http.StatusNotFound, gin.H{"error": perr.Error()})
		case mailer.KindRender:
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": perr.Error()})
		case mailer.KindDispatch:
			c.JSON(http.StatusBadGateway, gin.H{"error": perr.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": perr.Error()})
		}
		return
	}
	if errors.Is(err, cache.ErrDomainNotCached) {
		// Ordering bug on our side, not a client problem.
		h.log.Error().Err(err).Msg("cache ordering violation")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal cache inconsistency"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
