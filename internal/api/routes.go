package api

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/docno/mailward/internal/auth"
	"github.com/docno/mailward/internal/cache"
	"github.com/docno/mailward/internal/forms"
	"github.com/docno/mailward/internal/mailer"
	"github.com/docno/mailward/internal/store"
)

func RegisterRoutes(r *gin.Engine, q store.Querier, tc *cache.Cache, p *mailer.Pipeline, reg *forms.Registry, log zerolog.Logger) *Handler {
	h := &Handler{
		queries:  q,
		cache:    tc,
		pipeline: p,
		forms:    reg,
		log:      log,
	}

	// User provisioning (would be admin-gated in production)
	r.POST("/users", h.CreateUser)

	// Static form-to-email: called from public web forms, no token auth.
	r.POST("/sendform", h.SendForm)

	// Authenticated routes
	authed := r.Group("/", auth.Middleware(q))
	{
		authed.POST("/domain", h.UpsertDomain)
		authed.POST("/template", h.UpsertTemplate)
		authed.GET("/templates", h.ListTemplates)
		authed.POST("/send", h.Send)
	}

	return h
}
