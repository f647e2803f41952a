package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docno/mailward/internal/auth"
	"github.com/docno/mailward/internal/mailer"
)

// Send runs the dispatch pipeline: resolve the template through the locale
// fallback, render per recipient, and hand each message to the mail transport.
func (h *Handler) Send(c *gin.Context) {
	user := auth.FromContext(c)

	var body struct {
		Name    string         `json:"name" binding:"required"`
		Domain  string         `json:"domain" binding:"required"`
		Rcpt    string         `json:"rcpt" binding:"required"`
		Locale  string         `json:"locale"`
		Vars    map[string]any `json:"vars"`
		Subject string         `json:"subject"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d, ok := h.resolveDomain(c, user, body.Domain)
	if !ok {
		return
	}

	result, err := h.pipeline.Dispatch(c.Request.Context(), mailer.DispatchRequest{
		User:       user,
		Domain:     d,
		Name:       body.Name,
		Locale:     body.Locale,
		Recipients: body.Rcpt,
		Vars:       body.Vars,
		Subject:    body.Subject,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "OK",
		"dispatch_id": result.DispatchID,
		"sent":        len(result.Recipients),
	})
}
