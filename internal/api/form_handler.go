package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docno/mailward/internal/render"
)

// SendForm handles public form submissions: the form ID selects a registered
// recipient/sender/template triple, and every other submitted field is
// rendered into the form's dump template. Field values are untrusted, so
// auto-escaping stays on.
func (h *Handler) SendForm(c *gin.Context) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	formID, _ := body["formid"].(string)
	if formID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing formid field in form"})
		return
	}
	form, ok := h.forms.Get(formID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such form " + formID})
		return
	}

	fields := make(map[string]any, len(body))
	for k, v := range body {
		if k != "formid" {
			fields[k] = v
		}
	}

	html, err := render.Render(form.Template, map[string]any{"Fields": fields}, render.Options{})
	if err != nil {
		h.log.Error().Err(err).Str("formid", formID).Msg("form template render failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "form template render failed"})
		return
	}

	if err := h.pipeline.DispatchRaw(c.Request.Context(), form.Sender, form.Rcpt, form.Subject, html); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}
