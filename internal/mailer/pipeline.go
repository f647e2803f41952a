package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/jaytaylor/html2text"
	"github.com/rs/zerolog"

	"github.com/docno/mailward/internal/cache"
	"github.com/docno/mailward/internal/render"
	"github.com/docno/mailward/internal/store"
)

// RecipientVar is injected into the render variables for each recipient.
const RecipientVar = "_rcpt_email_"

// recipientPlaceholder is substituted literally in the rendered output. It is
// a second mechanism on top of the template engine, for templates that embed
// the placeholder inside raw HTML attributes the escaper would mangle.
const recipientPlaceholder = "%recipient_email%"

// Pipeline renders resolved templates and dispatches them, one recipient at a
// time, through an opaque mail-sending capability.
type Pipeline struct {
	cache  *cache.Cache
	sender Sender
	log    zerolog.Logger
}

func NewPipeline(c *cache.Cache, sender Sender, log zerolog.Logger) *Pipeline {
	return &Pipeline{cache: c, sender: sender, log: log}
}

// DispatchRequest describes one send: a template name resolved within the
// authenticated user's domain, a raw comma-separated recipient list, and
// caller-supplied variables.
type DispatchRequest struct {
	User       store.User
	Domain     store.Domain
	Name       string
	Locale     string
	Recipients string
	Vars       map[string]any
	Subject    string // optional override; falls back to the template subject
}

// DispatchResult reports a completed send.
type DispatchResult struct {
	DispatchID uuid.UUID `json:"dispatch_id"`
	Recipients []string  `json:"recipients"`
}

// ValidateRecipients splits raw on commas, trims entries, drops empties, and
// partitions the remainder into RFC 5322 mailbox addresses and rejects.
func ValidateRecipients(raw string) (valid, invalid []string) {
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		addr, err := mail.ParseAddress(entry)
		if err != nil {
			invalid = append(invalid, entry)
			continue
		}
		valid = append(valid, addr.Address)
	}
	return valid, invalid
}

// resolveLocale applies the lookup precedence: explicit request, then domain
// default, then user default, then unspecified. The resolver's own fallback
// tiers apply on top of whatever this returns.
func resolveLocale(requested string, d store.Domain, u store.User) string {
	if requested != "" {
		return requested
	}
	if d.DefLocale != "" {
		return d.DefLocale
	}
	return u.DefLocale
}

// resolveSender applies the sender precedence: template override, domain
// default sender, then an address synthesized from the owning user.
func resolveSender(t store.Template, d store.Domain, u store.User) (string, error) {
	if t.Sender != "" {
		return t.Sender, nil
	}
	if d.Sender != "" {
		return d.Sender, nil
	}
	if u.Email != "" {
		return fmt.Sprintf("%s <%s>", u.Name, u.Email), nil
	}
	return "", inputError("no sender: template %q, domain %q, and user %q all have empty sender identities", t.Name, d.Domain, u.IDName)
}

// Dispatch runs the full send pipeline. Recipients are validated up front and
// the whole request fails if any entry is invalid; sends then proceed
// sequentially in validated order, and the first dispatch failure aborts the
// remainder. Already-sent messages are not recalled and no partial-success
// report is produced.
func (p *Pipeline) Dispatch(ctx context.Context, req DispatchRequest) (DispatchResult, error) {
	if req.Name == "" {
		return DispatchResult{}, inputError("missing template name")
	}
	if req.Recipients == "" {
		return DispatchResult{}, inputError("missing recipient list")
	}
	if req.Domain.DomainID == 0 {
		return DispatchResult{}, inputError("missing domain")
	}

	valid, invalid := ValidateRecipients(req.Recipients)
	if len(invalid) > 0 {
		return DispatchResult{}, inputError("invalid email address(es): %s", strings.Join(invalid, ","))
	}
	if len(valid) == 0 {
		return DispatchResult{}, inputError("recipient list contains no addresses")
	}

	locale := resolveLocale(req.Locale, req.Domain, req.User)
	tpl, err := p.cache.Resolve(req.Domain.DomainID, locale, req.Name)
	if err != nil {
		return DispatchResult{}, lookupError("template resolution failed", err)
	}

	from, err := resolveSender(tpl, req.Domain, req.User)
	if err != nil {
		return DispatchResult{}, err
	}

	subject := req.Subject
	if subject == "" {
		subject = tpl.Subject
	}

	dispatchID := uuid.New()
	log := p.log.With().
		Stringer("dispatch_id", dispatchID).
		Str("domain", req.Domain.Domain).
		Str("template", tpl.Slug).
		Logger()

	for i, rcpt := range valid {
		msg, err := p.buildMessage(tpl, from, subject, rcpt, req.Vars)
		if err != nil {
			return DispatchResult{}, err
		}
		if err := p.sender.Send(ctx, msg); err != nil {
			log.Error().Err(err).Str("rcpt", rcpt).Int("sent", i).Msg("dispatch aborted")
			return DispatchResult{}, dispatchError(
				fmt.Sprintf("send to %s failed after %d of %d messages were dispatched", rcpt, i, len(valid)), err)
		}
		log.Debug().Str("rcpt", rcpt).Msg("message dispatched")
	}

	log.Info().Int("recipients", len(valid)).Msg("dispatch complete")
	return DispatchResult{DispatchID: dispatchID, Recipients: valid}, nil
}

// buildMessage renders the template for one recipient, applies the literal
// placeholder substitution, and derives the plain-text alternative.
func (p *Pipeline) buildMessage(tpl store.Template, from, subject, rcpt string, vars map[string]any) (Message, error) {
	full := make(map[string]any, len(vars)+1)
	for k, v := range vars {
		full[k] = v
	}
	full[RecipientVar] = rcpt

	html, err := render.Render(tpl.Body, full, render.Options{})
	if err != nil {
		return Message{}, renderError(fmt.Sprintf("render template %q", tpl.Slug), err)
	}
	html = strings.ReplaceAll(html, recipientPlaceholder, rcpt)

	text, err := html2text.FromString(html)
	if err != nil {
		return Message{}, renderError(fmt.Sprintf("derive text body for template %q", tpl.Slug), err)
	}

	return Message{From: from, To: rcpt, Subject: subject, HTML: html, Text: text}, nil
}

// ResolveAndRender resolves a template through the locale fallback and renders
// it without dispatching. Used by callers that want the HTML only.
func (p *Pipeline) ResolveAndRender(user store.User, domain store.Domain, locale, name string, vars map[string]any) (string, error) {
	tpl, err := p.cache.Resolve(domain.DomainID, resolveLocale(locale, domain, user), name)
	if err != nil {
		return "", lookupError("template resolution failed", err)
	}
	html, err := render.Render(tpl.Body, vars, render.Options{})
	if err != nil {
		return "", renderError(fmt.Sprintf("render template %q", tpl.Slug), err)
	}
	return html, nil
}

// DispatchRaw sends already-rendered HTML to a single recipient, deriving the
// plain-text alternative. Used by the form-to-email surface, which bypasses
// template resolution.
func (p *Pipeline) DispatchRaw(ctx context.Context, from, to, subject, html string) error {
	text, err := html2text.FromString(html)
	if err != nil {
		return renderError("derive text body", err)
	}
	msg := Message{From: from, To: to, Subject: subject, HTML: html, Text: text}
	if err := p.sender.Send(ctx, msg); err != nil {
		return dispatchError(fmt.Sprintf("send to %s failed", to), err)
	}
	return nil
}

// IsKind reports whether err is a pipeline error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
