package mailer_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/docno/mailward/internal/cache"
	"github.com/docno/mailward/internal/mailer"
	"github.com/docno/mailward/internal/store"
)

// fakeSender records dispatched messages and can be told to fail on the Nth
// send (1-based; 0 never fails).
type fakeSender struct {
	sent   []mailer.Message
	failOn int
	err    error
}

func (f *fakeSender) Send(ctx context.Context, msg mailer.Message) error {
	if f.failOn > 0 && len(f.sent)+1 == f.failOn {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func testCache(t *testing.T) *cache.Cache {
	t.Helper()
	c := cache.New()
	c.UpsertDomain(store.Domain{
		DomainID:  1,
		UserID:    10,
		Domain:    "acme.com",
		Sender:    "Acme <noreply@acme.com>",
		DefLocale: "en",
	})
	if err := c.UpsertTemplate(store.Template{
		DomainID: 1,
		UserID:   10,
		Name:     "welcome",
		Locale:   "en",
		Subject:  "Welcome aboard",
		Body:     `Hi {{.name}}, <a href="mailto:%recipient_email%">reply</a>`,
		Slug:     store.Slug("en", "welcome"),
	}); err != nil {
		t.Fatal(err)
	}
	return c
}

func testUser() store.User {
	return store.User{UserID: 10, IDName: "acme", Name: "Acme Ops", Email: "ops@acme.com"}
}

func testDomain() store.Domain {
	return store.Domain{
		DomainID:  1,
		UserID:    10,
		Domain:    "acme.com",
		Sender:    "Acme <noreply@acme.com>",
		DefLocale: "en",
	}
}

func newTestPipeline(t *testing.T, f *fakeSender) *mailer.Pipeline {
	t.Helper()
	return mailer.NewPipeline(testCache(t), f, zerolog.Nop())
}

func TestValidateRecipients(t *testing.T) {
	valid, invalid := mailer.ValidateRecipients("a@x.com, ,b@x.com,not-an-email")
	if want := []string{"a@x.com", "b@x.com"}; !reflect.DeepEqual(valid, want) {
		t.Errorf("valid = %v, want %v", valid, want)
	}
	if want := []string{"not-an-email"}; !reflect.DeepEqual(invalid, want) {
		t.Errorf("invalid = %v, want %v", invalid, want)
	}
}

func TestDispatchEndToEnd(t *testing.T) {
	f := &fakeSender{}
	p := newTestPipeline(t, f)

	res, err := p.Dispatch(context.Background(), mailer.DispatchRequest{
		User:       testUser(),
		Domain:     testDomain(),
		Name:       "welcome",
		Recipients: "bob@x.com",
		Vars:       map[string]any{"name": "Bob"},
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(f.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(f.sent))
	}

	msg := f.sent[0]
	if msg.To != "bob@x.com" {
		t.Errorf("To = %q", msg.To)
	}
	if msg.From != "Acme <noreply@acme.com>" {
		t.Errorf("From = %q", msg.From)
	}
	if msg.Subject != "Welcome aboard" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.HTML, "Hi Bob,") {
		t.Errorf("HTML missing substituted variable: %q", msg.HTML)
	}
	if !strings.Contains(msg.HTML, "mailto:bob@x.com") {
		t.Errorf("HTML missing recipient placeholder substitution: %q", msg.HTML)
	}
	if strings.Contains(msg.HTML, "%recipient_email%") {
		t.Errorf("placeholder left in HTML: %q", msg.HTML)
	}
	if msg.Text == "" {
		t.Error("no plain-text alternative derived")
	}
	if res.DispatchID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("dispatch ID not assigned")
	}
	if !reflect.DeepEqual(res.Recipients, []string{"bob@x.com"}) {
		t.Errorf("Recipients = %v", res.Recipients)
	}
}

func TestDispatchPerRecipientSubstitution(t *testing.T) {
	f := &fakeSender{}
	p := newTestPipeline(t, f)

	_, err := p.Dispatch(context.Background(), mailer.DispatchRequest{
		User:       testUser(),
		Domain:     testDomain(),
		Name:       "welcome",
		Recipients: "a@x.com,b@x.com",
		Vars:       map[string]any{"name": "Team"},
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(f.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(f.sent))
	}
	if !strings.Contains(f.sent[0].HTML, "mailto:a@x.com") {
		t.Errorf("first message HTML = %q", f.sent[0].HTML)
	}
	if !strings.Contains(f.sent[1].HTML, "mailto:b@x.com") {
		t.Errorf("second message HTML = %q", f.sent[1].HTML)
	}
}

func TestDispatchRejectsInvalidRecipientListEntirely(t *testing.T) {
	f := &fakeSender{}
	p := newTestPipeline(t, f)

	_, err := p.Dispatch(context.Background(), mailer.DispatchRequest{
		User:       testUser(),
		Domain:     testDomain(),
		Name:       "welcome",
		Recipients: "a@x.com, ,b@x.com,not-an-email",
	})
	if !mailer.IsKind(err, mailer.KindInput) {
		t.Fatalf("err = %v, want %s", err, mailer.KindInput)
	}
	if !strings.Contains(err.Error(), "not-an-email") {
		t.Errorf("error does not name the bad entry: %v", err)
	}
	if len(f.sent) != 0 {
		t.Fatalf("dispatched %d messages despite invalid list", len(f.sent))
	}
}

func TestDispatchMissingInputs(t *testing.T) {
	p := newTestPipeline(t, &fakeSender{})
	base := mailer.DispatchRequest{
		User: testUser(), Domain: testDomain(), Name: "welcome", Recipients: "a@x.com",
	}

	req := base
	req.Name = ""
	if _, err := p.Dispatch(context.Background(), req); !mailer.IsKind(err, mailer.KindInput) {
		t.Errorf("missing name: err = %v", err)
	}

	req = base
	req.Recipients = ""
	if _, err := p.Dispatch(context.Background(), req); !mailer.IsKind(err, mailer.KindInput) {
		t.Errorf("missing recipients: err = %v", err)
	}

	req = base
	req.Domain = store.Domain{}
	if _, err := p.Dispatch(context.Background(), req); !mailer.IsKind(err, mailer.KindInput) {
		t.Errorf("missing domain: err = %v", err)
	}
}

func TestDispatchUnknownTemplate(t *testing.T) {
	p := newTestPipeline(t, &fakeSender{})

	_, err := p.Dispatch(context.Background(), mailer.DispatchRequest{
		User:       testUser(),
		Domain:     testDomain(),
		Name:       "no-such-template",
		Recipients: "a@x.com",
	})
	if !mailer.IsKind(err, mailer.KindLookup) {
		t.Fatalf("err = %v, want %s", err, mailer.KindLookup)
	}
	var nf *cache.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("cause is not a resolution error: %v", err)
	}
}

func TestDispatchAbortsOnFirstSendFailure(t *testing.T) {
	f := &fakeSender{failOn: 2, err: errors.New("smtp: connection reset")}
	p := newTestPipeline(t, f)

	_, err := p.Dispatch(context.Background(), mailer.DispatchRequest{
		User:       testUser(),
		Domain:     testDomain(),
		Name:       "welcome",
		Recipients: "a@x.com,b@x.com,c@x.com",
	})
	if !mailer.IsKind(err, mailer.KindDispatch) {
		t.Fatalf("err = %v, want %s", err, mailer.KindDispatch)
	}
	if !strings.Contains(err.Error(), "after 1 of 3") {
		t.Errorf("error does not report progress: %v", err)
	}
	// First send succeeded and stays sent; the third was never attempted.
	if len(f.sent) != 1 || f.sent[0].To != "a@x.com" {
		t.Fatalf("sent = %+v", f.sent)
	}
}

func TestDispatchSubjectOverride(t *testing.T) {
	f := &fakeSender{}
	p := newTestPipeline(t, f)

	_, err := p.Dispatch(context.Background(), mailer.DispatchRequest{
		User:       testUser(),
		Domain:     testDomain(),
		Name:       "welcome",
		Recipients: "a@x.com",
		Subject:    "Override",
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if f.sent[0].Subject != "Override" {
		t.Errorf("Subject = %q", f.sent[0].Subject)
	}
}

func TestDispatchSenderPrecedence(t *testing.T) {
	// Template sender beats the domain sender.
	c := testCache(t)
	if err := c.UpsertTemplate(store.Template{
		DomainID: 1,
		UserID:   10,
		Name:     "billing",
		Locale:   "en",
		Sender:   "Billing <billing@acme.com>",
		Body:     "invoice attached",
		Slug:     store.Slug("en", "billing"),
	}); err != nil {
		t.Fatal(err)
	}
	f := &fakeSender{}
	p := mailer.NewPipeline(c, f, zerolog.Nop())

	_, err := p.Dispatch(context.Background(), mailer.DispatchRequest{
		User: testUser(), Domain: testDomain(), Name: "billing", Recipients: "a@x.com",
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if f.sent[0].From != "Billing <billing@acme.com>" {
		t.Errorf("From = %q", f.sent[0].From)
	}

	// Without template and domain senders, fall back to the owning user.
	d := testDomain()
	d.Sender = ""
	c.UpsertDomain(d)
	f.sent = nil
	_, err = p.Dispatch(context.Background(), mailer.DispatchRequest{
		User: testUser(), Domain: d, Name: "welcome", Recipients: "a@x.com",
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if f.sent[0].From != "Acme Ops <ops@acme.com>" {
		t.Errorf("From = %q", f.sent[0].From)
	}
}

func TestDispatchNoSenderAnywhere(t *testing.T) {
	c := testCache(t)
	d := testDomain()
	d.Sender = ""
	c.UpsertDomain(d)
	p := mailer.NewPipeline(c, &fakeSender{}, zerolog.Nop())

	u := testUser()
	u.Email = ""
	_, err := p.Dispatch(context.Background(), mailer.DispatchRequest{
		User: u, Domain: d, Name: "welcome", Recipients: "a@x.com",
	})
	if !mailer.IsKind(err, mailer.KindInput) {
		t.Fatalf("err = %v, want %s", err, mailer.KindInput)
	}
}

func TestDispatchLocaleFallsBackToDomainDefault(t *testing.T) {
	f := &fakeSender{}
	p := newTestPipeline(t, f)

	// No "fr-welcome" exists; the resolver lands on "en-welcome".
	_, err := p.Dispatch(context.Background(), mailer.DispatchRequest{
		User:       testUser(),
		Domain:     testDomain(),
		Name:       "welcome",
		Locale:     "fr",
		Recipients: "a@x.com",
		Vars:       map[string]any{"name": "Ana"},
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !strings.Contains(f.sent[0].HTML, "Hi Ana,") {
		t.Errorf("HTML = %q", f.sent[0].HTML)
	}
}

func TestDispatchRaw(t *testing.T) {
	f := &fakeSender{}
	p := newTestPipeline(t, f)

	err := p.DispatchRaw(context.Background(), "forms@acme.com", "inbox@acme.com",
		"Contact form", "<p>hello</p>")
	if err != nil {
		t.Fatalf("DispatchRaw: %v", err)
	}
	if len(f.sent) != 1 {
		t.Fatalf("sent %d messages", len(f.sent))
	}
	if f.sent[0].Text == "" {
		t.Error("no plain-text alternative derived")
	}
}

func TestResolveAndRender(t *testing.T) {
	p := newTestPipeline(t, &fakeSender{})

	html, err := p.ResolveAndRender(testUser(), testDomain(), "", "welcome",
		map[string]any{"name": "Bob"})
	if err != nil {
		t.Fatalf("ResolveAndRender: %v", err)
	}
	if !strings.Contains(html, "Hi Bob,") {
		t.Errorf("html = %q", html)
	}
}
