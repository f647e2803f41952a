package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailSender delivers mail through the Gmail API using a service account
// with domain-wide delegation for the impersonated sender address.
type GmailSender struct {
	service *gmail.Service
	userID  string
}

func NewGmailSender(ctx context.Context, credentialsJSON []byte, impersonate string) (*GmailSender, error) {
	config, err := google.JWTConfigFromJSON(credentialsJSON, gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("gmail: parse service account credentials: %w", err)
	}
	config.Subject = impersonate

	service, err := gmail.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("gmail: create service: %w", err)
	}
	return &GmailSender{service: service, userID: "me"}, nil
}

func (g *GmailSender) Send(ctx context.Context, msg Message) error {
	raw, err := buildMIME(msg)
	if err != nil {
		return fmt.Errorf("gmail: build message for %s: %w", msg.To, err)
	}
	_, err = g.service.Users.Messages.Send(g.userID, &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(raw)),
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gmail send to %s: %w", msg.To, err)
	}
	return nil
}

// buildMIME assembles a multipart/alternative RFC 822 message with plain-text
// and HTML parts. The part boundary is randomly generated so body content can
// never collide with it.
func buildMIME(msg Message) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain; charset=UTF-8"}})
	if err != nil {
		return "", err
	}
	if _, err := part.Write([]byte(msg.Text)); err != nil {
		return "", err
	}

	part, err = mw.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/html; charset=UTF-8"}})
	if err != nil {
		return "", err
	}
	if _, err := part.Write([]byte(msg.HTML)); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", msg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())
	b.WriteString(body.String())
	return b.String(), nil
}
