package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
)

type stubSESClient struct {
	input *sesv2.SendEmailInput
	err   error
}

func (s *stubSESClient) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	s.input = params
	return &sesv2.SendEmailOutput{}, s.err
}

func TestSESSenderBuildsSimpleMessage(t *testing.T) {
	client := &stubSESClient{}
	sender := NewSESSender(client)

	msg := Message{
		From:    "Acme <noreply@acme.com>",
		To:      "bob@x.com",
		Subject: "Welcome",
		HTML:    "<p>hi</p>",
		Text:    "hi",
	}
	if err := sender.Send(context.Background(), msg); err != nil {
		t.Fatal(err)
	}

	in := client.input
	if in == nil {
		t.Fatal("no SendEmail call recorded")
	}
	if got := in.Destination.ToAddresses; len(got) != 1 || got[0] != "bob@x.com" {
		t.Errorf("ToAddresses = %v", got)
	}
	if *in.FromEmailAddress != "Acme <noreply@acme.com>" {
		t.Errorf("FromEmailAddress = %q", *in.FromEmailAddress)
	}
	simple := in.Content.Simple
	if *simple.Subject.Data != "Welcome" {
		t.Errorf("Subject = %q", *simple.Subject.Data)
	}
	if *simple.Body.Html.Data != "<p>hi</p>" || *simple.Body.Text.Data != "hi" {
		t.Errorf("Body = %q / %q", *simple.Body.Html.Data, *simple.Body.Text.Data)
	}
}

func TestSESSenderWrapsFailure(t *testing.T) {
	cause := errors.New("throttled")
	sender := NewSESSender(&stubSESClient{err: cause})

	err := sender.Send(context.Background(), Message{To: "bob@x.com"})
	if !errors.Is(err, cause) {
		t.Fatalf("err = %v", err)
	}
}
