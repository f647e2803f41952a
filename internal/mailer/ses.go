package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/aws/smithy-go"
)

// SESClient is the slice of the SESv2 API the sender uses; narrowed to an
// interface so tests can stub it.
type SESClient interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender delivers mail via AWS SESv2.
type SESSender struct {
	client SESClient
}

func NewSESSender(client SESClient) *SESSender {
	return &SESSender{client: client}
}

func (s *SESSender) Send(ctx context.Context, msg Message) error {
	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: utf8Content(msg.Subject),
				Body: &types.Body{
					Html: utf8Content(msg.HTML),
					Text: utf8Content(msg.Text),
				},
			},
		},
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		FromEmailAddress: aws.String(msg.From),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("ses send to %s: %s: %w", msg.To, apiErr.ErrorCode(), err)
		}
		return fmt.Errorf("ses send to %s: %w", msg.To, err)
	}
	return nil
}

func utf8Content(data string) *types.Content {
	return &types.Content{
		Data:    aws.String(data),
		Charset: aws.String("UTF-8"),
	}
}
