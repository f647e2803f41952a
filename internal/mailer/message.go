package mailer

import "context"

// Message is one rendered email to a single recipient.
type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

// Sender is the opaque mail-sending capability the pipeline dispatches into.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
