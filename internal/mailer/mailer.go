// Package mailer abstracts the SMTP collaborator. The sender is constructed
// once at startup and injected; nothing in this package is process-global.
package mailer

import "context"

type Attachment struct {
	Filename string
	Content  []byte
	MimeType string
}

type Message struct {
	To          []string
	CC          []string
	Subject     string
	HTML        string
	Attachments []Attachment
}

type Sender interface {
	Send(ctx context.Context, m *Message) error
	// Verify is an optional connectivity pre-flight; a failure here does not
	// make later Send calls fail by itself.
	Verify(ctx context.Context) error
	Close() error
}
