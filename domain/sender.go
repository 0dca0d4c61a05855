package domain

import "context"

// SMSSender sends a single text message to a phone number. Implementations
// report failure via the error; the caller records the outcome, it never
// retries within the same run.
type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}

// EmailSender sends an email copy of a notice. Best effort; failures are
// logged only.
type EmailSender interface {
	Send(to, subject, body string) error
}
