// Package transport holds the outbound notification channels. Senders
// are boundaries: the dispatcher treats them as opaque and records
// failures instead of raising them.
package transport

import "context"

type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, plainText, htmlContent string) error
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}
