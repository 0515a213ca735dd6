package transport

import (
	"context"
	"fmt"
)

// Disabled stands in for a channel whose provider credentials are not
// configured. Every send fails, which the dispatcher records as a
// delivery failure rather than an error.
type Disabled struct {
	Channel string
}

func (d Disabled) SendEmail(context.Context, string, string, string, string) error {
	return fmt.Errorf("%s transport not configured", d.Channel)
}

func (d Disabled) SendSMS(context.Context, string, string) error {
	return fmt.Errorf("%s transport not configured", d.Channel)
}
