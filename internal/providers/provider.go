// Package providers holds the WhatsApp delivery clients. Each provider
// translates an outbound text into its own send call and returns the
// provider-assigned message id, which downstream code uses as the
// idempotency key for the persisted message.
package providers

import (
	"context"
	"strings"
)

type OutboundText struct {
	// Instance identifies the sending session for instance-based providers
	// (Evolution, Maytapi). Twilio uses From instead.
	Instance string
	From     string
	To       string
	Body     string
}

type SendResult struct {
	MessageID string
}

type DeliveryProvider interface {
	Name() string
	SendText(ctx context.Context, msg OutboundText) (*SendResult, error)
}

func onlyDigits(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
