package authhook

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	standardwebhooks "github.com/standard-webhooks/standard-webhooks/libraries/go"
)

// Standard Webhooks headers sent by Supabase Auth hooks.
const (
	HeaderID        = standardwebhooks.HeaderWebhookID
	HeaderTimestamp = standardwebhooks.HeaderWebhookTimestamp
	HeaderSignature = standardwebhooks.HeaderWebhookSignature
)

var (
	ErrMissingHeaders   = standardwebhooks.ErrRequiredHeaders
	ErrInvalidTimestamp = standardwebhooks.ErrInvalidHeaders
	ErrTimestampTooOld  = standardwebhooks.ErrMessageTooOld
	ErrTimestampTooNew  = standardwebhooks.ErrMessageTooNew
	ErrNoMatch          = standardwebhooks.ErrNoMatchingSignature
	ErrInvalidSecret    = errors.New("invalid hook secret")
)

// Verifier checks Standard Webhooks signatures with a five minute tolerance.
type Verifier struct {
	wh *standardwebhooks.Webhook
}

// NewVerifier parses a secret of the form "v1,whsec_<base64>". The prefixes
// are optional.
func NewVerifier(secret string) (*Verifier, error) {
	secret = strings.TrimSpace(secret)
	secret = strings.TrimPrefix(secret, "v1,")
	if strings.TrimPrefix(secret, "whsec_") == "" {
		return nil, ErrInvalidSecret
	}

	wh, err := standardwebhooks.NewWebhook(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}
	return &Verifier{wh: wh}, nil
}

// Verify authenticates body against the webhook-* headers.
func (v *Verifier) Verify(body []byte, h http.Header) error {
	return v.wh.Verify(body, h)
}

// Sign returns the webhook-signature header value for body (testing).
func (v *Verifier) Sign(id string, at time.Time, body []byte) (string, error) {
	return v.wh.Sign(id, at, body)
}
