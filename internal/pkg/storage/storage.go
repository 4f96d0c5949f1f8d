package storage

import (
	"context"
	"fmt"
	"regexp"
	"time"
)

// Archive stores immutable audit objects.
type Archive interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// Nop discards everything. Used when no bucket is configured.
type Nop struct{}

func (Nop) Put(context.Context, string, []byte, string) error { return nil }

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9_.=\-]`)

// WebhookKey returns paystack/yyyy/mm/dd/<reference>-<unix-nanos>.json.
// Every delivery gets its own object, including redeliveries.
func WebhookKey(provider, reference string, at time.Time) string {
	at = at.UTC()
	ref := unsafeKeyChars.ReplaceAllString(reference, "_")
	if ref == "" {
		ref = "unknown"
	}
	return fmt.Sprintf("%s/%04d/%02d/%02d/%s-%d.json",
		provider, at.Year(), int(at.Month()), at.Day(), ref, at.UnixNano())
}
