package paystack

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// EventChargeSuccess is the only event that grants credits.
const EventChargeSuccess = "charge.success"

var (
	ErrMalformedEvent    = errors.New("malformed webhook payload")
	ErrMalformedMetadata = errors.New("malformed transaction metadata")
)

// Event is a webhook delivery.
type Event struct {
	Event string    `json:"event"`
	Data  EventData `json:"data"`
}

// EventData is the transaction carried by a charge event.
type EventData struct {
	ID        int64           `json:"id"`
	Reference string          `json:"reference"`
	Status    string          `json:"status"`
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	Metadata  json.RawMessage `json:"metadata"`
	Customer  Customer        `json:"customer"`
}

// ChargeMetadata is the decoded metadata bag set at initialization.
type ChargeMetadata struct {
	Plan      string
	Credits   int
	AccountID string
	// CreditsRaw is the metadata value as received, for error reporting.
	CreditsRaw string
}

// ParseEvent decodes a webhook body.
func ParseEvent(body []byte) (*Event, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformedEvent)
	}

	var evt Event
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if strings.TrimSpace(evt.Event) == "" {
		return nil, fmt.Errorf("%w: missing event", ErrMalformedEvent)
	}

	return &evt, nil
}

// ParseMetadata decodes metadata. Paystack echoes it either as an object or
// as a JSON-encoded string, depending on how it was sent. credits may be a
// number or a numeric string; the account id is read from accountId,
// account_id or profile_id in that order.
func ParseMetadata(raw json.RawMessage) (*ChargeMetadata, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("%w: missing metadata", ErrMalformedMetadata)
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedMetadata, err)
		}
		raw = []byte(s)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var bag map[string]interface{}
	if err := dec.Decode(&bag); err != nil || bag == nil {
		return nil, fmt.Errorf("%w: metadata is not an object", ErrMalformedMetadata)
	}

	md := &ChargeMetadata{
		Plan:      stringField(bag, "plan"),
		AccountID: firstString(bag, "accountId", "account_id", "profile_id"),
	}

	credits, rawCredits, err := intField(bag, "credits")
	md.CreditsRaw = rawCredits
	if err != nil {
		return md, err
	}
	md.Credits = credits

	return md, nil
}

func stringField(bag map[string]interface{}, key string) string {
	if v, ok := bag[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func firstString(bag map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v := stringField(bag, key); v != "" {
			return v
		}
	}
	return ""
}

var maxCredits = decimal.NewFromInt(math.MaxInt32)

func intField(bag map[string]interface{}, key string) (int, string, error) {
	v, ok := bag[key]
	if !ok || v == nil {
		return 0, "", fmt.Errorf("%w: missing %s", ErrMalformedMetadata, key)
	}

	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = strings.TrimSpace(t)
	default:
		return 0, fmt.Sprint(v), fmt.Errorf("%w: %s has unexpected type %T", ErrMalformedMetadata, key, v)
	}

	// Integral floats such as 25.0 or 2.5e1 are accepted; 2.5 is not.
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsInteger() {
		return 0, s, fmt.Errorf("%w: %s is not an integer", ErrMalformedMetadata, key)
	}
	if d.GreaterThan(maxCredits) || d.LessThan(maxCredits.Neg()) {
		return 0, s, fmt.Errorf("%w: %s is out of range", ErrMalformedMetadata, key)
	}
	return int(d.IntPart()), s, nil
}
