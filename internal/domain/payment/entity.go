package payment

import (
	"strings"
)

// InitiateRequest is the checkout request sent by the web client. Older
// clients send profileId, newer ones accountId.
type InitiateRequest struct {
	Plan      string `json:"plan" validate:"required"`
	Email     string `json:"email" validate:"required,max=255,contact_email"`
	AccountID string `json:"accountId" validate:"required,uuid"`
	ProfileID string `json:"profileId,omitempty" validate:"-"`
}

// Normalize trims input and folds the profileId alias into AccountID.
// Account ids are lowercased: the uuid rule only accepts lowercase hex.
func (r *InitiateRequest) Normalize() {
	r.Plan = strings.TrimSpace(r.Plan)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.AccountID = NormalizeAccountID(r.AccountID)
	if r.AccountID == "" {
		r.AccountID = NormalizeAccountID(r.ProfileID)
	}
}

// NormalizeAccountID is shared by checkout and the webhook so both accept
// the same ids.
func NormalizeAccountID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// InitiateResponse is returned to the web client, which redirects to
// AuthorizationURL.
type InitiateResponse struct {
	Success          bool   `json:"success"`
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// WebhookAck is the body of every 2xx webhook response.
type WebhookAck struct {
	Received bool `json:"received"`
}

// WebhookOutcome describes what happened to a delivery.
type WebhookOutcome string

const (
	OutcomeGranted   WebhookOutcome = "granted"
	OutcomeDuplicate WebhookOutcome = "duplicate"
	OutcomeIgnored   WebhookOutcome = "ignored"
)
