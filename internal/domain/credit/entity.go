package credit

import (
	"time"

	"github.com/google/uuid"
)

// StatusCompleted is the only status the engine writes: rows exist only for
// verified, credited payments.
const StatusCompleted = "completed"

// Grant is a verified request to credit an account for a payment reference.
type Grant struct {
	Reference string
	AccountID uuid.UUID
	Credits   int
	// Amount is the paid amount in minor units as reported by the webhook.
	Amount   int64
	Currency string
	Plan     string
	// Email is the payer's address, used for the receipt only.
	Email string
}

// GrantResult is what ApplyGrant did.
type GrantResult struct {
	Applied bool
	Balance int
	UserID  *uuid.UUID
}

// Outcome of processing a grant.
type Outcome string

const (
	OutcomeGranted   Outcome = "granted"
	OutcomeDuplicate Outcome = "duplicate"
)

// Result is returned by Reconciler.Process.
type Result struct {
	Outcome Outcome
	Balance int
}

// Transaction is a ledger row.
type Transaction struct {
	ID             uuid.UUID `db:"id" json:"id"`
	Reference      string    `db:"reference" json:"reference"`
	ProfileID      uuid.UUID `db:"profile_id" json:"profile_id"`
	CreditsGranted int       `db:"credits_granted" json:"credits_granted"`
	Amount         int64     `db:"amount" json:"amount"`
	Currency       string    `db:"currency" json:"currency"`
	Plan           string    `db:"plan" json:"plan"`
	Status         string    `db:"status" json:"status"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// GrantedEvent is published after a grant is committed.
type GrantedEvent struct {
	Reference string
	AccountID uuid.UUID
	UserID    *uuid.UUID
	Credits   int
	Balance   int
	Amount    int64
	Currency  string
	Plan      string
	Email     string
}

// Pagination controls simple list pagination.
type Pagination struct {
	Limit  int
	Offset int
}
