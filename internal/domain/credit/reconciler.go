package credit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agroci/agroci-api/internal/pkg/apperr"
	"github.com/agroci/agroci-api/internal/pkg/logger"
	"github.com/agroci/agroci-api/internal/pkg/paystack"
	"github.com/agroci/agroci-api/internal/pkg/validator"
)

const defaultVerifyTimeout = 10 * time.Second

// Ledger is the part of the repository the engine writes through.
type Ledger interface {
	ExistsByReference(ctx context.Context, reference string) (bool, error)
	ApplyGrant(ctx context.Context, grant Grant) (*GrantResult, error)
}

// Gateway re-verifies a transaction with the payment provider.
type Gateway interface {
	Verify(ctx context.Context, reference string) (*paystack.Transaction, error)
}

// Cache is a fast-path idempotency check in front of the ledger.
type Cache interface {
	Seen(ctx context.Context, reference string) (bool, error)
	Mark(ctx context.Context, reference string) error
}

// Notifier is told about committed grants. Implementations must not block.
type Notifier interface {
	CreditsGranted(ctx context.Context, evt GrantedEvent)
}

// Reconciler applies verified payment events to account balances exactly once.
type Reconciler struct {
	ledger        Ledger
	gateway       Gateway
	cache         Cache
	notifier      Notifier
	verifyTimeout time.Duration
}

// NewReconciler creates the engine. cache and notifier may be nil.
func NewReconciler(ledger Ledger, gateway Gateway, cache Cache, notifier Notifier, verifyTimeout time.Duration) *Reconciler {
	if verifyTimeout <= 0 {
		verifyTimeout = defaultVerifyTimeout
	}
	return &Reconciler{
		ledger:        ledger,
		gateway:       gateway,
		cache:         cache,
		notifier:      notifier,
		verifyTimeout: verifyTimeout,
	}
}

// Process credits grant.AccountID once per grant.Reference. A reference
// that was already credited is a successful no-op.
func (r *Reconciler) Process(ctx context.Context, grant Grant) (*Result, error) {
	if err := validateGrant(grant); err != nil {
		return nil, apperr.Wrap(apperr.KindBadPayload, "invalid payment event", err)
	}

	l := logger.FromContext(ctx).With().
		Str("reference", grant.Reference).
		Str("account_id", grant.AccountID.String()).
		Int("credits", grant.Credits).
		Logger()
	ctx = logger.WithContext(ctx, &l)

	if r.cache != nil {
		seen, err := r.cache.Seen(ctx, grant.Reference)
		if err != nil {
			l.Warn().Err(err).Msg("Processed-reference cache unavailable, falling back to ledger")
		} else if seen {
			l.Info().Str("source", "cache").Msg("Payment already processed")
			return &Result{Outcome: OutcomeDuplicate}, nil
		}
	}

	exists, err := r.ledger.ExistsByReference(ctx, grant.Reference)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not check payment reference", err)
	}
	if exists {
		l.Info().Str("source", "ledger").Msg("Payment already processed")
		return &Result{Outcome: OutcomeDuplicate}, nil
	}

	if err := r.verify(ctx, grant); err != nil {
		l.Warn().Err(err).Msg("Payment verification failed")
		return nil, apperr.Wrap(apperr.KindVerificationFailed, "payment verification failed", err)
	}

	res, err := r.ledger.ApplyGrant(ctx, grant)
	if err != nil {
		// The gateway confirmed the payment but the account was not credited.
		l.Error().Err(err).
			Bool("manual_reconciliation", true).
			Int64("amount", grant.Amount).
			Str("plan", grant.Plan).
			Msg("Verified payment could not be credited")
		return nil, apperr.Wrap(apperr.KindPersistence, "could not record credit grant", err)
	}
	if !res.Applied {
		l.Info().Str("source", "conflict").Msg("Payment already processed")
		return &Result{Outcome: OutcomeDuplicate}, nil
	}

	l.Info().Int("balance", res.Balance).Msg("Credits granted")

	if r.cache != nil {
		if err := r.cache.Mark(ctx, grant.Reference); err != nil {
			l.Warn().Err(err).Msg("Failed to mark reference as processed")
		}
	}
	if r.notifier != nil {
		r.notifier.CreditsGranted(ctx, GrantedEvent{
			Reference: grant.Reference,
			AccountID: grant.AccountID,
			UserID:    res.UserID,
			Credits:   grant.Credits,
			Balance:   res.Balance,
			Amount:    grant.Amount,
			Currency:  grant.Currency,
			Plan:      grant.Plan,
			Email:     grant.Email,
		})
	}

	return &Result{Outcome: OutcomeGranted, Balance: res.Balance}, nil
}

func (r *Reconciler) verify(ctx context.Context, grant Grant) error {
	ctx, cancel := context.WithTimeout(ctx, r.verifyTimeout)
	defer cancel()

	tx, err := r.gateway.Verify(ctx, grant.Reference)
	if err != nil {
		return err
	}
	if tx.Status != paystack.StatusSuccess {
		return fmt.Errorf("transaction status is %q", tx.Status)
	}
	if tx.Reference != "" && tx.Reference != grant.Reference {
		return fmt.Errorf("gateway returned reference %q", tx.Reference)
	}
	if grant.Amount > 0 && tx.Amount != grant.Amount {
		return fmt.Errorf("amount mismatch: event %d, gateway %d", grant.Amount, tx.Amount)
	}
	if grant.Currency != "" && tx.Currency != "" && !strings.EqualFold(grant.Currency, tx.Currency) {
		return fmt.Errorf("currency mismatch: event %s, gateway %s", grant.Currency, tx.Currency)
	}
	return nil
}

func validateGrant(g Grant) error {
	var errs []error
	if err := validator.ValidateVar(g.Reference, "required,reference"); err != nil {
		errs = append(errs, errors.New("reference is missing or malformed"))
	}
	if g.AccountID == uuid.Nil {
		errs = append(errs, errors.New("account id is required"))
	}
	if g.Credits <= 0 {
		errs = append(errs, errors.New("credits must be a positive integer"))
	}
	if g.Amount < 0 {
		errs = append(errs, errors.New("amount must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidGrant, errors.Join(errs...))
	}
	return nil
}
