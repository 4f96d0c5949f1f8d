package credit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const queryTimeout = 5 * time.Second

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// Repository is the ledger and balance store.
type Repository interface {
	ExistsByReference(ctx context.Context, reference string) (bool, error)
	ApplyGrant(ctx context.Context, grant Grant) (*GrantResult, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (int, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, pagination Pagination) ([]Transaction, int, error)
	AccountBelongsTo(ctx context.Context, accountID, userID uuid.UUID) (bool, error)
}

// CreditRepository provides credit ledger and balance operations.
type CreditRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *CreditRepository {
	return &CreditRepository{db: db}
}

// ExistsByReference reports whether a ledger row exists for reference.
func (r *CreditRepository) ExistsByReference(ctx context.Context, reference string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM credit_transactions WHERE reference = $1)
	`, reference)
	if err != nil {
		return false, fmt.Errorf("check reference: %w", err)
	}
	return exists, nil
}

// ApplyGrant inserts the ledger row and increments the balance in one
// transaction. The unique index on reference decides which of several
// concurrent deliveries wins; the others see Applied=false.
func (r *CreditRepository) ApplyGrant(ctx context.Context, grant Grant) (*GrantResult, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var ledgerID uuid.UUID
	err = tx.GetContext(ctx, &ledgerID, `
		INSERT INTO credit_transactions (reference, profile_id, credits_granted, amount, currency, plan, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (reference) DO NOTHING
		RETURNING id
	`, grant.Reference, grant.AccountID, grant.Credits, grant.Amount, grant.Currency, grant.Plan, StatusCompleted)
	if errors.Is(err, sql.ErrNoRows) {
		return &GrantResult{Applied: false}, nil
	}
	if err != nil {
		return nil, mapPQError("insert ledger row", err)
	}

	var row struct {
		Credits int        `db:"credits"`
		UserID  *uuid.UUID `db:"user_id"`
	}
	err = tx.GetContext(ctx, &row, `
		UPDATE profiles
		SET credits = credits + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING credits, user_id
	`, grant.AccountID, grant.Credits)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, mapPQError("increment balance", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit grant: %w", err)
	}

	return &GrantResult{Applied: true, Balance: row.Credits, UserID: row.UserID}, nil
}

// GetBalance returns the credit balance of the profile owned by userID.
func (r *CreditRepository) GetBalance(ctx context.Context, userID uuid.UUID) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var balance int
	err := r.db.GetContext(ctx, &balance, `SELECT credits FROM profiles WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

// ListTransactions returns the ledger of userID's profile, newest first,
// with the total row count.
func (r *CreditRepository) ListTransactions(ctx context.Context, userID uuid.UUID, pagination Pagination) ([]Transaction, int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var total int
	if err := r.db.GetContext(ctx, &total, `
		SELECT COUNT(*)
		FROM credit_transactions ct
		JOIN profiles p ON p.id = ct.profile_id
		WHERE p.user_id = $1
	`, userID); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	items := []Transaction{}
	if err := r.db.SelectContext(ctx, &items, `
		SELECT ct.id, ct.reference, ct.profile_id, ct.credits_granted, ct.amount,
		       ct.currency, ct.plan, ct.status, ct.created_at
		FROM credit_transactions ct
		JOIN profiles p ON p.id = ct.profile_id
		WHERE p.user_id = $1
		ORDER BY ct.created_at DESC, ct.id DESC
		LIMIT $2 OFFSET $3
	`, userID, pagination.Limit, pagination.Offset); err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}

	return items, total, nil
}

// AccountBelongsTo reports whether profile accountID is owned by userID.
func (r *CreditRepository) AccountBelongsTo(ctx context.Context, accountID, userID uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var owned bool
	err := r.db.GetContext(ctx, &owned, `
		SELECT EXISTS (SELECT 1 FROM profiles WHERE id = $1 AND user_id = $2)
	`, accountID, userID)
	if err != nil {
		return false, fmt.Errorf("check account owner: %w", err)
	}
	return owned, nil
}

func mapPQError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqForeignKeyViolation:
			return ErrAccountNotFound
		case pqUniqueViolation:
			// ON CONFLICT covers reference; any other unique index is a schema problem.
			return fmt.Errorf("%s: unexpected unique violation on %s: %w", op, pqErr.Constraint, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
