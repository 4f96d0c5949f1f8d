package credit

import (
	"context"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Service exposes read access to balances and ledger history.
type Service struct {
	repo Repository
}

// NewService creates a new credit service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetBalance returns the current credit balance for a user
func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.GetBalance(ctx, userID)
}

// ListTransactions returns paginated ledger history for a user, newest first
func (s *Service) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Transaction, int, Pagination, error) {
	p := normalizePagination(limit, offset)
	items, total, err := s.repo.ListTransactions(ctx, userID, p)
	return items, total, p, err
}

func normalizePagination(limit, offset int) Pagination {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return Pagination{Limit: limit, Offset: offset}
}
