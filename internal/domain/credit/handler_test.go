package credit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agroci/agroci-api/internal/domain/plan"
	"github.com/agroci/agroci-api/internal/middleware"
	"github.com/agroci/agroci-api/internal/pkg/email"
)

type fakeRepo struct {
	balances map[uuid.UUID]int
	items    []Transaction
	listErr  error
	gotPage  Pagination
}

func (f *fakeRepo) ExistsByReference(context.Context, string) (bool, error) { return false, nil }

func (f *fakeRepo) ApplyGrant(context.Context, Grant) (*GrantResult, error) {
	return nil, errors.New("not used")
}

func (f *fakeRepo) GetBalance(_ context.Context, userID uuid.UUID) (int, error) {
	b, ok := f.balances[userID]
	if !ok {
		return 0, ErrAccountNotFound
	}
	return b, nil
}

func (f *fakeRepo) ListTransactions(_ context.Context, _ uuid.UUID, p Pagination) ([]Transaction, int, error) {
	f.gotPage = p
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	end := p.Offset + p.Limit
	if end > len(f.items) {
		end = len(f.items)
	}
	if p.Offset >= len(f.items) {
		return []Transaction{}, len(f.items), nil
	}
	return f.items[p.Offset:end], len(f.items), nil
}

func (f *fakeRepo) AccountBelongsTo(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return true, nil
}

func withUser(r *http.Request, id uuid.UUID) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.UserIDKey, id))
}

func TestHandlerBalance(t *testing.T) {
	userID := uuid.New()
	h := NewHandler(NewService(&fakeRepo{balances: map[uuid.UUID]int{userID: 30}}))

	w := httptest.NewRecorder()
	h.Balance(w, withUser(httptest.NewRequest(http.MethodGet, "/credits/balance", nil), userID))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Balance int `json:"balance"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 30, body.Data.Balance)

	w = httptest.NewRecorder()
	h.Balance(w, withUser(httptest.NewRequest(http.MethodGet, "/credits/balance", nil), uuid.New()))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	h.Balance(w, httptest.NewRequest(http.MethodGet, "/credits/balance", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandlerTransactionsPaginates(t *testing.T) {
	repo := &fakeRepo{}
	for i := 0; i < 3; i++ {
		repo.items = append(repo.items, Transaction{
			ID:             uuid.New(),
			Reference:      "ref_" + string(rune('a'+i)),
			CreditsGranted: 25,
			Status:         StatusCompleted,
			CreatedAt:      time.Now(),
		})
	}
	h := NewHandler(NewService(repo))

	w := httptest.NewRecorder()
	h.Transactions(w, withUser(httptest.NewRequest(http.MethodGet, "/credits/transactions?limit=2", nil), uuid.New()))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []Transaction `json:"data"`
		Meta struct {
			Total   int  `json:"total"`
			Limit   int  `json:"limit"`
			HasNext bool `json:"has_next"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)
	assert.Equal(t, 3, body.Meta.Total)
	assert.Equal(t, 2, body.Meta.Limit)
	assert.True(t, body.Meta.HasNext)
}

func TestHandlerTransactionsError(t *testing.T) {
	h := NewHandler(NewService(&fakeRepo{listErr: errors.New("db down")}))

	w := httptest.NewRecorder()
	h.Transactions(w, withUser(httptest.NewRequest(http.MethodGet, "/credits/transactions", nil), uuid.New()))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestNormalizePagination(t *testing.T) {
	assert.Equal(t, Pagination{Limit: defaultPageSize}, normalizePagination(0, -3))
	assert.Equal(t, Pagination{Limit: maxPageSize, Offset: 10}, normalizePagination(1000, 10))
	assert.Equal(t, Pagination{Limit: 5, Offset: 5}, normalizePagination(5, 5))
}

type captureReceipts struct {
	to   string
	data email.ReceiptData
	n    int
}

func (c *captureReceipts) SendCreditReceipt(to string, data email.ReceiptData) {
	c.to, c.data = to, data
	c.n++
}

func TestReceiptNotifier(t *testing.T) {
	sender := &captureReceipts{}
	n := NewReceiptNotifier(sender, plan.DefaultCatalog())

	n.CreditsGranted(context.Background(), GrantedEvent{
		Reference: "ref_abc123",
		Credits:   25,
		Balance:   30,
		Amount:    5000,
		Plan:      "essentiel",
		Email:     "buyer@example.com",
	})

	require.Equal(t, 1, sender.n)
	assert.Equal(t, "buyer@example.com", sender.to)
	assert.Equal(t, "50 XOF", sender.data.Amount)
	assert.Equal(t, 25, sender.data.Credits)
	assert.Equal(t, "ref_abc123", sender.data.Reference)

	n.CreditsGranted(context.Background(), GrantedEvent{Reference: "ref_x", Credits: 1})
	assert.Equal(t, 1, sender.n, "no email means no receipt")
}

func TestMultiNotifierSkipsNil(t *testing.T) {
	a, b := &recordingNotifier{}, &recordingNotifier{}
	MultiNotifier{a, nil, b}.CreditsGranted(context.Background(), GrantedEvent{Reference: "ref"})
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}
