package credit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/agroci/agroci-api/internal/pkg/apperr"
	"github.com/agroci/agroci-api/internal/pkg/paystack"
)

var scenarioAccount = uuid.MustParse("11111111-1111-1111-1111-111111111111")

// memLedger behaves like the SQL repository: the reference set plays the
// unique index and the mutex plays the row lock.
type memLedger struct {
	mu        sync.Mutex
	balances  map[uuid.UUID]int
	rows      map[string]Grant
	applyErr  error
	existsErr error
}

func newMemLedger(balances map[uuid.UUID]int) *memLedger {
	return &memLedger{balances: balances, rows: map[string]Grant{}}
}

func (l *memLedger) ExistsByReference(_ context.Context, ref string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.existsErr != nil {
		return false, l.existsErr
	}
	_, ok := l.rows[ref]
	return ok, nil
}

func (l *memLedger) ApplyGrant(_ context.Context, g Grant) (*GrantResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.applyErr != nil {
		return nil, l.applyErr
	}
	if _, ok := l.rows[g.Reference]; ok {
		return &GrantResult{Applied: false}, nil
	}
	balance, ok := l.balances[g.AccountID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	l.rows[g.Reference] = g
	l.balances[g.AccountID] = balance + g.Credits
	return &GrantResult{Applied: true, Balance: balance + g.Credits}, nil
}

func (l *memLedger) balance(id uuid.UUID) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[id]
}

func (l *memLedger) rowCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rows)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Verify(ctx context.Context, ref string) (*paystack.Transaction, error) {
	args := m.Called(ctx, ref)
	tx, _ := args.Get(0).(*paystack.Transaction)
	return tx, args.Error(1)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []GrantedEvent
}

func (n *recordingNotifier) CreditsGranted(_ context.Context, evt GrantedEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, evt)
}

type memCache struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func (c *memCache) Seen(_ context.Context, ref string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seen[ref], c.err
}

func (c *memCache) Mark(_ context.Context, ref string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seen == nil {
		c.seen = map[string]bool{}
	}
	c.seen[ref] = true
	return nil
}

func scenarioGrant() Grant {
	return Grant{
		Reference: "ref_abc123",
		AccountID: scenarioAccount,
		Credits:   25,
		Amount:    5000,
		Currency:  "XOF",
		Plan:      "essentiel",
		Email:     "buyer@example.com",
	}
}

func successTx(ref string, amount int64) *paystack.Transaction {
	return &paystack.Transaction{Status: paystack.StatusSuccess, Reference: ref, Amount: amount, Currency: "XOF"}
}

func TestProcess_GrantsOnceAcrossRedelivery(t *testing.T) {
	ledger := newMemLedger(map[uuid.UUID]int{scenarioAccount: 5})
	gw := &mockGateway{}
	gw.On("Verify", mock.Anything, "ref_abc123").Return(successTx("ref_abc123", 5000), nil).Once()
	notifier := &recordingNotifier{}

	r := NewReconciler(ledger, gw, nil, notifier, time.Second)

	res, err := r.Process(context.Background(), scenarioGrant())
	require.NoError(t, err)
	assert.Equal(t, OutcomeGranted, res.Outcome)
	assert.Equal(t, 30, res.Balance)
	assert.Equal(t, 30, ledger.balance(scenarioAccount))
	assert.Equal(t, 1, ledger.rowCount())
	assert.Equal(t, 5000, int(ledger.rows["ref_abc123"].Amount))

	// Second delivery of the same payload.
	res, err = r.Process(context.Background(), scenarioGrant())
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, res.Outcome)
	assert.Equal(t, 30, ledger.balance(scenarioAccount))
	assert.Equal(t, 1, ledger.rowCount())

	gw.AssertExpectations(t)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, 25, notifier.events[0].Credits)
	assert.Equal(t, 30, notifier.events[0].Balance)
}

func TestProcess_ConcurrentDeliveriesGrantOnce(t *testing.T) {
	ledger := newMemLedger(map[uuid.UUID]int{scenarioAccount: 0})
	gw := &mockGateway{}
	gw.On("Verify", mock.Anything, "ref_abc123").Return(successTx("ref_abc123", 5000), nil)

	r := NewReconciler(ledger, gw, nil, nil, time.Second)

	const deliveries = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	outcomes := map[Outcome]int{}
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := r.Process(context.Background(), scenarioGrant())
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			mu.Lock()
			outcomes[res.Outcome]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, outcomes[OutcomeGranted])
	assert.Equal(t, deliveries-1, outcomes[OutcomeDuplicate])
	assert.Equal(t, 25, ledger.balance(scenarioAccount))
	assert.Equal(t, 1, ledger.rowCount())
}

func TestProcess_VerificationFailures(t *testing.T) {
	cases := []struct {
		name string
		tx   *paystack.Transaction
		err  error
	}{
		{"gateway error", nil, errors.New("connection refused")},
		{"not successful", &paystack.Transaction{Status: "abandoned", Reference: "ref_abc123", Amount: 5000}, nil},
		{"amount mismatch", successTx("ref_abc123", 100), nil},
		{"reference mismatch", successTx("ref_other", 5000), nil},
		{"currency mismatch", &paystack.Transaction{Status: paystack.StatusSuccess, Reference: "ref_abc123", Amount: 5000, Currency: "NGN"}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ledger := newMemLedger(map[uuid.UUID]int{scenarioAccount: 0})
			gw := &mockGateway{}
			gw.On("Verify", mock.Anything, "ref_abc123").Return(tc.tx, tc.err)

			_, err := NewReconciler(ledger, gw, nil, nil, time.Second).Process(context.Background(), scenarioGrant())

			assert.ErrorIs(t, err, apperr.ErrVerificationFailed)
			assert.Equal(t, 0, ledger.balance(scenarioAccount))
			assert.Equal(t, 0, ledger.rowCount())
		})
	}
}

func TestProcess_VerifyIsBoundedByTimeout(t *testing.T) {
	ledger := newMemLedger(map[uuid.UUID]int{scenarioAccount: 0})
	gw := &mockGateway{}
	gw.On("Verify", mock.Anything, "ref_abc123").Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	}).Return(nil, context.DeadlineExceeded)

	start := time.Now()
	_, err := NewReconciler(ledger, gw, nil, nil, 20*time.Millisecond).Process(context.Background(), scenarioGrant())

	assert.ErrorIs(t, err, apperr.ErrVerificationFailed)
	assert.Less(t, time.Since(start), time.Second)
}

func TestProcess_PersistenceFailure(t *testing.T) {
	ledger := newMemLedger(map[uuid.UUID]int{})
	gw := &mockGateway{}
	gw.On("Verify", mock.Anything, "ref_abc123").Return(successTx("ref_abc123", 5000), nil)
	notifier := &recordingNotifier{}

	_, err := NewReconciler(ledger, gw, nil, notifier, time.Second).Process(context.Background(), scenarioGrant())

	assert.ErrorIs(t, err, apperr.ErrPersistence)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.Empty(t, notifier.events)
}

func TestProcess_LedgerReadFailureIsInternal(t *testing.T) {
	ledger := newMemLedger(map[uuid.UUID]int{scenarioAccount: 0})
	ledger.existsErr = errors.New("db down")
	gw := &mockGateway{}

	_, err := NewReconciler(ledger, gw, nil, nil, time.Second).Process(context.Background(), scenarioGrant())

	assert.ErrorIs(t, err, apperr.ErrInternal)
	gw.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
}

func TestProcess_InvalidGrant(t *testing.T) {
	cases := map[string]func(*Grant){
		"missing reference":   func(g *Grant) { g.Reference = "" },
		"malformed reference": func(g *Grant) { g.Reference = "ref abc" },
		"nil account":         func(g *Grant) { g.AccountID = uuid.Nil },
		"zero credits":        func(g *Grant) { g.Credits = 0 },
		"negative credits":    func(g *Grant) { g.Credits = -5 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			g := scenarioGrant()
			mutate(&g)
			gw := &mockGateway{}

			_, err := NewReconciler(newMemLedger(nil), gw, nil, nil, time.Second).Process(context.Background(), g)

			assert.ErrorIs(t, err, apperr.ErrBadPayload)
			gw.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
		})
	}
}

func TestProcess_CacheShortCircuitsAndIsMarked(t *testing.T) {
	ledger := newMemLedger(map[uuid.UUID]int{scenarioAccount: 0})
	gw := &mockGateway{}
	gw.On("Verify", mock.Anything, "ref_abc123").Return(successTx("ref_abc123", 5000), nil).Once()
	cache := &memCache{}

	r := NewReconciler(ledger, gw, cache, nil, time.Second)

	_, err := r.Process(context.Background(), scenarioGrant())
	require.NoError(t, err)
	assert.True(t, cache.seen["ref_abc123"])

	ledger.existsErr = errors.New("ledger must not be read when cache hits")
	res, err := r.Process(context.Background(), scenarioGrant())
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, res.Outcome)
}

func TestProcess_CacheErrorFallsBackToLedger(t *testing.T) {
	ledger := newMemLedger(map[uuid.UUID]int{scenarioAccount: 0})
	ledger.rows["ref_abc123"] = scenarioGrant()
	gw := &mockGateway{}

	res, err := NewReconciler(ledger, gw, &memCache{err: errors.New("redis down")}, nil, time.Second).
		Process(context.Background(), scenarioGrant())

	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, res.Outcome)
	gw.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
}

func TestProcess_ZeroAmountSkipsAmountCheck(t *testing.T) {
	ledger := newMemLedger(map[uuid.UUID]int{scenarioAccount: 0})
	gw := &mockGateway{}
	gw.On("Verify", mock.Anything, "ref_abc123").Return(successTx("ref_abc123", 5000), nil)

	g := scenarioGrant()
	g.Amount = 0
	res, err := NewReconciler(ledger, gw, nil, nil, time.Second).Process(context.Background(), g)

	require.NoError(t, err)
	assert.Equal(t, OutcomeGranted, res.Outcome)
}
