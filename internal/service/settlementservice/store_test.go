package settlementservice

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"testing"

	"github.com/GlebRadaev/liveticket/internal/commission"
	"github.com/GlebRadaev/liveticket/internal/domain"
	"github.com/GlebRadaev/liveticket/internal/notify"
	"github.com/GlebRadaev/liveticket/internal/payments"
	"github.com/GlebRadaev/liveticket/internal/pg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory stand-in for the relational store. Its transaction
// manager serializes units of work the way row locks serialize them in Postgres.
type memStore struct {
	mu           sync.Mutex
	txMu         sync.Mutex
	processed    map[string]bool
	tickets      map[string]*domain.Ticket
	events       map[string]*domain.Event
	chains       map[string][3]string
	commissions  []domain.AffiliateCommission
	transactions []*domain.Transaction
	refunds      []string
	published    []notify.Message
}

func newMemStore() *memStore {
	return &memStore{
		processed: map[string]bool{},
		tickets:   map[string]*domain.Ticket{},
		events:    map[string]*domain.Event{},
		chains:    map[string][3]string{},
	}
}

func (s *memStore) Begin(ctx context.Context, fn pg.TransactionalFn) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	before := maps.Clone(s.processed)
	s.mu.Unlock()

	err := fn(ctx)
	if err != nil {
		s.mu.Lock()
		s.processed = before
		s.mu.Unlock()
	}
	return err
}

func (s *memStore) EventProcessed(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processed[eventID], nil
}

func (s *memStore) ClaimEvent(_ context.Context, eventID, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processed[eventID] {
		return domain.ErrAlreadyProcessed
	}
	s.processed[eventID] = true
	return nil
}

func (s *memStore) CreateTransaction(_ context.Context, t *domain.Transaction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.transactions {
		if existing.PaymentIntentID == t.PaymentIntentID && existing.TransactionType == t.TransactionType {
			return false, nil
		}
	}
	s.transactions = append(s.transactions, t)
	return true, nil
}

func (s *memStore) MarkTransactionRefunded(context.Context, string) (bool, error) {
	return false, nil
}

func (s *memStore) Transition(_ context.Context, paymentIntentID string, from []string, to string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tickets {
		if t.PaymentIntentID != nil && *t.PaymentIntentID == paymentIntentID && slices.Contains(from, t.Status) {
			t.Status = to
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) FindByPaymentIntent(_ context.Context, paymentIntentID string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tickets {
		if t.PaymentIntentID != nil && *t.PaymentIntentID == paymentIntentID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) IncrementTicketsSold(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.events[eventID]
	if e.TicketsSold >= e.Capacity {
		return false, nil
	}
	e.TicketsSold++
	return true, nil
}

func (s *memStore) SetOnboardingComplete(context.Context, string) (bool, error) {
	return false, nil
}

func (s *memStore) ResolveChain(_ context.Context, id string) ([3]string, error) {
	return s.chains[id], nil
}

func (s *memStore) AddCommissions(_ context.Context, rows []domain.AffiliateCommission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commissions = append(s.commissions, rows...)
	return nil
}

func (s *memStore) Refund(_ context.Context, _ string, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refunds = append(s.refunds, key)
	return nil
}

func (s *memStore) Publish(_ context.Context, msg notify.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, msg)
	return nil
}

// noTips satisfies TipRepo for stores holding tickets only.
type noTips struct{}

func (noTips) Transition(context.Context, string, []string, string) (*domain.Tip, error) {
	return nil, nil
}

func (noTips) FindByPaymentIntent(context.Context, string) (*domain.Tip, error) {
	return nil, nil
}

func (s *memStore) service() *Service {
	repos := Repos{Ledger: s, Tickets: s, Tips: noTips{}, Events: s, Affiliates: s}
	return New(repos, s, s, s, commission.DefaultPolicy(), "usd")
}

func (s *memStore) addTicket(id, eventID, pi string, affiliateID *string) {
	s.tickets[id] = &domain.Ticket{
		ID: id, EventID: eventID, UserID: "usr-" + id, PurchasePrice: 10000,
		PaymentIntentID: &pi, Status: domain.TicketStatusPending, AffiliateID: affiliateID,
	}
}

func successEvent(id, pi string) payments.PaymentSucceeded {
	return payments.PaymentSucceeded{
		Header:          payments.Header{ID: id, Type: payments.TypePaymentSucceeded},
		PaymentIntentID: pi,
		Amount:          10000,
		Currency:        "usd",
		Hint:            payments.HintTicket,
	}
}

func TestSettlement_SoldOutRace(t *testing.T) {
	store := newMemStore()
	store.events["evt-1"] = &domain.Event{ID: "evt-1", Capacity: 1, TicketPrice: 10000}
	store.addTicket("tkt-a", "evt-1", "pi_a", nil)
	store.addTicket("tkt-b", "evt-1", "pi_b", nil)
	service := store.service()

	var wg sync.WaitGroup
	for _, ev := range []payments.PaymentSucceeded{successEvent("wh_a", "pi_a"), successEvent("wh_b", "pi_b")} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, service.Handle(context.Background(), ev))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, store.events["evt-1"].TicketsSold)
	statuses := []string{store.tickets["tkt-a"].Status, store.tickets["tkt-b"].Status}
	assert.ElementsMatch(t, []string{domain.TicketStatusConfirmed, domain.TicketStatusFailed}, statuses)
	assert.Len(t, store.transactions, 1)
	require.Len(t, store.refunds, 1)

	var loser string
	for id, tk := range store.tickets {
		if tk.Status == domain.TicketStatusFailed {
			loser = id
		}
	}
	assert.Equal(t, "oversold:"+loser, store.refunds[0])
}

func TestSettlement_DuplicateDeliveryIsIdempotent(t *testing.T) {
	store := newMemStore()
	store.events["evt-1"] = &domain.Event{ID: "evt-1", Capacity: 100, TicketPrice: 10000}
	aff := "aff-1"
	store.chains[aff] = [3]string{"aff-1", "aff-2", "aff-3"}
	store.addTicket("tkt-a", "evt-1", "pi_a", &aff)
	service := store.service()

	const deliveries = 8
	errs := make(chan error, deliveries)
	var wg sync.WaitGroup
	for range deliveries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- service.Handle(context.Background(), successEvent("wh_a", "pi_a"))
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, domain.ErrAlreadyProcessed), err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, store.events["evt-1"].TicketsSold)
	assert.Equal(t, domain.TicketStatusConfirmed, store.tickets["tkt-a"].Status)
	require.Len(t, store.transactions, 1)
	require.Len(t, store.commissions, 3)
	assert.False(t, store.transactions[0].CreatedAt.IsZero())
	for _, c := range store.commissions {
		assert.False(t, c.CreatedAt.IsZero())
	}

	var total int64
	for _, c := range store.commissions {
		total += c.CommissionAmount
	}
	assert.Equal(t, int64(500), total)
	assert.Equal(t, "9000", store.transactions[0].Metadata["artist_share"])
	assert.Len(t, store.published, 1)

	// A second success event for the same intent under a new id changes nothing.
	require.NoError(t, service.Handle(context.Background(), successEvent("wh_a2", "pi_a")))
	assert.Equal(t, 1, store.events["evt-1"].TicketsSold)
	assert.Len(t, store.transactions, 1)
}

func refundEvent(id, pi string) payments.ChargeRefunded {
	return payments.ChargeRefunded{
		Header:          payments.Header{ID: id, Type: payments.TypeChargeRefunded},
		PaymentIntentID: pi,
		AmountRefunded:  10000,
		Hint:            payments.HintTicket,
	}
}

func TestSettlement_RefundBeforeSuccessIsRedelivered(t *testing.T) {
	store := newMemStore()
	store.events["evt-1"] = &domain.Event{ID: "evt-1", Capacity: 100, TicketPrice: 10000}
	store.addTicket("tkt-a", "evt-1", "pi_a", nil)
	service := store.service()

	err := service.Handle(context.Background(), refundEvent("wh_refund", "pi_a"))
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	assert.False(t, store.processed["wh_refund"])
	assert.Equal(t, domain.TicketStatusPending, store.tickets["tkt-a"].Status)

	require.NoError(t, service.Handle(context.Background(), successEvent("wh_success", "pi_a")))
	assert.Equal(t, domain.TicketStatusConfirmed, store.tickets["tkt-a"].Status)

	require.NoError(t, service.Handle(context.Background(), refundEvent("wh_refund", "pi_a")))
	assert.Equal(t, domain.TicketStatusRefunded, store.tickets["tkt-a"].Status)
	assert.True(t, store.processed["wh_refund"])
	assert.Equal(t, 1, store.events["evt-1"].TicketsSold)
}
