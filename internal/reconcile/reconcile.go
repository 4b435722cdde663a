// Package reconcile sweeps pending tickets and tips whose checkout was never
// completed and settles them from the processor's view of the intent.
package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/GlebRadaev/liveticket/internal/domain"
	"github.com/GlebRadaev/liveticket/internal/payments"
	"go.uber.org/zap"
)

const (
	batchLimit = 100
	workers    = 4

	kindTicket = payments.HintTicket
	kindTip    = payments.HintTip
)

type TicketRepo interface {
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.Ticket, error)
	MarkFailed(ctx context.Context, ticketID string) error
}

type TipRepo interface {
	ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.Tip, error)
	MarkFailed(ctx context.Context, tipID string) error
}

type Gateway interface {
	GetIntent(ctx context.Context, id string) (payments.Intent, error)
	CancelIntent(ctx context.Context, id string) error
}

// Settler is the settlement processor; every status change goes through it.
type Settler interface {
	Handle(ctx context.Context, ev payments.Event) error
}

type pendingRecord struct {
	kind            string
	id              string
	paymentIntentID *string
}

type Service struct {
	tickets    TicketRepo
	tips       TipRepo
	gateway    Gateway
	settler    Settler
	workerPool WorkerPoolI
	inflight   sync.Map
	interval   time.Duration
	timeout    time.Duration
}

func New(tickets TicketRepo, tips TipRepo, gateway Gateway, settler Settler, interval, timeout time.Duration) *Service {
	return &Service{
		tickets:    tickets,
		tips:       tips,
		gateway:    gateway,
		settler:    settler,
		workerPool: NewWorkerPool(workers),
		interval:   interval,
		timeout:    timeout,
	}
}

func (s *Service) Start(ctx context.Context) {
	zap.L().Info("reconciler started", zap.Duration("interval", s.interval), zap.Duration("pending_timeout", s.timeout))
	go s.run(ctx)
}

func (s *Service) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer s.workerPool.Close()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("context canceled, stopping reconciler")
			return
		case <-ticker.C:
			s.Sweep(ctx, time.Now())
		}
	}
}

// Sweep reconciles records pending since before now-timeout and waits for them to finish.
func (s *Service) Sweep(ctx context.Context, now time.Time) int {
	records := s.collect(ctx, now.Add(-s.timeout))

	var wg sync.WaitGroup
	queued := 0
	for _, rec := range records {
		key := rec.kind + ":" + rec.id
		if _, loaded := s.inflight.LoadOrStore(key, struct{}{}); loaded {
			continue
		}

		wg.Add(1)
		err := s.workerPool.AddTask(ctx, func() error {
			defer wg.Done()
			defer s.inflight.Delete(key)
			return s.reconcile(ctx, rec)
		})
		if err != nil {
			wg.Done()
			s.inflight.Delete(key)
			zap.L().Warn("reconcile sweep interrupted", zap.Error(err))
			break
		}
		queued++
	}
	wg.Wait()
	return queued
}

func (s *Service) collect(ctx context.Context, cutoff time.Time) []pendingRecord {
	var records []pendingRecord

	tickets, err := s.tickets.ListPendingBefore(ctx, cutoff, batchLimit)
	if err != nil {
		zap.L().Error("can't list pending tickets", zap.Error(err))
	}
	for _, t := range tickets {
		records = append(records, pendingRecord{kind: kindTicket, id: t.ID, paymentIntentID: t.PaymentIntentID})
	}

	tips, err := s.tips.ListPendingBefore(ctx, cutoff, batchLimit)
	if err != nil {
		zap.L().Error("can't list pending tips", zap.Error(err))
	}
	for _, t := range tips {
		records = append(records, pendingRecord{kind: kindTip, id: t.ID, paymentIntentID: t.PaymentIntentID})
	}
	return records
}

func (s *Service) reconcile(ctx context.Context, rec pendingRecord) error {
	log := zap.L().With(zap.String("kind", rec.kind), zap.String("record_id", rec.id))

	if rec.paymentIntentID == nil {
		log.Info("pending record never reached the processor, failing it")
		if rec.kind == kindTip {
			return s.tips.MarkFailed(ctx, rec.id)
		}
		return s.tickets.MarkFailed(ctx, rec.id)
	}

	pi := *rec.paymentIntentID
	intent, err := s.gateway.GetIntent(ctx, pi)
	if err != nil {
		return err
	}
	header := payments.Header{ID: "reconcile:" + pi}

	var ev payments.Event
	switch {
	case intent.Status == payments.IntentSucceeded:
		header.Type = payments.TypePaymentSucceeded
		ev = payments.PaymentSucceeded{
			Header:          header,
			PaymentIntentID: pi,
			Amount:          intent.Amount,
			Currency:        intent.Currency,
			Hint:            rec.kind,
			Metadata:        intent.Metadata,
		}
	case intent.AwaitingPayment():
		if err := s.gateway.CancelIntent(ctx, pi); err != nil {
			return err
		}
		header.Type = payments.TypePaymentCanceled
		ev = payments.PaymentFailed{Header: header, PaymentIntentID: pi, Hint: rec.kind, Reason: "abandoned"}
	case intent.Status == payments.IntentCanceled:
		header.Type = payments.TypePaymentCanceled
		ev = payments.PaymentFailed{Header: header, PaymentIntentID: pi, Hint: rec.kind, Reason: "canceled"}
	default:
		log.Debug("intent still in flight", zap.String("status", intent.Status))
		return nil
	}

	if err := s.settler.Handle(ctx, ev); err != nil && !errors.Is(err, domain.ErrAlreadyProcessed) {
		return err
	}
	log.Info("pending record reconciled", zap.String("payment_intent_id", pi), zap.String("intent_status", intent.Status))
	return nil
}
