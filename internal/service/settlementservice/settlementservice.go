package settlementservice

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/GlebRadaev/liveticket/internal/commission"
	"github.com/GlebRadaev/liveticket/internal/domain"
	"github.com/GlebRadaev/liveticket/internal/notify"
	"github.com/GlebRadaev/liveticket/internal/payments"
	"github.com/GlebRadaev/liveticket/internal/pg"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Ledger interface {
	EventProcessed(ctx context.Context, eventID string) (bool, error)
	ClaimEvent(ctx context.Context, eventID, eventType string) error
	CreateTransaction(ctx context.Context, t *domain.Transaction) (bool, error)
	MarkTransactionRefunded(ctx context.Context, paymentIntentID string) (bool, error)
}

type TicketRepo interface {
	Transition(ctx context.Context, paymentIntentID string, from []string, to string) (*domain.Ticket, error)
	FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*domain.Ticket, error)
}

type TipRepo interface {
	Transition(ctx context.Context, paymentIntentID string, from []string, to string) (*domain.Tip, error)
	FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*domain.Tip, error)
}

type EventRepo interface {
	IncrementTicketsSold(ctx context.Context, eventID string) (bool, error)
	SetOnboardingComplete(ctx context.Context, accountID string) (bool, error)
}

type AffiliateRepo interface {
	ResolveChain(ctx context.Context, id string) ([3]string, error)
	AddCommissions(ctx context.Context, commissions []domain.AffiliateCommission) error
}

type Refunder interface {
	Refund(ctx context.Context, paymentIntentID, idempotencyKey string) error
}

type Publisher interface {
	Publish(ctx context.Context, msg notify.Message) error
}

type Repos struct {
	Ledger     Ledger
	Tickets    TicketRepo
	Tips       TipRepo
	Events     EventRepo
	Affiliates AffiliateRepo
}

type Service struct {
	ledger     Ledger
	tickets    TicketRepo
	tips       TipRepo
	events     EventRepo
	affiliates AffiliateRepo
	txManager  pg.TXManager
	refunds    Refunder
	publisher  Publisher
	policy     commission.Policy
	currency   string
}

func New(repos Repos, txManager pg.TXManager, refunds Refunder, publisher Publisher, policy commission.Policy, currency string) *Service {
	return &Service{
		ledger:     repos.Ledger,
		tickets:    repos.Tickets,
		tips:       repos.Tips,
		events:     repos.Events,
		affiliates: repos.Affiliates,
		txManager:  txManager,
		refunds:    refunds,
		publisher:  publisher,
		policy:     policy,
		currency:   currency,
	}
}

// outcome carries the side effects that run only after the settlement commits.
// A nil outcome means no record matched the payment intent.
type outcome struct {
	refundIntent string
	refundKey    string
	messages     []notify.Message
	pending      bool
}

type settleFn func(ctx context.Context) (*outcome, error)

// Handle applies one processor event. Redelivered events return ErrAlreadyProcessed
// without touching any record.
func (s *Service) Handle(ctx context.Context, ev payments.Event) error {
	h := payments.HeaderOf(ev)
	log := zap.L().With(zap.String("event_id", h.ID), zap.String("event_type", h.Type))

	if _, ok := ev.(payments.Ignored); ok {
		log.Debug("ignoring webhook event")
		return nil
	}

	processed, err := s.ledger.EventProcessed(ctx, h.ID)
	if err != nil {
		return domain.External("check webhook event", err)
	}
	if processed {
		return domain.ErrAlreadyProcessed
	}

	var out *outcome
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		if err := s.ledger.ClaimEvent(ctx, h.ID, h.Type); err != nil {
			return err
		}
		var err error
		out, err = s.settle(ctx, ev)
		return err
	})
	switch {
	case errors.Is(err, domain.ErrAlreadyProcessed), errors.Is(err, domain.ErrRecordNotFound):
		log.Info("settlement skipped", zap.Error(err))
		return err
	case err != nil:
		log.Error("settlement failed", zap.Error(err))
		return domain.External("settle "+h.Type, err)
	}

	s.afterCommit(ctx, log, out)
	return nil
}

func (s *Service) settle(ctx context.Context, ev payments.Event) (*outcome, error) {
	switch e := ev.(type) {
	case payments.PaymentSucceeded:
		out, err := byHint(ctx, e.Hint,
			func(ctx context.Context) (*outcome, error) { return s.confirmTicket(ctx, e) },
			func(ctx context.Context) (*outcome, error) { return s.completeTip(ctx, e) })
		if err == nil && out == nil {
			// The intent id may not be attached yet; fail so the processor redelivers.
			return nil, domain.ErrRecordNotFound
		}
		return out, err
	case payments.PaymentFailed:
		return s.unmatched(byHint(ctx, e.Hint,
			func(ctx context.Context) (*outcome, error) { return s.failTicket(ctx, e) },
			func(ctx context.Context) (*outcome, error) { return s.failTip(ctx, e) }))
	case payments.ChargeRefunded:
		return s.unmatched(byHint(ctx, e.Hint,
			func(ctx context.Context) (*outcome, error) { return s.refundTicket(ctx, e) },
			func(ctx context.Context) (*outcome, error) { return s.refundTip(ctx, e) }))
	case payments.AccountUpdated:
		return s.updateAccount(ctx, e)
	default:
		return &outcome{}, nil
	}
}

// byHint tries the record kind named by the metadata hint first. Identity is always the intent id.
func byHint(ctx context.Context, hint string, ticket, tip settleFn) (*outcome, error) {
	first, second := ticket, tip
	if hint == payments.HintTip {
		first, second = tip, ticket
	}
	out, err := first(ctx)
	if err != nil || out != nil {
		return out, err
	}
	return second(ctx)
}

func (s *Service) unmatched(out *outcome, err error) (*outcome, error) {
	if err == nil && out == nil {
		zap.L().Warn("no ticket or tip matches payment intent")
		return &outcome{}, nil
	}
	return out, err
}

func (s *Service) confirmTicket(ctx context.Context, e payments.PaymentSucceeded) (*outcome, error) {
	t, err := s.tickets.Transition(ctx, e.PaymentIntentID, []string{domain.TicketStatusPending}, domain.TicketStatusConfirmed)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return s.ticketAlreadySettled(ctx, e.PaymentIntentID)
	}
	if e.Amount != 0 && e.Amount != t.PurchasePrice {
		zap.L().Warn("charged amount differs from ticket price",
			zap.String("ticket_id", t.ID), zap.Int64("charged", e.Amount), zap.Int64("price", t.PurchasePrice))
	}

	sold, err := s.events.IncrementTicketsSold(ctx, t.EventID)
	if err != nil {
		return nil, err
	}
	if !sold {
		if _, err := s.tickets.Transition(ctx, e.PaymentIntentID, []string{domain.TicketStatusConfirmed}, domain.TicketStatusFailed); err != nil {
			return nil, err
		}
		zap.L().Warn("event sold out at confirmation, refunding", zap.String("ticket_id", t.ID), zap.String("payment_intent_id", e.PaymentIntentID))
		return &outcome{
			refundIntent: e.PaymentIntentID,
			refundKey:    "oversold:" + t.ID,
			messages:     []notify.Message{s.ticketMessage(notify.KindTicketOversold, t, e.Currency)},
		}, nil
	}

	var chain commission.Chain
	if t.AffiliateID != nil {
		resolved, err := s.affiliates.ResolveChain(ctx, *t.AffiliateID)
		if err != nil {
			return nil, err
		}
		chain = commission.Chain(resolved)
	}
	breakdown, err := s.policy.ForTicket(t.PurchasePrice, chain)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if len(breakdown.Commissions) > 0 {
		rows := make([]domain.AffiliateCommission, 0, len(breakdown.Commissions))
		for _, c := range breakdown.Commissions {
			rows = append(rows, domain.AffiliateCommission{
				ID:               uuid.NewString(),
				AffiliateID:      c.AffiliateID,
				TicketID:         t.ID,
				CommissionLevel:  c.Level,
				CommissionRate:   c.Rate.String(),
				CommissionAmount: c.Amount,
				Status:           domain.CommissionStatusPending,
				CreatedAt:        now,
			})
		}
		if err := s.affiliates.AddCommissions(ctx, rows); err != nil {
			return nil, err
		}
	}

	tx := &domain.Transaction{
		ID:              uuid.NewString(),
		TransactionType: domain.TransactionTypeTicket,
		Amount:          t.PurchasePrice,
		Currency:        s.currencyOf(e.Currency),
		PaymentIntentID: e.PaymentIntentID,
		Status:          domain.TransactionStatusCompleted,
		CreatedAt:       now,
		Metadata: map[string]string{
			payments.MetaTicketID: t.ID,
			payments.MetaEventID:  t.EventID,
			payments.MetaUserID:   t.UserID,
			"artist_share":        strconv.FormatInt(breakdown.ArtistShare, 10),
			"platform_share":      strconv.FormatInt(breakdown.PlatformShare, 10),
			"commission_total":    strconv.FormatInt(breakdown.CommissionTotal(), 10),
		},
	}
	if _, err := s.ledger.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	zap.L().Info("ticket confirmed", zap.String("ticket_id", t.ID), zap.String("payment_intent_id", e.PaymentIntentID),
		zap.Int64("artist_share", breakdown.ArtistShare), zap.Int64("platform_share", breakdown.PlatformShare),
		zap.Int("commission_levels", len(breakdown.Commissions)))
	return &outcome{messages: []notify.Message{s.ticketMessage(notify.KindTicketConfirmed, t, e.Currency)}}, nil
}

func (s *Service) ticketAlreadySettled(ctx context.Context, paymentIntentID string) (*outcome, error) {
	existing, err := s.tickets.FindByPaymentIntent(ctx, paymentIntentID)
	if err != nil || existing == nil {
		return nil, err
	}
	zap.L().Info("ticket already settled", zap.String("ticket_id", existing.ID), zap.String("status", existing.Status))
	return &outcome{pending: existing.Status == domain.TicketStatusPending}, nil
}

func (s *Service) tipAlreadySettled(ctx context.Context, paymentIntentID string) (*outcome, error) {
	existing, err := s.tips.FindByPaymentIntent(ctx, paymentIntentID)
	if err != nil || existing == nil {
		return nil, err
	}
	zap.L().Info("tip already settled", zap.String("tip_id", existing.ID), zap.String("status", existing.Status))
	return &outcome{pending: existing.Status == domain.TipStatusPending}, nil
}

// refundedBeforeSettled rejects a refund for a record whose payment has not
// settled yet, so the claim rolls back and the processor redelivers it later.
func (s *Service) refundedBeforeSettled(out *outcome, err error) (*outcome, error) {
	if err == nil && out != nil && out.pending {
		zap.L().Info("refund arrived before payment settled, deferring")
		return nil, domain.ErrRecordNotFound
	}
	return out, err
}

func (s *Service) completeTip(ctx context.Context, e payments.PaymentSucceeded) (*outcome, error) {
	tip, err := s.tips.Transition(ctx, e.PaymentIntentID, []string{domain.TipStatusPending}, domain.TipStatusCompleted)
	if err != nil {
		return nil, err
	}
	if tip == nil {
		return s.tipAlreadySettled(ctx, e.PaymentIntentID)
	}

	breakdown, err := s.policy.ForTip(tip.Amount)
	if err != nil {
		return nil, err
	}
	metadata := map[string]string{
		payments.MetaTipID:    tip.ID,
		payments.MetaArtistID: tip.ToArtistID,
		payments.MetaUserID:   tip.FromUserID,
		"artist_share":        strconv.FormatInt(breakdown.ArtistShare, 10),
		"platform_share":      strconv.FormatInt(breakdown.PlatformShare, 10),
	}
	if tip.EventID != nil {
		metadata[payments.MetaEventID] = *tip.EventID
	}
	tx := &domain.Transaction{
		ID:              uuid.NewString(),
		TransactionType: domain.TransactionTypeTip,
		Amount:          tip.Amount,
		Currency:        s.currencyOf(e.Currency),
		PaymentIntentID: e.PaymentIntentID,
		Status:          domain.TransactionStatusCompleted,
		Metadata:        metadata,
		CreatedAt:       time.Now(),
	}
	if _, err := s.ledger.CreateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	zap.L().Info("tip completed", zap.String("tip_id", tip.ID), zap.String("payment_intent_id", e.PaymentIntentID),
		zap.Int64("artist_share", breakdown.ArtistShare), zap.Int64("platform_share", breakdown.PlatformShare))
	return &outcome{messages: []notify.Message{s.tipMessage(notify.KindTipCompleted, tip, e.Currency)}}, nil
}

func (s *Service) failTicket(ctx context.Context, e payments.PaymentFailed) (*outcome, error) {
	t, err := s.tickets.Transition(ctx, e.PaymentIntentID, []string{domain.TicketStatusPending}, domain.TicketStatusFailed)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return s.ticketAlreadySettled(ctx, e.PaymentIntentID)
	}
	zap.L().Info("ticket payment failed", zap.String("ticket_id", t.ID), zap.String("reason", e.Reason))
	return &outcome{}, nil
}

func (s *Service) failTip(ctx context.Context, e payments.PaymentFailed) (*outcome, error) {
	tip, err := s.tips.Transition(ctx, e.PaymentIntentID, []string{domain.TipStatusPending}, domain.TipStatusFailed)
	if err != nil {
		return nil, err
	}
	if tip == nil {
		return s.tipAlreadySettled(ctx, e.PaymentIntentID)
	}
	zap.L().Info("tip payment failed", zap.String("tip_id", tip.ID), zap.String("reason", e.Reason))
	return &outcome{}, nil
}

func (s *Service) refundTicket(ctx context.Context, e payments.ChargeRefunded) (*outcome, error) {
	t, err := s.tickets.Transition(ctx, e.PaymentIntentID,
		[]string{domain.TicketStatusConfirmed, domain.TicketStatusUsed}, domain.TicketStatusRefunded)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return s.refundedBeforeSettled(s.ticketAlreadySettled(ctx, e.PaymentIntentID))
	}
	if _, err := s.ledger.MarkTransactionRefunded(ctx, e.PaymentIntentID); err != nil {
		return nil, err
	}
	zap.L().Info("ticket refunded", zap.String("ticket_id", t.ID), zap.Int64("amount_refunded", e.AmountRefunded))
	return &outcome{messages: []notify.Message{s.ticketMessage(notify.KindTicketRefunded, t, "")}}, nil
}

func (s *Service) refundTip(ctx context.Context, e payments.ChargeRefunded) (*outcome, error) {
	tip, err := s.tips.Transition(ctx, e.PaymentIntentID, []string{domain.TipStatusCompleted}, domain.TipStatusRefunded)
	if err != nil {
		return nil, err
	}
	if tip == nil {
		return s.refundedBeforeSettled(s.tipAlreadySettled(ctx, e.PaymentIntentID))
	}
	if _, err := s.ledger.MarkTransactionRefunded(ctx, e.PaymentIntentID); err != nil {
		return nil, err
	}
	zap.L().Info("tip refunded", zap.String("tip_id", tip.ID), zap.Int64("amount_refunded", e.AmountRefunded))
	return &outcome{messages: []notify.Message{s.tipMessage(notify.KindTipRefunded, tip, "")}}, nil
}

func (s *Service) updateAccount(ctx context.Context, e payments.AccountUpdated) (*outcome, error) {
	if !e.Ready() {
		return &outcome{}, nil
	}
	changed, err := s.events.SetOnboardingComplete(ctx, e.AccountID)
	if err != nil {
		return nil, err
	}
	if changed {
		zap.L().Info("artist onboarding complete", zap.String("account_id", e.AccountID))
	}
	return &outcome{}, nil
}

func (s *Service) afterCommit(ctx context.Context, log *zap.Logger, out *outcome) {
	if out == nil {
		return
	}
	if out.refundIntent != "" {
		if err := s.refunds.Refund(ctx, out.refundIntent, out.refundKey); err != nil {
			log.Error("can't refund oversold ticket", zap.String("payment_intent_id", out.refundIntent), zap.Error(err))
		}
	}
	for _, msg := range out.messages {
		if err := s.publisher.Publish(ctx, msg); err != nil {
			log.Error("can't publish notification", zap.String("kind", msg.Kind), zap.String("record_id", msg.RecordID), zap.Error(err))
		}
	}
}

func (s *Service) currencyOf(c string) string {
	if c == "" {
		return s.currency
	}
	return c
}

func (s *Service) ticketMessage(kind string, t *domain.Ticket, currency string) notify.Message {
	msg := notify.Message{
		Kind:       kind,
		RecordID:   t.ID,
		UserID:     t.UserID,
		EventID:    t.EventID,
		Amount:     t.PurchasePrice,
		Currency:   s.currencyOf(currency),
		OccurredAt: time.Now().UTC(),
	}
	if t.PaymentIntentID != nil {
		msg.PaymentIntentID = *t.PaymentIntentID
	}
	return msg
}

func (s *Service) tipMessage(kind string, tip *domain.Tip, currency string) notify.Message {
	msg := notify.Message{
		Kind:       kind,
		RecordID:   tip.ID,
		UserID:     tip.FromUserID,
		ArtistID:   tip.ToArtistID,
		Amount:     tip.Amount,
		Currency:   s.currencyOf(currency),
		OccurredAt: time.Now().UTC(),
	}
	if tip.EventID != nil {
		msg.EventID = *tip.EventID
	}
	if tip.PaymentIntentID != nil {
		msg.PaymentIntentID = *tip.PaymentIntentID
	}
	return msg
}
