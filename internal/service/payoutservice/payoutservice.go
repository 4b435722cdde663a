package payoutservice

import (
	"context"
	"errors"
	"time"

	"github.com/GlebRadaev/liveticket/internal/commission"
	"github.com/GlebRadaev/liveticket/internal/domain"
	"github.com/GlebRadaev/liveticket/internal/notify"
	"github.com/GlebRadaev/liveticket/internal/payments"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	SettlementDelay  = 21 * 24 * time.Hour
	MinPayoutAmount  = int64(1000)
	maxParallelEvent = 4
)

type EventRepo interface {
	ListEndedBetween(ctx context.Context, from, to time.Time) ([]domain.Event, error)
	FindArtist(ctx context.Context, id string) (*domain.Artist, error)
}

type PayoutRepo interface {
	ExistsForEvent(ctx context.Context, eventID string) (bool, error)
	Create(ctx context.Context, p *domain.Payout) error
}

type Transferer interface {
	Transfer(ctx context.Context, req payments.TransferRequest) (string, error)
}

type Publisher interface {
	Publish(ctx context.Context, msg notify.Message) error
}

type Service struct {
	events    EventRepo
	payouts   PayoutRepo
	transfers Transferer
	publisher Publisher
	policy    commission.Policy
	currency  string
}

func New(events EventRepo, payouts PayoutRepo, transfers Transferer, publisher Publisher, policy commission.Policy, currency string) *Service {
	return &Service{
		events:    events,
		payouts:   payouts,
		transfers: transfers,
		publisher: publisher,
		policy:    policy,
		currency:  currency,
	}
}

// SettlementDay is the UTC calendar day whose ended events are paid out on a run at now.
func SettlementDay(now time.Time) time.Time {
	y, m, d := now.UTC().Add(-SettlementDelay).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Run pays out every event that ended exactly SettlementDelay ago. Per-event failures are
// reported as outcomes; only a failure to list events fails the run.
func (s *Service) Run(ctx context.Context, now time.Time) (*domain.PayoutReport, error) {
	day := SettlementDay(now)
	events, err := s.events.ListEndedBetween(ctx, day, day.Add(24*time.Hour))
	if err != nil {
		return nil, domain.External("list ended events", err)
	}

	report := &domain.PayoutReport{
		SettlementDate: day,
		Outcomes:       make([]domain.PayoutOutcome, len(events)),
	}
	var g errgroup.Group
	g.SetLimit(maxParallelEvent)
	for i, event := range events {
		g.Go(func() error {
			report.Outcomes[i] = s.settleEvent(ctx, event)
			return nil
		})
	}
	_ = g.Wait()

	zap.L().Info("payout run finished",
		zap.Time("settlement_date", day),
		zap.Int("events", len(events)),
		zap.Int("paid", report.Count(domain.PayoutOutcomePaid)),
		zap.Int("skipped_existing", report.Count(domain.PayoutOutcomeSkippedExisting)),
		zap.Int("skipped_below_minimum", report.Count(domain.PayoutOutcomeSkippedBelowMinimum)),
		zap.Int("errors", len(events)-report.Count(domain.PayoutOutcomePaid)-
			report.Count(domain.PayoutOutcomeSkippedExisting)-report.Count(domain.PayoutOutcomeSkippedBelowMinimum)))
	return report, nil
}

func (s *Service) settleEvent(ctx context.Context, event domain.Event) domain.PayoutOutcome {
	out := domain.PayoutOutcome{EventID: event.ID, ArtistID: event.ArtistID}
	log := zap.L().With(zap.String("event_id", event.ID), zap.String("artist_id", event.ArtistID))

	exists, err := s.payouts.ExistsForEvent(ctx, event.ID)
	if err != nil {
		log.Error("can't check payout", zap.Error(err))
		out.Outcome = domain.PayoutOutcomeRecordFailed
		return out
	}
	if exists {
		out.Outcome = domain.PayoutOutcomeSkippedExisting
		return out
	}

	gross := int64(event.TicketsSold) * event.TicketPrice
	artistShare, platformShare := s.policy.PayoutSplit(gross)
	out.ArtistShare = artistShare
	if artistShare < MinPayoutAmount {
		log.Info("payout below minimum, skipping", zap.Int64("artist_share", artistShare))
		out.Outcome = domain.PayoutOutcomeSkippedBelowMinimum
		return out
	}

	artist, err := s.events.FindArtist(ctx, event.ArtistID)
	if err != nil {
		log.Error("can't load artist", zap.Error(err))
		out.Outcome = domain.PayoutOutcomeRecordFailed
		return out
	}
	account := artist.PayoutAccount()
	if account == "" {
		log.Error("artist has no payout account")
		out.Outcome = domain.PayoutOutcomeNoPayoutAccount
		return out
	}

	transferID, err := s.transfers.Transfer(ctx, payments.TransferRequest{
		Amount:        artistShare,
		Currency:      s.currency,
		Destination:   account,
		TransferGroup: "event:" + event.ID,
		Metadata: map[string]string{
			payments.MetaEventID:  event.ID,
			payments.MetaArtistID: event.ArtistID,
		},
		IdempotencyKey: "payout:" + event.ID,
	})
	if err != nil {
		log.Error("payout transfer failed", zap.Error(err))
		out.Outcome = domain.PayoutOutcomeTransferFailed
		return out
	}
	out.TransferID = transferID

	payout := &domain.Payout{
		ID:               uuid.NewString(),
		EventID:          event.ID,
		ArtistID:         event.ArtistID,
		GrossRevenue:     gross,
		ArtistShare:      artistShare,
		PlatformShare:    platformShare,
		StripeTransferID: transferID,
		Status:           domain.PayoutStatusPaid,
		PayoutDate:       time.Now(),
	}
	if err := s.payouts.Create(ctx, payout); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			out.Outcome = domain.PayoutOutcomeSkippedExisting
			return out
		}
		log.Error("transfer sent but payout not recorded", zap.String("transfer_id", transferID), zap.Error(err))
		out.Outcome = domain.PayoutOutcomeRecordFailed
		return out
	}

	log.Info("payout sent", zap.String("transfer_id", transferID), zap.Int64("artist_share", artistShare))
	out.Outcome = domain.PayoutOutcomePaid
	if err := s.publisher.Publish(ctx, notify.Message{
		Kind:       notify.KindPayoutSent,
		RecordID:   payout.ID,
		ArtistID:   event.ArtistID,
		EventID:    event.ID,
		Amount:     artistShare,
		Currency:   s.currency,
		OccurredAt: payout.PayoutDate.UTC(),
	}); err != nil {
		log.Error("can't publish notification", zap.String("kind", notify.KindPayoutSent), zap.Error(err))
	}
	return out
}
