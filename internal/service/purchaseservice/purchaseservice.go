package purchaseservice

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/GlebRadaev/liveticket/internal/commission"
	"github.com/GlebRadaev/liveticket/internal/domain"
	"github.com/GlebRadaev/liveticket/internal/payments"
	"github.com/GlebRadaev/liveticket/pkg/validate"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

const (
	MinTipAmount     = int64(100)
	MaxMessageLength = 500
)

type EventRepo interface {
	FindByID(ctx context.Context, id string) (*domain.Event, error)
	FindArtist(ctx context.Context, id string) (*domain.Artist, error)
}

type TicketRepo interface {
	FindActive(ctx context.Context, eventID, userID string) (*domain.Ticket, error)
	Create(ctx context.Context, t *domain.Ticket) error
	SetPaymentIntent(ctx context.Context, ticketID, paymentIntentID string) error
	MarkFailed(ctx context.Context, ticketID string) error
}

type TipRepo interface {
	Create(ctx context.Context, t *domain.Tip) error
	SetPaymentIntent(ctx context.Context, tipID, paymentIntentID string) error
	MarkFailed(ctx context.Context, tipID string) error
}

type AffiliateRepo interface {
	FindByCode(ctx context.Context, code string) (*domain.Affiliate, error)
}

type Gateway interface {
	CreateIntent(ctx context.Context, req payments.IntentRequest) (payments.Intent, error)
}

type Repos struct {
	Events     EventRepo
	Tickets    TicketRepo
	Tips       TipRepo
	Affiliates AffiliateRepo
}

type Service struct {
	events     EventRepo
	tickets    TicketRepo
	tips       TipRepo
	affiliates AffiliateRepo
	gateway    Gateway
	policy     commission.Policy
	sanitizer  *bluemonday.Policy
	currency   string
	maxTip     int64
}

func New(repos Repos, gateway Gateway, policy commission.Policy, currency string, maxTip int64) *Service {
	return &Service{
		events:     repos.Events,
		tickets:    repos.Tickets,
		tips:       repos.Tips,
		affiliates: repos.Affiliates,
		gateway:    gateway,
		policy:     policy,
		sanitizer:  bluemonday.StrictPolicy(),
		currency:   currency,
		maxTip:     maxTip,
	}
}

// PurchaseTicket creates a pending ticket and the payment intent that pays for it.
// The capacity check here is advisory; settlement takes the seat atomically.
func (s *Service) PurchaseTicket(ctx context.Context, userID, eventID, referralCode string) (*domain.Checkout, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, domain.External("find event", err)
	}
	if event == nil {
		return nil, domain.ErrEventNotFound
	}
	if !event.Purchasable() {
		return nil, domain.ErrEventNotPurchasable
	}
	if event.TicketsSold >= event.Capacity {
		return nil, domain.ErrSoldOut
	}

	artist, err := s.payoutArtist(ctx, event.ArtistID)
	if err != nil {
		return nil, err
	}

	existing, err := s.tickets.FindActive(ctx, eventID, userID)
	if err != nil {
		return nil, domain.External("find ticket", err)
	}
	if existing != nil {
		return nil, domain.ErrAlreadyPurchased
	}

	ticket := &domain.Ticket{
		ID:            uuid.NewString(),
		EventID:       eventID,
		UserID:        userID,
		PurchasePrice: event.TicketPrice,
		Status:        domain.TicketStatusPending,
		AffiliateID:   s.resolveReferrer(ctx, userID, referralCode),
		PurchasedAt:   time.Now(),
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, domain.External("create ticket", err)
	}

	intent, err := s.gateway.CreateIntent(ctx, payments.IntentRequest{
		Amount:        ticket.PurchasePrice,
		Currency:      s.currency,
		Description:   "Ticket: " + event.Title,
		TransferGroup: "event:" + event.ID,
		Metadata: map[string]string{
			payments.MetaType:            payments.HintTicket,
			payments.MetaTicketID:        ticket.ID,
			payments.MetaEventID:         event.ID,
			payments.MetaUserID:          userID,
			payments.MetaArtistAccountID: artist.PayoutAccount(),
		},
		IdempotencyKey: ticket.ID,
	})
	if err != nil {
		s.abandonTicket(ctx, ticket.ID)
		return nil, err
	}

	if err := s.tickets.SetPaymentIntent(ctx, ticket.ID, intent.ID); err != nil {
		return nil, domain.External("attach payment intent", err)
	}

	zap.L().Info("ticket checkout created", zap.String("ticket_id", ticket.ID), zap.String("event_id", eventID),
		zap.String("payment_intent_id", intent.ID), zap.Bool("referred", ticket.AffiliateID != nil))
	return &domain.Checkout{
		RecordID:        ticket.ID,
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Amount:          ticket.PurchasePrice,
		Currency:        s.currency,
	}, nil
}

// SendTip creates a pending tip paid as a destination charge; the platform fee is taken as an application fee.
func (s *Service) SendTip(ctx context.Context, userID, artistID string, amount int64, message, eventID string) (*domain.Checkout, error) {
	if amount < MinTipAmount {
		return nil, domain.ErrTipTooSmall
	}
	if s.maxTip > 0 && amount > s.maxTip {
		return nil, domain.ErrTipTooLarge
	}

	artist, err := s.payoutArtist(ctx, artistID)
	if err != nil {
		return nil, err
	}

	var eventRef *string
	if eventID != "" {
		event, err := s.events.FindByID(ctx, eventID)
		if err != nil {
			return nil, domain.External("find event", err)
		}
		if event == nil || event.ArtistID != artistID {
			return nil, domain.ErrEventNotFound
		}
		eventRef = &event.ID
	}

	breakdown, err := s.policy.ForTip(amount)
	if err != nil {
		return nil, err
	}

	tip := &domain.Tip{
		ID:         uuid.NewString(),
		FromUserID: userID,
		ToArtistID: artistID,
		EventID:    eventRef,
		Amount:     amount,
		Message:    s.cleanMessage(message),
		Status:     domain.TipStatusPending,
		CreatedAt:  time.Now(),
	}
	if err := s.tips.Create(ctx, tip); err != nil {
		return nil, domain.External("create tip", err)
	}

	metadata := map[string]string{
		payments.MetaType:     payments.HintTip,
		payments.MetaTipID:    tip.ID,
		payments.MetaArtistID: artistID,
		payments.MetaUserID:   userID,
	}
	if eventRef != nil {
		metadata[payments.MetaEventID] = *eventRef
	}
	intent, err := s.gateway.CreateIntent(ctx, payments.IntentRequest{
		Amount:         amount,
		Currency:       s.currency,
		Description:    "Tip for " + artist.DisplayName,
		Metadata:       metadata,
		Destination:    artist.PayoutAccount(),
		ApplicationFee: breakdown.PlatformShare,
		IdempotencyKey: tip.ID,
	})
	if err != nil {
		if markErr := s.tips.MarkFailed(ctx, tip.ID); markErr != nil {
			zap.L().Error("can't fail abandoned tip", zap.String("tip_id", tip.ID), zap.Error(markErr))
		}
		return nil, err
	}

	if err := s.tips.SetPaymentIntent(ctx, tip.ID, intent.ID); err != nil {
		return nil, domain.External("attach payment intent", err)
	}

	zap.L().Info("tip checkout created", zap.String("tip_id", tip.ID), zap.String("artist_id", artistID),
		zap.String("payment_intent_id", intent.ID))
	return &domain.Checkout{
		RecordID:        tip.ID,
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Amount:          amount,
		Currency:        s.currency,
	}, nil
}

// payoutArtist loads the artist and refuses to collect funds that cannot be routed onward.
func (s *Service) payoutArtist(ctx context.Context, artistID string) (*domain.Artist, error) {
	artist, err := s.events.FindArtist(ctx, artistID)
	if err != nil {
		return nil, domain.External("find artist", err)
	}
	if artist == nil {
		return nil, domain.ErrArtistNotFound
	}
	if artist.PayoutAccount() == "" {
		return nil, domain.ErrPayoutAccountMissing
	}
	return artist, nil
}

// resolveReferrer never fails: unknown, malformed, inactive and self-owned codes are all ignored alike.
func (s *Service) resolveReferrer(ctx context.Context, userID, code string) *string {
	code = strings.TrimSpace(code)
	if code == "" || !validate.IsReferralCode(code) {
		return nil
	}
	affiliate, err := s.affiliates.FindByCode(ctx, code)
	if err != nil {
		zap.L().Warn("can't resolve referral code, ignoring", zap.Error(err))
		return nil
	}
	if affiliate == nil || !affiliate.IsActive || affiliate.ID == userID {
		return nil
	}
	return &affiliate.ID
}

func (s *Service) abandonTicket(ctx context.Context, ticketID string) {
	if err := s.tickets.MarkFailed(ctx, ticketID); err != nil {
		zap.L().Error("can't fail abandoned ticket", zap.String("ticket_id", ticketID), zap.Error(err))
	}
}

func (s *Service) cleanMessage(message string) string {
	// Sanitize escapes the text it keeps; messages are stored as plain text.
	message = strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(message)))
	if utf8.RuneCountInString(message) <= MaxMessageLength {
		return message
	}
	return string([]rune(message)[:MaxMessageLength])
}
