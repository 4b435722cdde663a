package payments

import (
	"encoding/json"
	"fmt"

	"github.com/GlebRadaev/liveticket/internal/domain"
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"
	"go.uber.org/zap"
)

// Metadata keys written at intent creation.
const (
	MetaType            = "type"
	MetaTicketID        = "ticket_id"
	MetaTipID           = "tip_id"
	MetaEventID         = "event_id"
	MetaUserID          = "user_id"
	MetaArtistID        = "artist_id"
	MetaArtistAccountID = "artist_account_id"
)

// Routing hints carried in metadata["type"].
const (
	HintTicket = domain.TransactionTypeTicket
	HintTip    = domain.TransactionTypeTip
)

const (
	TypePaymentSucceeded = "payment_intent.succeeded"
	TypePaymentFailed    = "payment_intent.payment_failed"
	TypePaymentCanceled  = "payment_intent.canceled"
	TypeChargeRefunded   = "charge.refunded"
	TypeAccountUpdated   = "account.updated"
)

// Event is one of PaymentSucceeded, PaymentFailed, ChargeRefunded, AccountUpdated or Ignored.
type Event interface {
	header() Header
}

type Header struct {
	ID   string
	Type string
}

func (h Header) header() Header { return h }

func HeaderOf(ev Event) Header {
	return ev.header()
}

type PaymentSucceeded struct {
	Header
	PaymentIntentID string
	Amount          int64
	Currency        string
	Hint            string
	Metadata        map[string]string
}

type PaymentFailed struct {
	Header
	PaymentIntentID string
	Hint            string
	Reason          string
}

type ChargeRefunded struct {
	Header
	PaymentIntentID string
	Hint            string
	AmountRefunded  int64
}

type AccountUpdated struct {
	Header
	AccountID        string
	DetailsSubmitted bool
	ChargesEnabled   bool
}

// Ready reports whether the connected account can receive funds.
func (a AccountUpdated) Ready() bool {
	return a.DetailsSubmitted && a.ChargesEnabled
}

type Ignored struct {
	Header
}

const MaxBodyBytes = int64(65536)

type WebhookDecoder struct {
	secret string
}

func NewWebhookDecoder(secret string) *WebhookDecoder {
	return &WebhookDecoder{secret: secret}
}

// Decode verifies the signature over the raw payload before looking at its contents.
func (d *WebhookDecoder) Decode(payload []byte, signature string) (Event, error) {
	if d.secret == "" {
		return nil, fmt.Errorf("%w: webhook secret is not configured", domain.ErrSignatureInvalid)
	}

	ev, err := webhook.ConstructEventWithOptions(payload, signature, d.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSignatureInvalid, err)
	}
	if ev.ID == "" {
		return nil, fmt.Errorf("%w: event has no id", domain.ErrValidation)
	}
	return decodeEvent(ev)
}

func decodeEvent(ev stripe.Event) (Event, error) {
	env := Header{ID: ev.ID, Type: string(ev.Type)}
	raw := []byte(nil)
	if ev.Data != nil {
		raw = ev.Data.Raw
	}

	switch env.Type {
	case TypePaymentSucceeded:
		var pi stripe.PaymentIntent
		if err := unmarshalObject(raw, &pi); err != nil {
			return nil, err
		}
		amount := pi.AmountReceived
		if amount == 0 {
			amount = pi.Amount
		}
		return PaymentSucceeded{
			Header:          env,
			PaymentIntentID: pi.ID,
			Amount:          amount,
			Currency:        string(pi.Currency),
			Hint:            pi.Metadata[MetaType],
			Metadata:        pi.Metadata,
		}, nil

	case TypePaymentFailed, TypePaymentCanceled:
		var pi stripe.PaymentIntent
		if err := unmarshalObject(raw, &pi); err != nil {
			return nil, err
		}
		reason := string(pi.CancellationReason)
		if pi.LastPaymentError != nil {
			reason = pi.LastPaymentError.Msg
		}
		return PaymentFailed{
			Header:          env,
			PaymentIntentID: pi.ID,
			Hint:            pi.Metadata[MetaType],
			Reason:          reason,
		}, nil

	case TypeChargeRefunded:
		var ch stripe.Charge
		if err := unmarshalObject(raw, &ch); err != nil {
			return nil, err
		}
		if ch.PaymentIntent == nil || ch.PaymentIntent.ID == "" {
			return Ignored{Header: env}, nil
		}
		if !ch.Refunded {
			zap.L().Info("partial refund left unsettled", zap.String("event_id", env.ID),
				zap.String("payment_intent_id", ch.PaymentIntent.ID),
				zap.Int64("amount_refunded", ch.AmountRefunded), zap.Int64("amount", ch.Amount))
			return Ignored{Header: env}, nil
		}
		return ChargeRefunded{
			Header:          env,
			PaymentIntentID: ch.PaymentIntent.ID,
			Hint:            ch.Metadata[MetaType],
			AmountRefunded:  ch.AmountRefunded,
		}, nil

	case TypeAccountUpdated:
		var acct stripe.Account
		if err := unmarshalObject(raw, &acct); err != nil {
			return nil, err
		}
		return AccountUpdated{
			Header:           env,
			AccountID:        acct.ID,
			DetailsSubmitted: acct.DetailsSubmitted,
			ChargesEnabled:   acct.ChargesEnabled,
		}, nil
	}

	return Ignored{Header: env}, nil
}

func unmarshalObject(raw []byte, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: event has no data object", domain.ErrValidation)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: decode event object: %w", domain.ErrValidation, err)
	}
	return nil
}
