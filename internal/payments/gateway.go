// Package payments talks to the payment processor. It creates and inspects
// payment intents, issues refunds and transfers, and turns signed webhook
// deliveries into typed events.
package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/GlebRadaev/liveticket/internal/domain"
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/client"
	"go.uber.org/zap"
)

// Intent statuses reported by the processor.
const (
	IntentSucceeded             = string(stripe.PaymentIntentStatusSucceeded)
	IntentProcessing            = string(stripe.PaymentIntentStatusProcessing)
	IntentCanceled              = string(stripe.PaymentIntentStatusCanceled)
	IntentRequiresPaymentMethod = string(stripe.PaymentIntentStatusRequiresPaymentMethod)
	IntentRequiresConfirmation  = string(stripe.PaymentIntentStatusRequiresConfirmation)
	IntentRequiresAction        = string(stripe.PaymentIntentStatusRequiresAction)
	IntentRequiresCapture       = string(stripe.PaymentIntentStatusRequiresCapture)
)

// IntentRequest describes a collection. Destination set means a destination
// charge; otherwise funds stay on the platform under TransferGroup.
type IntentRequest struct {
	Amount         int64
	Currency       string
	Description    string
	Metadata       map[string]string
	TransferGroup  string
	Destination    string
	ApplicationFee int64
	IdempotencyKey string
}

type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
	Metadata     map[string]string
}

// AwaitingPayment reports whether the customer never completed the checkout.
func (i Intent) AwaitingPayment() bool {
	switch i.Status {
	case IntentRequiresPaymentMethod, IntentRequiresConfirmation, IntentRequiresAction:
		return true
	}
	return false
}

type TransferRequest struct {
	Amount         int64
	Currency       string
	Destination    string
	TransferGroup  string
	Metadata       map[string]string
	IdempotencyKey string
}

var ErrNotConfigured = errors.New("payment processor is not configured")

type Stripe struct {
	api *client.API
}

func NewStripe(secretKey string) *Stripe {
	if secretKey == "" {
		zap.L().Warn("STRIPE_SECRET_KEY is empty, processor calls will fail")
		return &Stripe{}
	}
	return &Stripe{api: client.New(secretKey, nil)}
}

func (s *Stripe) ready() error {
	if s.api == nil {
		return domain.External("stripe", ErrNotConfigured)
	}
	return nil
}

func (s *Stripe) CreateIntent(ctx context.Context, req IntentRequest) (Intent, error) {
	if err := s.ready(); err != nil {
		return Intent{}, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if req.Destination != "" {
		params.TransferData = &stripe.PaymentIntentTransferDataParams{
			Destination: stripe.String(req.Destination),
		}
		if req.ApplicationFee > 0 {
			params.ApplicationFeeAmount = stripe.Int64(req.ApplicationFee)
		}
	}
	if req.TransferGroup != "" {
		params.TransferGroup = stripe.String(req.TransferGroup)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, domain.External("create payment intent", err)
	}
	return fromStripeIntent(pi), nil
}

func (s *Stripe) GetIntent(ctx context.Context, id string) (Intent, error) {
	if err := s.ready(); err != nil {
		return Intent{}, err
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := s.api.PaymentIntents.Get(id, params)
	if err != nil {
		return Intent{}, domain.External("get payment intent", err)
	}
	return fromStripeIntent(pi), nil
}

func (s *Stripe) CancelIntent(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}

	params := &stripe.PaymentIntentCancelParams{
		CancellationReason: stripe.String(string(stripe.PaymentIntentCancellationReasonAbandoned)),
	}
	params.Context = ctx
	if _, err := s.api.PaymentIntents.Cancel(id, params); err != nil {
		return domain.External("cancel payment intent", err)
	}
	return nil
}

// Refund returns the full amount of a payment intent to the customer.
func (s *Stripe) Refund(ctx context.Context, paymentIntentID, idempotencyKey string) error {
	if err := s.ready(); err != nil {
		return err
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	params.Context = ctx
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}
	if _, err := s.api.Refunds.New(params); err != nil {
		return domain.External("refund", err)
	}
	return nil
}

func (s *Stripe) Transfer(ctx context.Context, req TransferRequest) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}

	params := &stripe.TransferParams{
		Amount:      stripe.Int64(req.Amount),
		Currency:    stripe.String(req.Currency),
		Destination: stripe.String(req.Destination),
	}
	params.Context = ctx
	if req.TransferGroup != "" {
		params.TransferGroup = stripe.String(req.TransferGroup)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	tr, err := s.api.Transfers.New(params)
	if err != nil {
		return "", domain.External(fmt.Sprintf("transfer to %s", req.Destination), err)
	}
	return tr.ID, nil
}

func fromStripeIntent(pi *stripe.PaymentIntent) Intent {
	return Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
}
