package dto

import (
	"fmt"

	"github.com/GlebRadaev/liveticket/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the validate tags of a request and reports failures as validation errors.
func Validate(req any) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrValidation, err.Error())
	}
	return nil
}

type CheckoutResponseDTO struct {
	ID              string `json:"id" example:"6f1c2e1a-8d7b-4a57-9c1f-1f0e9b1f2a3c"`
	PaymentIntentID string `json:"payment_intent_id" example:"pi_3Pq..."`
	ClientSecret    string `json:"client_secret" example:"pi_3Pq..._secret_..."`
	Amount          int64  `json:"amount" example:"2000"`
	Currency        string `json:"currency" example:"usd"`
}

func NewCheckoutResponse(c *domain.Checkout) CheckoutResponseDTO {
	return CheckoutResponseDTO{
		ID:              c.RecordID,
		PaymentIntentID: c.PaymentIntentID,
		ClientSecret:    c.ClientSecret,
		Amount:          c.Amount,
		Currency:        c.Currency,
	}
}
