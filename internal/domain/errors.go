package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error that crosses a service boundary wraps exactly one of them.
var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrRateLimited        = errors.New("rate limited")
	ErrExternalService    = errors.New("external service error")
	ErrSignatureInvalid   = errors.New("signature invalid")
)

var (
	ErrInvalidAmount        = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrTipTooSmall          = fmt.Errorf("%w: tip is below the minimum amount", ErrValidation)
	ErrTipTooLarge          = fmt.Errorf("%w: tip is above the maximum amount", ErrValidation)
	ErrInvalidReferralCode  = fmt.Errorf("%w: referral code must be 8 characters", ErrValidation)
	ErrEventNotFound        = fmt.Errorf("%w: event", ErrNotFound)
	ErrArtistNotFound       = fmt.Errorf("%w: artist", ErrNotFound)
	ErrAffiliateNotFound    = fmt.Errorf("%w: affiliate", ErrNotFound)
	ErrRecordNotFound       = fmt.Errorf("%w: payment record", ErrNotFound)
	ErrAlreadyPurchased     = fmt.Errorf("%w: ticket already purchased", ErrConflict)
	ErrAlreadyRegistered    = fmt.Errorf("%w: already registered as affiliate", ErrConflict)
	ErrReferralCodeTaken    = fmt.Errorf("%w: referral code taken", ErrConflict)
	ErrSoldOut              = fmt.Errorf("%w: event is sold out", ErrPreconditionFailed)
	ErrEventNotPurchasable  = fmt.Errorf("%w: event is not on sale", ErrPreconditionFailed)
	ErrPayoutAccountMissing = fmt.Errorf("%w: artist has no payout account", ErrPreconditionFailed)
	ErrAlreadyProcessed     = fmt.Errorf("%w: webhook event already processed", ErrConflict)
)

// Kind returns the machine-readable kind of err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrPreconditionFailed):
		return "precondition_failed"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrSignatureInvalid):
		return "signature_invalid"
	default:
		return "external_service_error"
	}
}

// External wraps a processor or store failure.
func External(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrExternalService, op, err)
}
