package dto

type PurchaseTicketRequestDTO struct {
	EventID      string `json:"event_id" validate:"required,uuid" example:"0b6f1c9e-3d2a-4c1e-9f7b-2a8d5e6c1a01"`
	ReferralCode string `json:"referral_code,omitempty" validate:"omitempty,max=64" example:"79927398"`
}

type SendTipRequestDTO struct {
	ArtistID string `json:"artist_id" validate:"required,uuid" example:"5d2e8a4b-7c19-4f3a-8b6e-9c0d1e2f3a4b"`
	Amount   int64  `json:"amount" example:"500"`
	Message  string `json:"message,omitempty" example:"Great show!"`
	EventID  string `json:"event_id,omitempty" validate:"omitempty,uuid" example:"0b6f1c9e-3d2a-4c1e-9f7b-2a8d5e6c1a01"`
}
