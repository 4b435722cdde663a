package dto

import (
	"strconv"
	"time"

	"github.com/GlebRadaev/liveticket/internal/domain"
)

type RegisterAffiliateRequestDTO struct {
	ParentReferralCode string `json:"parent_referral_code,omitempty" example:"79927398"`
}

type AffiliateResponseDTO struct {
	ID                     string  `json:"id" example:"7a1f3c5e-2b4d-4e6f-8a9b-0c1d2e3f4a5b"`
	ReferralCode           string  `json:"referral_code" example:"12345674"`
	ParentAffiliateID      *string `json:"parent_affiliate_id,omitempty" example:"3c9d2b1a-6e5f-4a7b-9c8d-1e2f3a4b5c6d"`
	GrandparentAffiliateID *string `json:"grandparent_affiliate_id,omitempty"`
	CreatedAt              string  `json:"created_at" example:"2026-10-16T12:00:00Z"`
}

func NewAffiliateResponse(a *domain.Affiliate) AffiliateResponseDTO {
	return AffiliateResponseDTO{
		ID:                     a.ID,
		ReferralCode:           a.ReferralCode,
		ParentAffiliateID:      a.ParentAffiliateID,
		GrandparentAffiliateID: a.GrandparentAffiliateID,
		CreatedAt:              a.CreatedAt.Format(time.RFC3339),
	}
}

type AffiliateStatsResponseDTO struct {
	ReferralCode    string           `json:"referral_code" example:"12345674"`
	TotalReferrals  int              `json:"total_referrals" example:"4"`
	TotalEarnings   int64            `json:"total_earnings" example:"400"`
	PendingEarnings int64            `json:"pending_earnings" example:"250"`
	PaidEarnings    int64            `json:"paid_earnings" example:"150"`
	ByLevel         map[string]int64 `json:"by_level"`
}

func NewAffiliateStatsResponse(s *domain.AffiliateStats) AffiliateStatsResponseDTO {
	byLevel := make(map[string]int64, len(s.ByLevel))
	for level, amount := range s.ByLevel {
		byLevel[strconv.Itoa(level)] = amount
	}
	return AffiliateStatsResponseDTO{
		ReferralCode:    s.ReferralCode,
		TotalReferrals:  s.TotalReferrals,
		TotalEarnings:   s.TotalEarnings,
		PendingEarnings: s.PendingEarnings,
		PaidEarnings:    s.PaidEarnings,
		ByLevel:         byLevel,
	}
}

type CommissionResponseDTO struct {
	ID        string  `json:"id"`
	TicketID  string  `json:"ticket_id"`
	Level     int     `json:"level" example:"1"`
	Rate      string  `json:"rate" example:"0.025"`
	Amount    int64   `json:"amount" example:"250"`
	Status    string  `json:"status" example:"pending"`
	PaidAt    *string `json:"paid_at,omitempty"`
	CreatedAt string  `json:"created_at" example:"2026-10-16T12:00:00Z"`
}

func NewCommissionResponse(c domain.AffiliateCommission) CommissionResponseDTO {
	resp := CommissionResponseDTO{
		ID:        c.ID,
		TicketID:  c.TicketID,
		Level:     c.CommissionLevel,
		Rate:      c.CommissionRate,
		Amount:    c.CommissionAmount,
		Status:    c.Status,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
	if c.PaidAt != nil {
		paid := c.PaidAt.Format(time.RFC3339)
		resp.PaidAt = &paid
	}
	return resp
}
