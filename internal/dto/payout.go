package dto

import (
	"time"

	"github.com/GlebRadaev/liveticket/internal/domain"
)

type PayoutOutcomeDTO struct {
	EventID     string `json:"event_id" example:"evt-42"`
	ArtistID    string `json:"artist_id" example:"art-7"`
	Outcome     string `json:"outcome" example:"paid"`
	ArtistShare int64  `json:"artist_share" example:"35000"`
	TransferID  string `json:"transfer_id,omitempty" example:"tr_1"`
}

type PayoutReportResponseDTO struct {
	SettlementDate string             `json:"settlement_date" example:"2026-10-01"`
	Paid           int                `json:"paid" example:"1"`
	Outcomes       []PayoutOutcomeDTO `json:"outcomes"`
}

func NewPayoutReportResponse(r *domain.PayoutReport) PayoutReportResponseDTO {
	outcomes := make([]PayoutOutcomeDTO, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		outcomes = append(outcomes, PayoutOutcomeDTO{
			EventID:     o.EventID,
			ArtistID:    o.ArtistID,
			Outcome:     o.Outcome,
			ArtistShare: o.ArtistShare,
			TransferID:  o.TransferID,
		})
	}
	return PayoutReportResponseDTO{
		SettlementDate: r.SettlementDate.Format(time.DateOnly),
		Paid:           r.Count(domain.PayoutOutcomePaid),
		Outcomes:       outcomes,
	}
}
