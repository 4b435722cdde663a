package payouts

import (
	"context"
	"net/http"
	"time"

	"github.com/GlebRadaev/liveticket/internal/domain"
	"github.com/GlebRadaev/liveticket/internal/dto"
	"github.com/GlebRadaev/liveticket/internal/service/payoutservice"
	"github.com/GlebRadaev/liveticket/pkg/utils"
)

type Service interface {
	Run(ctx context.Context, now time.Time) (*domain.PayoutReport, error)
}

type PayoutHandler struct {
	payoutService Service
	now           func() time.Time
}

func New(payoutService Service) *PayoutHandler {
	return &PayoutHandler{
		payoutService: payoutService,
		now:           time.Now,
	}
}

// Run godoc
//
//	@Summary		Run the daily payout job
//	@Description	Pays the artist share of every event that ended on the settlement day. Safe to repeat.
//	@Tags			Payouts
//	@Produce		json
//	@Param			date	query	string	false	"Settlement day to re-run (YYYY-MM-DD), defaults to 21 days ago"
//	@Security		CronAuth
//	@Success		200	{object}	dto.PayoutReportResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid date"
//	@Failure		401	{object}	utils.Response	"Invalid cron credential"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/cron/payouts [post]
func (h *PayoutHandler) Run(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		day, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		if day.Add(payoutservice.SettlementDelay).After(now) {
			utils.RespondWithError(w, http.StatusBadRequest, "Settlement day is still inside the hold period")
			return
		}
		now = day.Add(payoutservice.SettlementDelay)
	}

	report, err := h.payoutService.Run(r.Context(), now)
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewPayoutReportResponse(report))
}
