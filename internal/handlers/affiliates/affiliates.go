package affiliates

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/GlebRadaev/liveticket/internal/domain"
	"github.com/GlebRadaev/liveticket/internal/dto"
	"github.com/GlebRadaev/liveticket/pkg/auth"
	"github.com/GlebRadaev/liveticket/pkg/utils"
)

type Service interface {
	Register(ctx context.Context, userID, parentCode string) (*domain.Affiliate, error)
	Stats(ctx context.Context, affiliateID string) (*domain.AffiliateStats, error)
	ListCommissions(ctx context.Context, affiliateID string, limit int) ([]domain.AffiliateCommission, error)
}

type AffiliateHandler struct {
	affiliateService Service
}

func New(affiliateService Service) *AffiliateHandler {
	return &AffiliateHandler{
		affiliateService: affiliateService,
	}
}

// Register godoc
//
//	@Summary		Become an affiliate
//	@Description	Registers the caller as an affiliate, optionally under the owner of a referral code, and issues a referral code.
//	@Tags			Affiliates
//	@Accept			json
//	@Produce		json
//	@Param			request	body	dto.RegisterAffiliateRequestDTO	false	"Optional parent referral code"
//	@Security		BearerAuth
//	@Success		201	{object}	dto.AffiliateResponseDTO
//	@Failure		400	{object}	utils.Response	"Malformed referral code"
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		409	{object}	utils.Response	"Already registered"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/affiliates [post]
func (h *AffiliateHandler) Register(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req dto.RegisterAffiliateRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	affiliate, err := h.affiliateService.Register(r.Context(), userID, req.ParentReferralCode)
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewAffiliateResponse(affiliate))
}

// GetStats godoc
//
//	@Summary		Affiliate earnings
//	@Description	Returns the caller's referral code, referral count and commission totals.
//	@Tags			Affiliates
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	dto.AffiliateStatsResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		404	{object}	utils.Response	"Caller is not an affiliate"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/affiliates/me [get]
func (h *AffiliateHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	stats, err := h.affiliateService.Stats(r.Context(), userID)
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewAffiliateStatsResponse(stats))
}

// GetCommissions godoc
//
//	@Summary		Affiliate commissions
//	@Description	Lists the caller's commission rows, newest first.
//	@Tags			Affiliates
//	@Produce		json
//	@Param			limit	query	int	false	"Page size (default 50, max 200)"
//	@Security		BearerAuth
//	@Success		200	{array}		dto.CommissionResponseDTO
//	@Failure		204	{object}	utils.Response	"No data available"
//	@Failure		400	{object}	utils.Response	"Invalid limit"
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		404	{object}	utils.Response	"Caller is not an affiliate"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/affiliates/me/commissions [get]
func (h *AffiliateHandler) GetCommissions(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	commissions, err := h.affiliateService.ListCommissions(r.Context(), userID, limit)
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	if len(commissions) == 0 {
		utils.RespondWithJSON(w, http.StatusNoContent, nil)
		return
	}

	response := make([]dto.CommissionResponseDTO, 0, len(commissions))
	for _, c := range commissions {
		response = append(response, dto.NewCommissionResponse(c))
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}
