package purchases

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/GlebRadaev/liveticket/internal/domain"
	"github.com/GlebRadaev/liveticket/internal/dto"
	"github.com/GlebRadaev/liveticket/pkg/auth"
	"github.com/GlebRadaev/liveticket/pkg/utils"
)

type Service interface {
	PurchaseTicket(ctx context.Context, userID, eventID, referralCode string) (*domain.Checkout, error)
	SendTip(ctx context.Context, userID, artistID string, amount int64, message, eventID string) (*domain.Checkout, error)
}

type PurchaseHandler struct {
	purchaseService Service
}

func New(purchaseService Service) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: purchaseService,
	}
}

// PurchaseTicket godoc
//
//	@Summary		Start a ticket purchase
//	@Description	Creates a pending ticket and a payment intent. The ticket is confirmed once the processor reports the payment.
//	@Tags			Purchases
//	@Accept			json
//	@Produce		json
//	@Param			request	body	dto.PurchaseTicketRequestDTO	true	"Event and optional referral code"
//	@Security		BearerAuth
//	@Success		201	{object}	dto.CheckoutResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid request, sold out or event not on sale"
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		404	{object}	utils.Response	"Event or artist not found"
//	@Failure		409	{object}	utils.Response	"Ticket already purchased"
//	@Failure		429	{object}	utils.Response	"Too many requests"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/tickets [post]
func (h *PurchaseHandler) PurchaseTicket(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req dto.PurchaseTicketRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}

	checkout, err := h.purchaseService.PurchaseTicket(r.Context(), userID, req.EventID, req.ReferralCode)
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewCheckoutResponse(checkout))
}

// SendTip godoc
//
//	@Summary		Start a tip
//	@Description	Creates a pending tip paid directly to the artist's payout account.
//	@Tags			Purchases
//	@Accept			json
//	@Produce		json
//	@Param			request	body	dto.SendTipRequestDTO	true	"Artist, amount in minor units and optional message"
//	@Security		BearerAuth
//	@Success		201	{object}	dto.CheckoutResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid amount or artist has no payout account"
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		404	{object}	utils.Response	"Artist or event not found"
//	@Failure		429	{object}	utils.Response	"Too many requests"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/tips [post]
func (h *PurchaseHandler) SendTip(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req dto.SendTipRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := dto.Validate(req); err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}

	checkout, err := h.purchaseService.SendTip(r.Context(), userID, req.ArtistID, req.Amount, req.Message, req.EventID)
	if err != nil {
		utils.RespondWithDomainError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewCheckoutResponse(checkout))
}
