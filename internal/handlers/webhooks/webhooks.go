package webhooks

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/GlebRadaev/liveticket/internal/domain"
	"github.com/GlebRadaev/liveticket/internal/payments"
	"github.com/GlebRadaev/liveticket/pkg/utils"
	"go.uber.org/zap"
)

const SignatureHeader = "Stripe-Signature"

type Decoder interface {
	Decode(payload []byte, signature string) (payments.Event, error)
}

type Service interface {
	Handle(ctx context.Context, ev payments.Event) error
}

type WebhookHandler struct {
	decoder           Decoder
	settlementService Service
}

func New(decoder Decoder, settlementService Service) *WebhookHandler {
	return &WebhookHandler{
		decoder:           decoder,
		settlementService: settlementService,
	}
}

type AckResponse struct {
	Received bool `json:"received"`
}

// Receive godoc
//
//	@Summary		Payment processor webhook
//	@Description	Verifies the signature and settles the payment event. Redelivered events are acknowledged without changes.
//	@Tags			Webhooks
//	@Accept			json
//	@Produce		json
//	@Param			Stripe-Signature	header	string	true	"Processor signature"
//	@Success		200	{object}	AckResponse
//	@Failure		400	{object}	utils.Response	"Invalid signature or payload"
//	@Failure		404	{object}	utils.Response	"Payment record not found yet, retry later"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/webhooks/stripe [post]
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, payments.MaxBodyBytes))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	ev, err := h.decoder.Decode(payload, r.Header.Get(SignatureHeader))
	if err != nil {
		zap.L().Warn("rejected webhook", zap.String("kind", domain.Kind(err)), zap.Error(err))
		utils.RespondWithDomainError(w, err)
		return
	}

	err = h.settlementService.Handle(r.Context(), ev)
	if err != nil && !errors.Is(err, domain.ErrAlreadyProcessed) {
		utils.RespondWithDomainError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, AckResponse{Received: true})
}
