package handlers

import (
	"net/http"

	_ "github.com/GlebRadaev/liveticket/docs"
	affiliatehandlers "github.com/GlebRadaev/liveticket/internal/handlers/affiliates"
	payouthandlers "github.com/GlebRadaev/liveticket/internal/handlers/payouts"
	purchasehandlers "github.com/GlebRadaev/liveticket/internal/handlers/purchases"
	webhookhandlers "github.com/GlebRadaev/liveticket/internal/handlers/webhooks"
	"github.com/GlebRadaev/liveticket/internal/service"
	"github.com/GlebRadaev/liveticket/pkg/auth"
	"github.com/GlebRadaev/liveticket/pkg/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type PurchaseHandler interface {
	PurchaseTicket(w http.ResponseWriter, r *http.Request)
	SendTip(w http.ResponseWriter, r *http.Request)
}

type AffiliateHandler interface {
	Register(w http.ResponseWriter, r *http.Request)
	GetStats(w http.ResponseWriter, r *http.Request)
	GetCommissions(w http.ResponseWriter, r *http.Request)
}

type WebhookHandler interface {
	Receive(w http.ResponseWriter, r *http.Request)
}

type PayoutHandler interface {
	Run(w http.ResponseWriter, r *http.Request)
}

// Options configures the guards in front of the handlers. A nil Limiter disables rate limiting.
type Options struct {
	Tokens     auth.TokenValidator
	CronSecret string
	Limiter    *ratelimit.Limiter
}

type Handlers struct {
	PurchaseHandler  PurchaseHandler
	AffiliateHandler AffiliateHandler
	WebhookHandler   WebhookHandler
	PayoutHandler    PayoutHandler

	opts Options
}

func New(s *service.Services, decoder webhookhandlers.Decoder, opts Options) *Handlers {
	return &Handlers{
		PurchaseHandler:  purchasehandlers.New(s.PurchaseService),
		AffiliateHandler: affiliatehandlers.New(s.AffiliateService),
		WebhookHandler:   webhookhandlers.New(decoder, s.SettlementService),
		PayoutHandler:    payouthandlers.New(s.PayoutService),
		opts:             opts,
	}
}

func callerKey(r *http.Request) string {
	return auth.UserID(r.Context())
}

func (h *Handlers) limit(scope string) func(http.Handler) http.Handler {
	if h.opts.Limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return h.opts.Limiter.Middleware(scope, callerKey)
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
	)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))
	r.Route("/api", func(r chi.Router) {
		r.Post("/webhooks/stripe", h.WebhookHandler.Receive)

		r.With(auth.CronAuth(h.opts.CronSecret)).Post("/cron/payouts", h.PayoutHandler.Run)

		r.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware(h.opts.Tokens))
			r.With(h.limit("tickets")).Post("/tickets", h.PurchaseHandler.PurchaseTicket)
			r.With(h.limit("tips")).Post("/tips", h.PurchaseHandler.SendTip)
			r.Route("/affiliates", func(r chi.Router) {
				r.With(h.limit("affiliates")).Post("/", h.AffiliateHandler.Register)
				r.Get("/me", h.AffiliateHandler.GetStats)
				r.Get("/me/commissions", h.AffiliateHandler.GetCommissions)
			})
		})
	})

	return r
}
