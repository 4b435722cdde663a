package service

import (
	"github.com/GlebRadaev/liveticket/internal/commission"
	"github.com/GlebRadaev/liveticket/internal/handlers/affiliates"
	"github.com/GlebRadaev/liveticket/internal/handlers/payouts"
	"github.com/GlebRadaev/liveticket/internal/handlers/purchases"
	"github.com/GlebRadaev/liveticket/internal/handlers/webhooks"
	"github.com/GlebRadaev/liveticket/internal/pg"
	"github.com/GlebRadaev/liveticket/internal/repo"
	"github.com/GlebRadaev/liveticket/internal/service/affiliateservice"
	"github.com/GlebRadaev/liveticket/internal/service/payoutservice"
	"github.com/GlebRadaev/liveticket/internal/service/purchaseservice"
	"github.com/GlebRadaev/liveticket/internal/service/settlementservice"
)

// Processor is everything the services ask of the payment processor.
type Processor interface {
	purchaseservice.Gateway
	settlementservice.Refunder
	payoutservice.Transferer
}

type Publisher interface {
	settlementservice.Publisher
}

type Deps struct {
	Processor Processor
	Publisher Publisher
	Policy    commission.Policy
	Currency  string
	MaxTip    int64
}

type Services struct {
	PurchaseService   purchases.Service
	AffiliateService  affiliates.Service
	SettlementService webhooks.Service
	PayoutService     payouts.Service
}

func New(repo *repo.Repositories, txManager pg.TXManager, deps Deps) *Services {
	purchaseService := purchaseservice.New(purchaseservice.Repos{
		Events:     repo.EventRepo,
		Tickets:    repo.TicketRepo,
		Tips:       repo.TipRepo,
		Affiliates: repo.AffiliateRepo,
	}, deps.Processor, deps.Policy, deps.Currency, deps.MaxTip)

	settlementService := settlementservice.New(settlementservice.Repos{
		Ledger:     repo.Ledger,
		Tickets:    repo.TicketRepo,
		Tips:       repo.TipRepo,
		Events:     repo.EventRepo,
		Affiliates: repo.AffiliateRepo,
	}, txManager, deps.Processor, deps.Publisher, deps.Policy, deps.Currency)

	affiliateService := affiliateservice.New(repo.AffiliateRepo, txManager)
	payoutService := payoutservice.New(repo.EventRepo, repo.PayoutRepo, deps.Processor, deps.Publisher, deps.Policy, deps.Currency)

	return &Services{
		PurchaseService:   purchaseService,
		AffiliateService:  affiliateService,
		SettlementService: settlementService,
		PayoutService:     payoutService,
	}
}
