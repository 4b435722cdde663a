package repo

import (
	"github.com/GlebRadaev/liveticket/internal/pg"
	"github.com/GlebRadaev/liveticket/internal/reconcile"
	affiliaterepo "github.com/GlebRadaev/liveticket/internal/repo/affiliate-repo"
	eventrepo "github.com/GlebRadaev/liveticket/internal/repo/event-repo"
	ledgerrepo "github.com/GlebRadaev/liveticket/internal/repo/ledger-repo"
	payoutrepo "github.com/GlebRadaev/liveticket/internal/repo/payout-repo"
	ticketrepo "github.com/GlebRadaev/liveticket/internal/repo/ticket-repo"
	tiprepo "github.com/GlebRadaev/liveticket/internal/repo/tip-repo"
	"github.com/GlebRadaev/liveticket/internal/service/affiliateservice"
	"github.com/GlebRadaev/liveticket/internal/service/payoutservice"
	"github.com/GlebRadaev/liveticket/internal/service/purchaseservice"
	"github.com/GlebRadaev/liveticket/internal/service/settlementservice"
)

type EventRepo interface {
	purchaseservice.EventRepo
	settlementservice.EventRepo
	payoutservice.EventRepo
}

type TicketRepo interface {
	purchaseservice.TicketRepo
	settlementservice.TicketRepo
	reconcile.TicketRepo
}

type TipRepo interface {
	purchaseservice.TipRepo
	settlementservice.TipRepo
	reconcile.TipRepo
}

type AffiliateRepo interface {
	purchaseservice.AffiliateRepo
	settlementservice.AffiliateRepo
	affiliateservice.Repo
}

type Repositories struct {
	EventRepo     EventRepo
	TicketRepo    TicketRepo
	TipRepo       TipRepo
	AffiliateRepo AffiliateRepo
	Ledger        settlementservice.Ledger
	PayoutRepo    payoutservice.PayoutRepo
}

func New(conn pg.Database, txManager pg.TXManager) *Repositories {
	return &Repositories{
		EventRepo:     eventrepo.New(conn),
		TicketRepo:    ticketrepo.New(conn),
		TipRepo:       tiprepo.New(conn),
		AffiliateRepo: affiliaterepo.New(conn, txManager),
		Ledger:        ledgerrepo.New(conn),
		PayoutRepo:    payoutrepo.New(conn),
	}
}
