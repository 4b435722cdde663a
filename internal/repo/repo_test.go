package repo

import (
	"testing"

	"github.com/GlebRadaev/liveticket/internal/pg"
	affiliaterepo "github.com/GlebRadaev/liveticket/internal/repo/affiliate-repo"
	eventrepo "github.com/GlebRadaev/liveticket/internal/repo/event-repo"
	ledgerrepo "github.com/GlebRadaev/liveticket/internal/repo/ledger-repo"
	payoutrepo "github.com/GlebRadaev/liveticket/internal/repo/payout-repo"
	ticketrepo "github.com/GlebRadaev/liveticket/internal/repo/ticket-repo"
	tiprepo "github.com/GlebRadaev/liveticket/internal/repo/tip-repo"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"
)

func NewMock(t *testing.T) (*Repositories, pgxmock.PgxPoolIface) {
	ctrl := gomock.NewController(t)
	mockDB, err := pgxmock.NewPool()
	mockTxManager := pg.NewMockTXManager(ctrl)
	assert.NoError(t, err)
	repo := New(mockDB, mockTxManager)
	defer mockDB.Close()

	return repo, mockDB
}

func TestNew(t *testing.T) {
	repo, mock := NewMock(t)

	assert.IsType(t, &eventrepo.Repository{}, repo.EventRepo)
	assert.IsType(t, &ticketrepo.Repository{}, repo.TicketRepo)
	assert.IsType(t, &tiprepo.Repository{}, repo.TipRepo)
	assert.IsType(t, &affiliaterepo.Repository{}, repo.AffiliateRepo)
	assert.IsType(t, &ledgerrepo.Repository{}, repo.Ledger)
	assert.IsType(t, &payoutrepo.Repository{}, repo.PayoutRepo)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unmet expectations: %v", err)
	}
}
