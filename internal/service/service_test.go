package service

import (
	"testing"

	"github.com/GlebRadaev/liveticket/internal/commission"
	"github.com/GlebRadaev/liveticket/internal/notify"
	"github.com/GlebRadaev/liveticket/internal/payments"
	"github.com/GlebRadaev/liveticket/internal/pg"
	"github.com/GlebRadaev/liveticket/internal/repo"
	"github.com/GlebRadaev/liveticket/internal/service/affiliateservice"
	"github.com/GlebRadaev/liveticket/internal/service/payoutservice"
	"github.com/GlebRadaev/liveticket/internal/service/purchaseservice"
	"github.com/GlebRadaev/liveticket/internal/service/settlementservice"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"
)

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()
	txManager := pg.NewMockTXManager(ctrl)

	services := New(repo.New(mockDB, txManager), txManager, Deps{
		Processor: payments.NewStripe(""),
		Publisher: notify.Noop{},
		Policy:    commission.DefaultPolicy(),
		Currency:  "usd",
		MaxTip:    1000000,
	})

	assert.IsType(t, &purchaseservice.Service{}, services.PurchaseService)
	assert.IsType(t, &affiliateservice.Service{}, services.AffiliateService)
	assert.IsType(t, &settlementservice.Service{}, services.SettlementService)
	assert.IsType(t, &payoutservice.Service{}, services.PayoutService)
}
