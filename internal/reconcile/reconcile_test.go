package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GlebRadaev/liveticket/internal/domain"
	"github.com/GlebRadaev/liveticket/internal/payments"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"
)

type mocks struct {
	tickets *MockTicketRepo
	tips    *MockTipRepo
	gateway *MockGateway
	settler *MockSettler
}

func NewMock(t *testing.T) (*Service, *mocks) {
	ctrl := gomock.NewController(t)
	m := &mocks{
		tickets: NewMockTicketRepo(ctrl),
		tips:    NewMockTipRepo(ctrl),
		gateway: NewMockGateway(ctrl),
		settler: NewMockSettler(ctrl),
	}
	service := New(m.tickets, m.tips, m.gateway, m.settler, time.Minute, time.Hour)
	t.Cleanup(service.workerPool.Close)
	return service, m
}

func strPtr(s string) *string { return &s }

var now = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func TestService_Sweep(t *testing.T) {
	service, m := NewMock(t)
	cutoff := now.Add(-time.Hour)

	tests := []struct {
		name        string
		prepareMock func(t *testing.T)
		queued      int
	}{
		{
			name: "Succeeded intent is settled through the processor",
			prepareMock: func(t *testing.T) {
				m.tickets.EXPECT().ListPendingBefore(gomock.Any(), cutoff, batchLimit).
					Return([]domain.Ticket{{ID: "tkt-1", PaymentIntentID: strPtr("pi_1")}}, nil)
				m.tips.EXPECT().ListPendingBefore(gomock.Any(), cutoff, batchLimit).Return(nil, nil)
				m.gateway.EXPECT().GetIntent(gomock.Any(), "pi_1").
					Return(payments.Intent{ID: "pi_1", Status: payments.IntentSucceeded, Amount: 2000, Currency: "usd"}, nil)
				m.settler.EXPECT().Handle(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, ev payments.Event) error {
					succeeded, ok := ev.(payments.PaymentSucceeded)
					assert.True(t, ok)
					assert.Equal(t, "reconcile:pi_1", succeeded.ID)
					assert.Equal(t, payments.HintTicket, succeeded.Hint)
					assert.Equal(t, int64(2000), succeeded.Amount)
					return nil
				})
			},
			queued: 1,
		},
		{
			name: "Abandoned checkout is canceled and failed",
			prepareMock: func(t *testing.T) {
				m.tickets.EXPECT().ListPendingBefore(gomock.Any(), cutoff, batchLimit).Return(nil, nil)
				m.tips.EXPECT().ListPendingBefore(gomock.Any(), cutoff, batchLimit).
					Return([]domain.Tip{{ID: "tip-1", PaymentIntentID: strPtr("pi_2")}}, nil)
				m.gateway.EXPECT().GetIntent(gomock.Any(), "pi_2").
					Return(payments.Intent{ID: "pi_2", Status: payments.IntentRequiresPaymentMethod}, nil)
				m.gateway.EXPECT().CancelIntent(gomock.Any(), "pi_2").Return(nil)
				m.settler.EXPECT().Handle(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, ev payments.Event) error {
					failed, ok := ev.(payments.PaymentFailed)
					assert.True(t, ok)
					assert.Equal(t, payments.TypePaymentCanceled, failed.Type)
					assert.Equal(t, payments.HintTip, failed.Hint)
					return nil
				})
			},
			queued: 1,
		},
		{
			name: "Already canceled intent is failed without another cancel",
			prepareMock: func(t *testing.T) {
				m.tickets.EXPECT().ListPendingBefore(gomock.Any(), cutoff, batchLimit).
					Return([]domain.Ticket{{ID: "tkt-3", PaymentIntentID: strPtr("pi_3")}}, nil)
				m.tips.EXPECT().ListPendingBefore(gomock.Any(), cutoff, batchLimit).Return(nil, nil)
				m.gateway.EXPECT().GetIntent(gomock.Any(), "pi_3").Return(payments.Intent{ID: "pi_3", Status: payments.IntentCanceled}, nil)
				m.settler.EXPECT().Handle(gomock.Any(), gomock.Any()).Return(domain.ErrAlreadyProcessed)
			},
			queued: 1,
		},
		{
			name: "Processing intent is left alone",
			prepareMock: func(t *testing.T) {
				m.tickets.EXPECT().ListPendingBefore(gomock.Any(), cutoff, batchLimit).
					Return([]domain.Ticket{{ID: "tkt-4", PaymentIntentID: strPtr("pi_4")}}, nil)
				m.tips.EXPECT().ListPendingBefore(gomock.Any(), cutoff, batchLimit).Return(nil, nil)
				m.gateway.EXPECT().GetIntent(gomock.Any(), "pi_4").Return(payments.Intent{ID: "pi_4", Status: payments.IntentProcessing}, nil)
			},
			queued: 1,
		},
		{
			name: "Record without intent is failed directly",
			prepareMock: func(t *testing.T) {
				m.tickets.EXPECT().ListPendingBefore(gomock.Any(), cutoff, batchLimit).Return([]domain.Ticket{{ID: "tkt-5"}}, nil)
				m.tips.EXPECT().ListPendingBefore(gomock.Any(), cutoff, batchLimit).Return([]domain.Tip{{ID: "tip-5"}}, nil)
				m.tickets.EXPECT().MarkFailed(gomock.Any(), "tkt-5").Return(nil)
				m.tips.EXPECT().MarkFailed(gomock.Any(), "tip-5").Return(nil)
			},
			queued: 2,
		},
		{
			name: "Processor error is logged and the sweep continues",
			prepareMock: func(t *testing.T) {
				m.tickets.EXPECT().ListPendingBefore(gomock.Any(), cutoff, batchLimit).Return([]domain.Ticket{
					{ID: "tkt-6", PaymentIntentID: strPtr("pi_6")},
					{ID: "tkt-7"},
				}, nil)
				m.tips.EXPECT().ListPendingBefore(gomock.Any(), cutoff, batchLimit).Return(nil, errors.New("db error"))
				m.gateway.EXPECT().GetIntent(gomock.Any(), "pi_6").Return(payments.Intent{}, errors.New("timeout"))
				m.tickets.EXPECT().MarkFailed(gomock.Any(), "tkt-7").Return(nil)
			},
			queued: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock(t)
			assert.Equal(t, tt.queued, service.Sweep(context.Background(), now))
		})
	}
}

func TestService_SweepSkipsInflightRecords(t *testing.T) {
	service, m := NewMock(t)
	service.inflight.Store(kindTicket+":tkt-1", struct{}{})

	m.tickets.EXPECT().ListPendingBefore(gomock.Any(), gomock.Any(), gomock.Any()).Return([]domain.Ticket{{ID: "tkt-1"}}, nil)
	m.tips.EXPECT().ListPendingBefore(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)

	assert.Equal(t, 0, service.Sweep(context.Background(), now))
}

func TestService_Start(t *testing.T) {
	service, _ := NewMock(t)

	ctx, cancel := context.WithCancel(context.Background())
	service.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	cancel()
}
