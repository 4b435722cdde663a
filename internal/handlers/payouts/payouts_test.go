package payouts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GlebRadaev/liveticket/internal/domain"
	"github.com/GlebRadaev/liveticket/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"
)

var now = time.Date(2026, 10, 22, 3, 0, 0, 0, time.UTC)

func NewMock(t *testing.T) (*PayoutHandler, *MockService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	handler := New(service)
	handler.now = func() time.Time { return now }
	return handler, service
}

func TestRunHandler(t *testing.T) {
	handler, service := NewMock(t)
	report := &domain.PayoutReport{
		SettlementDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Outcomes: []domain.PayoutOutcome{
			{EventID: "e1", ArtistID: "a1", Outcome: domain.PayoutOutcomePaid, ArtistShare: 35000, TransferID: "tr_1"},
		},
	}

	tests := []struct {
		name         string
		target       string
		prepareMock  func()
		expectedCode int
	}{
		{
			name:   "Scheduled run",
			target: "/api/cron/payouts",
			prepareMock: func() {
				service.EXPECT().Run(gomock.Any(), now).Return(report, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:   "Re-run of a past day",
			target: "/api/cron/payouts?date=2026-09-20",
			prepareMock: func() {
				service.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, at time.Time) (*domain.PayoutReport, error) {
					assert.Equal(t, time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC), at)
					return report, nil
				})
			},
			expectedCode: http.StatusOK,
		},
		{
			name:         "Day still on hold",
			target:       "/api/cron/payouts?date=2026-10-10",
			prepareMock:  func() {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "Malformed day",
			target:       "/api/cron/payouts?date=yesterday",
			prepareMock:  func() {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:   "Event listing failed",
			target: "/api/cron/payouts",
			prepareMock: func() {
				service.EXPECT().Run(gomock.Any(), now).Return(nil, domain.External("list ended events", errors.New("db error")))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			w := httptest.NewRecorder()

			handler.Run(w, httptest.NewRequest(http.MethodPost, tt.target, nil))

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedCode == http.StatusOK {
				var body dto.PayoutReportResponseDTO
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, "2026-10-01", body.SettlementDate)
				assert.Equal(t, 1, body.Paid)
			}
		})
	}
}
