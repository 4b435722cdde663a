package payoutrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/GlebRadaev/liveticket/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	t.Cleanup(mockDB.Close)
	return New(mockDB), mockDB
}

func TestRepository_ExistsForEvent(t *testing.T) {
	repo, mock := NewMock(t)
	query := "SELECT EXISTS (SELECT 1 FROM payouts WHERE event_id = $1)"

	mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs("evt-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	ok, err := repo.ExistsForEvent(context.Background(), "evt-1")
	assert.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs("evt-1").WillReturnError(errors.New("database error"))
	_, err = repo.ExistsForEvent(context.Background(), "evt-1")
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Create(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()
	p := &domain.Payout{
		ID: "pay-1", EventID: "evt-1", ArtistID: "art-1", GrossRevenue: 50000, ArtistShare: 35000,
		PlatformShare: 15000, StripeTransferID: "tr_1", Status: domain.PayoutStatusPaid, PayoutDate: now,
	}
	query := "INSERT INTO payouts (id, event_id, artist_id, gross_revenue, artist_share, platform_share, stripe_transfer_id, status, payout_date) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)"
	args := []any{"pay-1", "evt-1", "art-1", int64(50000), int64(35000), int64(15000), "tr_1", domain.PayoutStatusPaid, now}

	tests := []struct {
		name        string
		mockSetup   func()
		expectedErr error
		expectErr   bool
	}{
		{
			name: "Inserted",
			mockSetup: func() {
				mock.ExpectExec(regexp.QuoteMeta(query)).WithArgs(args...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "Payout already recorded for event",
			mockSetup: func() {
				mock.ExpectExec(regexp.QuoteMeta(query)).WithArgs(args...).
					WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: payoutEventConstraint})
			},
			expectedErr: domain.ErrConflict,
			expectErr:   true,
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectExec(regexp.QuoteMeta(query)).WithArgs(args...).WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			err := repo.Create(context.Background(), p)
			if tt.expectErr {
				assert.Error(t, err)
				if tt.expectedErr != nil {
					assert.ErrorIs(t, err, tt.expectedErr)
				}
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
