package tiprepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/GlebRadaev/liveticket/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
)

var tipColumns = []string{"id", "from_user_id", "to_artist_id", "event_id", "amount", "message", "payment_intent_id", "status", "created_at"}

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	t.Cleanup(mockDB.Close)
	return New(mockDB), mockDB
}

func ptr(s string) *string { return &s }

func TestRepository_Create(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()
	tip := &domain.Tip{ID: "tip-1", FromUserID: "usr-1", ToArtistID: "art-1", EventID: ptr("evt-1"), Amount: 1000, Message: "encore!", Status: domain.TipStatusPending, CreatedAt: now}
	query := "INSERT INTO tips (id, from_user_id, to_artist_id, event_id, amount, message, status, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)"

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
	}{
		{
			name: "Inserted",
			mockSetup: func() {
				mock.ExpectExec(regexp.QuoteMeta(query)).
					WithArgs("tip-1", "usr-1", "art-1", ptr("evt-1"), int64(1000), "encore!", domain.TipStatusPending, now).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectExec(regexp.QuoteMeta(query)).
					WithArgs("tip-1", "usr-1", "art-1", ptr("evt-1"), int64(1000), "encore!", domain.TipStatusPending, now).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			err := repo.Create(context.Background(), tip)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_SetPaymentIntentAndMarkFailed(t *testing.T) {
	repo, mock := NewMock(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tips SET payment_intent_id = $1 WHERE id = $2")).
		WithArgs("pi_1", "tip-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	assert.NoError(t, repo.SetPaymentIntent(context.Background(), "tip-1", "pi_1"))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tips SET status = $1 WHERE id = $2 AND status = $3")).
		WithArgs(domain.TipStatusFailed, "tip-1", domain.TipStatusPending).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	assert.NoError(t, repo.MarkFailed(context.Background(), "tip-1"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Transition(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()
	query := "UPDATE tips SET status = $1 WHERE payment_intent_id = $2 AND status = ANY($3) RETURNING"
	from := []string{domain.TipStatusCompleted}

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
		result    *domain.Tip
	}{
		{
			name: "Completed tip refunded",
			mockSetup: func() {
				rows := pgxmock.NewRows(tipColumns).
					AddRow("tip-1", "usr-1", "art-1", (*string)(nil), int64(1000), "", ptr("pi_1"), domain.TipStatusRefunded, now)
				mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(domain.TipStatusRefunded, "pi_1", from).WillReturnRows(rows)
			},
			result: &domain.Tip{
				ID: "tip-1", FromUserID: "usr-1", ToArtistID: "art-1", Amount: 1000,
				PaymentIntentID: ptr("pi_1"), Status: domain.TipStatusRefunded, CreatedAt: now,
			},
		},
		{
			name: "Still pending, refund guard does not match",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(domain.TipStatusRefunded, "pi_1", from).WillReturnError(pgx.ErrNoRows)
			},
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(domain.TipStatusRefunded, "pi_1", from).WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.Transition(context.Background(), "pi_1", from, domain.TipStatusRefunded)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.result, result)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_FindByPaymentIntent(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	rows := pgxmock.NewRows(tipColumns).
		AddRow("tip-1", "usr-1", "art-1", ptr("evt-1"), int64(500), "hi", ptr("pi_1"), domain.TipStatusCompleted, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM tips WHERE payment_intent_id = $1")).WithArgs("pi_1").WillReturnRows(rows)

	tip, err := repo.FindByPaymentIntent(context.Background(), "pi_1")
	assert.NoError(t, err)
	assert.Equal(t, "evt-1", *tip.EventID)

	mock.ExpectQuery(regexp.QuoteMeta("FROM tips WHERE payment_intent_id = $1")).WithArgs("pi_2").WillReturnError(pgx.ErrNoRows)
	tip, err = repo.FindByPaymentIntent(context.Background(), "pi_2")
	assert.NoError(t, err)
	assert.Nil(t, tip)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListPendingBefore(t *testing.T) {
	repo, mock := NewMock(t)
	cutoff := time.Now().Add(-time.Hour)
	query := "FROM tips WHERE status = $1 AND created_at < $2 ORDER BY created_at ASC LIMIT $3"

	rows := pgxmock.NewRows(tipColumns).
		AddRow("tip-1", "usr-1", "art-1", (*string)(nil), int64(500), "", ptr("pi_1"), domain.TipStatusPending, cutoff.Add(-time.Minute))
	mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(domain.TipStatusPending, cutoff, 10).WillReturnRows(rows)

	tips, err := repo.ListPendingBefore(context.Background(), cutoff, 10)
	assert.NoError(t, err)
	assert.Len(t, tips, 1)

	mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(domain.TipStatusPending, cutoff, 10).WillReturnError(errors.New("database error"))
	_, err = repo.ListPendingBefore(context.Background(), cutoff, 10)
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
