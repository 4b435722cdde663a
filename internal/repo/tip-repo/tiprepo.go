package tiprepo

import (
	"context"
	"errors"
	"time"

	"github.com/GlebRadaev/liveticket/internal/domain"
	"github.com/GlebRadaev/liveticket/internal/pg"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{db: db}
}

func scanTip(row pgx.Row) (*domain.Tip, error) {
	var t domain.Tip
	err := row.Scan(&t.ID, &t.FromUserID, &t.ToArtistID, &t.EventID, &t.Amount, &t.Message, &t.PaymentIntentID, &t.Status, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repository) Create(ctx context.Context, t *domain.Tip) error {
	query := `
        INSERT INTO tips (id, from_user_id, to_artist_id, event_id, amount, message, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	_, err := r.db.Exec(ctx, query, t.ID, t.FromUserID, t.ToArtistID, t.EventID, t.Amount, t.Message, t.Status, t.CreatedAt)
	if err != nil {
		zap.L().Error("can't save tip", zap.String("tip_id", t.ID), zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) SetPaymentIntent(ctx context.Context, tipID, paymentIntentID string) error {
	query := `
        UPDATE tips
        SET payment_intent_id = $1
        WHERE id = $2
    `
	if _, err := r.db.Exec(ctx, query, paymentIntentID, tipID); err != nil {
		zap.L().Error("can't attach payment intent to tip", zap.String("tip_id", tipID), zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) MarkFailed(ctx context.Context, tipID string) error {
	query := `
        UPDATE tips
        SET status = $1
        WHERE id = $2 AND status = $3
    `
	if _, err := r.db.Exec(ctx, query, domain.TipStatusFailed, tipID, domain.TipStatusPending); err != nil {
		zap.L().Error("can't mark tip failed", zap.String("tip_id", tipID), zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*domain.Tip, error) {
	query := `
        SELECT id, from_user_id, to_artist_id, event_id, amount, message, payment_intent_id, status, created_at
        FROM tips
        WHERE payment_intent_id = $1
    `
	t, err := scanTip(r.db.QueryRow(ctx, query, paymentIntentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find tip", zap.String("payment_intent_id", paymentIntentID), zap.Error(err))
		return nil, err
	}
	return t, nil
}

// Transition is the guarded status change used by settlement; nil means the guard did not match.
func (r *Repository) Transition(ctx context.Context, paymentIntentID string, from []string, to string) (*domain.Tip, error) {
	query := `
        UPDATE tips
        SET status = $1
        WHERE payment_intent_id = $2 AND status = ANY($3)
        RETURNING id, from_user_id, to_artist_id, event_id, amount, message, payment_intent_id, status, created_at
    `
	t, err := scanTip(r.db.QueryRow(ctx, query, to, paymentIntentID, from))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't transition tip", zap.String("payment_intent_id", paymentIntentID), zap.String("to", to), zap.Error(err))
		return nil, err
	}
	return t, nil
}

func (r *Repository) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.Tip, error) {
	query := `
        SELECT id, from_user_id, to_artist_id, event_id, amount, message, payment_intent_id, status, created_at
        FROM tips
        WHERE status = $1 AND created_at < $2
        ORDER BY created_at ASC
        LIMIT $3
    `
	rows, err := r.db.Query(ctx, query, domain.TipStatusPending, cutoff, limit)
	if err != nil {
		zap.L().Error("can't list pending tips", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var tips []domain.Tip
	for rows.Next() {
		t, err := scanTip(rows)
		if err != nil {
			zap.L().Error("can't scan tip row", zap.Error(err))
			return nil, err
		}
		tips = append(tips, *t)
	}
	return tips, rows.Err()
}
