package ledgerrepo

import (
	"context"
	"time"

	"github.com/GlebRadaev/liveticket/internal/domain"
	"github.com/GlebRadaev/liveticket/internal/pg"
	"go.uber.org/zap"
)

// Repository owns the accounting rows and the webhook idempotency ledger.
type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{db: db}
}

func (r *Repository) EventProcessed(ctx context.Context, eventID string) (bool, error) {
	query := `
        SELECT EXISTS (SELECT 1 FROM webhook_events WHERE event_id = $1)
    `
	var exists bool
	if err := r.db.QueryRow(ctx, query, eventID).Scan(&exists); err != nil {
		zap.L().Error("can't check webhook event", zap.String("event_id", eventID), zap.Error(err))
		return false, err
	}
	return exists, nil
}

// ClaimEvent records eventID before any business logic runs. A second claim returns ErrAlreadyProcessed.
func (r *Repository) ClaimEvent(ctx context.Context, eventID, eventType string) error {
	query := `
        INSERT INTO webhook_events (event_id, event_type, received_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (event_id) DO NOTHING
    `
	tag, err := r.db.Exec(ctx, query, eventID, eventType, time.Now().UTC())
	if err != nil {
		zap.L().Error("can't claim webhook event", zap.String("event_id", eventID), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyProcessed
	}
	return nil
}

// CreateTransaction appends an accounting row. It reports false if the intent already has one of this type.
func (r *Repository) CreateTransaction(ctx context.Context, t *domain.Transaction) (bool, error) {
	query := `
        INSERT INTO transactions (id, transaction_type, amount, currency, payment_intent_id, status, metadata, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT ON CONSTRAINT transactions_payment_intent_key DO NOTHING
    `
	metadata := t.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	tag, err := r.db.Exec(ctx, query, t.ID, t.TransactionType, t.Amount, t.Currency, t.PaymentIntentID, t.Status, metadata, t.CreatedAt)
	if err != nil {
		zap.L().Error("can't save transaction", zap.String("payment_intent_id", t.PaymentIntentID), zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repository) MarkTransactionRefunded(ctx context.Context, paymentIntentID string) (bool, error) {
	query := `
        UPDATE transactions
        SET status = $1
        WHERE payment_intent_id = $2 AND status = $3
    `
	tag, err := r.db.Exec(ctx, query, domain.TransactionStatusRefunded, paymentIntentID, domain.TransactionStatusCompleted)
	if err != nil {
		zap.L().Error("can't refund transaction", zap.String("payment_intent_id", paymentIntentID), zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
