package ticketrepo

import (
	"context"
	"errors"
	"time"

	"github.com/GlebRadaev/liveticket/internal/domain"
	"github.com/GlebRadaev/liveticket/internal/pg"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const activeTicketConstraint = "tickets_active_event_user_key"

// ActiveStatuses are the states that hold a seat for (event, user).
var ActiveStatuses = []string{domain.TicketStatusPending, domain.TicketStatusConfirmed, domain.TicketStatusUsed}

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{db: db}
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var t domain.Ticket
	err := row.Scan(&t.ID, &t.EventID, &t.UserID, &t.PurchasePrice, &t.PaymentIntentID, &t.Status, &t.AffiliateID, &t.PurchasedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repository) findOne(ctx context.Context, query string, args ...any) (*domain.Ticket, error) {
	t, err := scanTicket(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find ticket", zap.Error(err))
		return nil, err
	}
	return t, nil
}

func (r *Repository) FindActive(ctx context.Context, eventID, userID string) (*domain.Ticket, error) {
	query := `
        SELECT id, event_id, user_id, purchase_price, payment_intent_id, status, affiliate_id, purchased_at
        FROM tickets
        WHERE event_id = $1 AND user_id = $2 AND status = ANY($3)
    `
	return r.findOne(ctx, query, eventID, userID, ActiveStatuses)
}

func (r *Repository) FindByPaymentIntent(ctx context.Context, paymentIntentID string) (*domain.Ticket, error) {
	query := `
        SELECT id, event_id, user_id, purchase_price, payment_intent_id, status, affiliate_id, purchased_at
        FROM tickets
        WHERE payment_intent_id = $1
    `
	return r.findOne(ctx, query, paymentIntentID)
}

// Create inserts a pending ticket. A second active ticket for the same (event, user) is ErrAlreadyPurchased.
func (r *Repository) Create(ctx context.Context, t *domain.Ticket) error {
	query := `
        INSERT INTO tickets (id, event_id, user_id, purchase_price, status, affiliate_id, purchased_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err := r.db.Exec(ctx, query, t.ID, t.EventID, t.UserID, t.PurchasePrice, t.Status, t.AffiliateID, t.PurchasedAt)
	if pg.IsUniqueViolation(err, activeTicketConstraint) {
		return domain.ErrAlreadyPurchased
	}
	if err != nil {
		zap.L().Error("can't save ticket", zap.String("ticket_id", t.ID), zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) SetPaymentIntent(ctx context.Context, ticketID, paymentIntentID string) error {
	query := `
        UPDATE tickets
        SET payment_intent_id = $1
        WHERE id = $2
    `
	if _, err := r.db.Exec(ctx, query, paymentIntentID, ticketID); err != nil {
		zap.L().Error("can't attach payment intent to ticket", zap.String("ticket_id", ticketID), zap.Error(err))
		return err
	}
	return nil
}

// MarkFailed fails a ticket that never reached the processor.
func (r *Repository) MarkFailed(ctx context.Context, ticketID string) error {
	query := `
        UPDATE tickets
        SET status = $1
        WHERE id = $2 AND status = $3
    `
	if _, err := r.db.Exec(ctx, query, domain.TicketStatusFailed, ticketID, domain.TicketStatusPending); err != nil {
		zap.L().Error("can't mark ticket failed", zap.String("ticket_id", ticketID), zap.Error(err))
		return err
	}
	return nil
}

// Transition moves the ticket paid by paymentIntentID to status `to` if it is currently in one of `from`.
// It returns nil when no ticket matched the guard.
func (r *Repository) Transition(ctx context.Context, paymentIntentID string, from []string, to string) (*domain.Ticket, error) {
	query := `
        UPDATE tickets
        SET status = $1
        WHERE payment_intent_id = $2 AND status = ANY($3)
        RETURNING id, event_id, user_id, purchase_price, payment_intent_id, status, affiliate_id, purchased_at
    `
	t, err := scanTicket(r.db.QueryRow(ctx, query, to, paymentIntentID, from))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't transition ticket", zap.String("payment_intent_id", paymentIntentID), zap.String("to", to), zap.Error(err))
		return nil, err
	}
	return t, nil
}

func (r *Repository) ListPendingBefore(ctx context.Context, cutoff time.Time, limit int) ([]domain.Ticket, error) {
	query := `
        SELECT id, event_id, user_id, purchase_price, payment_intent_id, status, affiliate_id, purchased_at
        FROM tickets
        WHERE status = $1 AND purchased_at < $2
        ORDER BY purchased_at ASC
        LIMIT $3
    `
	rows, err := r.db.Query(ctx, query, domain.TicketStatusPending, cutoff, limit)
	if err != nil {
		zap.L().Error("can't list pending tickets", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			zap.L().Error("can't scan ticket row", zap.Error(err))
			return nil, err
		}
		tickets = append(tickets, *t)
	}
	return tickets, rows.Err()
}
