package eventrepo

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

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(&e.ID, &e.ArtistID, &e.Title, &e.Status, &e.TicketPrice, &e.Capacity, &e.TicketsSold, &e.StartDate, &e.EndDate)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
        SELECT id, artist_id, title, status, ticket_price, capacity, tickets_sold, start_date, end_date
        FROM events
        WHERE id = $1
    `
	event, err := scanEvent(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find event", zap.String("event_id", id), zap.Error(err))
		return nil, err
	}
	return event, nil
}

func (r *Repository) FindArtist(ctx context.Context, id string) (*domain.Artist, error) {
	query := `
        SELECT id, user_id, display_name, stripe_account_id, onboarding_complete, created_at
        FROM artists
        WHERE id = $1
    `
	var a domain.Artist
	err := r.db.QueryRow(ctx, query, id).Scan(&a.ID, &a.UserID, &a.DisplayName, &a.StripeAccountID, &a.OnboardingComplete, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find artist", zap.String("artist_id", id), zap.Error(err))
		return nil, err
	}
	return &a, nil
}

// IncrementTicketsSold takes one seat if any is left. It reports false when the event is full.
func (r *Repository) IncrementTicketsSold(ctx context.Context, eventID string) (bool, error) {
	query := `
        UPDATE events
        SET tickets_sold = tickets_sold + 1
        WHERE id = $1 AND tickets_sold < capacity
    `
	tag, err := r.db.Exec(ctx, query, eventID)
	if err != nil {
		zap.L().Error("can't increment tickets sold", zap.String("event_id", eventID), zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repository) SetOnboardingComplete(ctx context.Context, accountID string) (bool, error) {
	query := `
        UPDATE artists
        SET onboarding_complete = TRUE
        WHERE stripe_account_id = $1 AND onboarding_complete = FALSE
    `
	tag, err := r.db.Exec(ctx, query, accountID)
	if err != nil {
		zap.L().Error("can't update artist onboarding", zap.String("account_id", accountID), zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListEndedBetween returns ended events with end_date in [from, to).
func (r *Repository) ListEndedBetween(ctx context.Context, from, to time.Time) ([]domain.Event, error) {
	query := `
        SELECT id, artist_id, title, status, ticket_price, capacity, tickets_sold, start_date, end_date
        FROM events
        WHERE status = $1 AND end_date >= $2 AND end_date < $3
        ORDER BY end_date ASC
    `
	rows, err := r.db.Query(ctx, query, domain.EventStatusEnded, from, to)
	if err != nil {
		zap.L().Error("can't list ended events", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			zap.L().Error("can't scan event row", zap.Error(err))
			return nil, err
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}
