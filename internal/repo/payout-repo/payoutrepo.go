package payoutrepo

import (
	"context"

	"github.com/GlebRadaev/liveticket/internal/domain"
	"github.com/GlebRadaev/liveticket/internal/pg"
	"go.uber.org/zap"
)

const payoutEventConstraint = "payouts_event_key"

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ExistsForEvent(ctx context.Context, eventID string) (bool, error) {
	query := `
        SELECT EXISTS (SELECT 1 FROM payouts WHERE event_id = $1)
    `
	var exists bool
	if err := r.db.QueryRow(ctx, query, eventID).Scan(&exists); err != nil {
		zap.L().Error("can't check payout", zap.String("event_id", eventID), zap.Error(err))
		return false, err
	}
	return exists, nil
}

// Create records a payout. A concurrent run that already recorded the event gets ErrConflict.
func (r *Repository) Create(ctx context.Context, p *domain.Payout) error {
	query := `
        INSERT INTO payouts (id, event_id, artist_id, gross_revenue, artist_share, platform_share, stripe_transfer_id, status, payout_date)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	_, err := r.db.Exec(ctx, query, p.ID, p.EventID, p.ArtistID, p.GrossRevenue, p.ArtistShare, p.PlatformShare,
		p.StripeTransferID, p.Status, p.PayoutDate)
	if pg.IsUniqueViolation(err, payoutEventConstraint) {
		return domain.ErrConflict
	}
	if err != nil {
		zap.L().Error("can't save payout", zap.String("event_id", p.EventID), zap.Error(err))
		return err
	}
	return nil
}
