package affiliaterepo

import (
	"context"
	"errors"

	"github.com/GlebRadaev/liveticket/internal/domain"
	"github.com/GlebRadaev/liveticket/internal/pg"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	primaryKeyConstraint   = "affiliates_pkey"
	commissionUniqueClause = "ON CONFLICT ON CONSTRAINT affiliate_commissions_ticket_level_key DO NOTHING"
)

type Repository struct {
	db        pg.Database
	txManager pg.TXManager
}

func New(db pg.Database, txManager pg.TXManager) *Repository {
	return &Repository{
		db:        db,
		txManager: txManager,
	}
}

func scanAffiliate(row pgx.Row) (*domain.Affiliate, error) {
	var a domain.Affiliate
	err := row.Scan(&a.ID, &a.ReferralCode, &a.ParentAffiliateID, &a.GrandparentAffiliateID,
		&a.TotalReferrals, &a.TotalEarnings, &a.IsActive, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) findOne(ctx context.Context, query string, arg string) (*domain.Affiliate, error) {
	a, err := scanAffiliate(r.db.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find affiliate", zap.Error(err))
		return nil, err
	}
	return a, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*domain.Affiliate, error) {
	query := `
        SELECT id, referral_code, parent_affiliate_id, grandparent_affiliate_id, total_referrals, total_earnings, is_active, created_at
        FROM affiliates
        WHERE id = $1
    `
	return r.findOne(ctx, query, id)
}

func (r *Repository) FindByCode(ctx context.Context, code string) (*domain.Affiliate, error) {
	query := `
        SELECT id, referral_code, parent_affiliate_id, grandparent_affiliate_id, total_referrals, total_earnings, is_active, created_at
        FROM affiliates
        WHERE referral_code = $1
    `
	return r.findOne(ctx, query, code)
}

// Create inserts the affiliate. It reports false when the referral code is already taken
// and returns ErrAlreadyRegistered when the user is already an affiliate.
func (r *Repository) Create(ctx context.Context, a *domain.Affiliate) (bool, error) {
	query := `
        INSERT INTO affiliates (id, referral_code, parent_affiliate_id, grandparent_affiliate_id, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (referral_code) DO NOTHING
    `
	tag, err := r.db.Exec(ctx, query, a.ID, a.ReferralCode, a.ParentAffiliateID, a.GrandparentAffiliateID, a.IsActive, a.CreatedAt)
	if pg.IsUniqueViolation(err, primaryKeyConstraint) {
		return false, domain.ErrAlreadyRegistered
	}
	if err != nil {
		zap.L().Error("can't save affiliate", zap.String("affiliate_id", a.ID), zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repository) IncrementReferrals(ctx context.Context, id string) error {
	query := `
        UPDATE affiliates
        SET total_referrals = total_referrals + 1
        WHERE id = $1
    `
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		zap.L().Error("can't increment referrals", zap.String("affiliate_id", id), zap.Error(err))
		return err
	}
	return nil
}

// ResolveChain returns [affiliate, parent, grandparent] through the denormalized pointers.
// Missing or inactive affiliates leave an empty slot.
func (r *Repository) ResolveChain(ctx context.Context, id string) ([3]string, error) {
	query := `
        SELECT a.id, a.is_active, p.id, p.is_active, g.id, g.is_active
        FROM affiliates a
        LEFT JOIN affiliates p ON p.id = a.parent_affiliate_id
        LEFT JOIN affiliates g ON g.id = a.grandparent_affiliate_id
        WHERE a.id = $1
    `
	var (
		chain             [3]string
		selfID            string
		selfActive        bool
		parentID, grandID *string
		parentOK, grandOK *bool
	)
	err := r.db.QueryRow(ctx, query, id).Scan(&selfID, &selfActive, &parentID, &parentOK, &grandID, &grandOK)
	if errors.Is(err, pgx.ErrNoRows) {
		return chain, nil
	}
	if err != nil {
		zap.L().Error("can't resolve affiliate chain", zap.String("affiliate_id", id), zap.Error(err))
		return chain, err
	}

	if selfActive {
		chain[0] = selfID
	}
	if parentID != nil && parentOK != nil && *parentOK {
		chain[1] = *parentID
	}
	if grandID != nil && grandOK != nil && *grandOK {
		chain[2] = *grandID
	}
	return chain, nil
}

// AddCommissions records commission rows and credits each beneficiary's earnings.
// Rows already recorded for the same (ticket, affiliate, level) are skipped.
func (r *Repository) AddCommissions(ctx context.Context, commissions []domain.AffiliateCommission) error {
	insert := `
        INSERT INTO affiliate_commissions (id, affiliate_id, ticket_id, commission_level, commission_rate, commission_amount, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ` + commissionUniqueClause
	credit := `
        UPDATE affiliates
        SET total_earnings = total_earnings + $1
        WHERE id = $2
    `
	return r.txManager.Begin(ctx, func(ctx context.Context) error {
		for _, c := range commissions {
			tag, err := r.db.Exec(ctx, insert, c.ID, c.AffiliateID, c.TicketID, c.CommissionLevel, c.CommissionRate, c.CommissionAmount, c.Status, c.CreatedAt)
			if err != nil {
				zap.L().Error("can't save commission", zap.String("ticket_id", c.TicketID), zap.Int("level", c.CommissionLevel), zap.Error(err))
				return err
			}
			if tag.RowsAffected() == 0 {
				continue
			}
			if _, err := r.db.Exec(ctx, credit, c.CommissionAmount, c.AffiliateID); err != nil {
				zap.L().Error("can't credit affiliate earnings", zap.String("affiliate_id", c.AffiliateID), zap.Error(err))
				return err
			}
		}
		return nil
	})
}

// Stats sums commission rows by level and status. Cancelled rows are excluded from earnings.
func (r *Repository) Stats(ctx context.Context, id string) (*domain.AffiliateStats, error) {
	query := `
        SELECT commission_level, status, COALESCE(SUM(commission_amount), 0)::BIGINT
        FROM affiliate_commissions
        WHERE affiliate_id = $1
        GROUP BY commission_level, status
    `
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		zap.L().Error("can't aggregate commissions", zap.String("affiliate_id", id), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	stats := &domain.AffiliateStats{AffiliateID: id, ByLevel: map[int]int64{}}
	for rows.Next() {
		var (
			level  int
			status string
			sum    int64
		)
		if err := rows.Scan(&level, &status, &sum); err != nil {
			zap.L().Error("can't scan commission totals", zap.Error(err))
			return nil, err
		}
		switch status {
		case domain.CommissionStatusPending:
			stats.PendingEarnings += sum
		case domain.CommissionStatusPaid:
			stats.PaidEarnings += sum
		default:
			continue
		}
		stats.ByLevel[level] += sum
		stats.TotalEarnings += sum
	}
	return stats, rows.Err()
}

func (r *Repository) ListCommissions(ctx context.Context, id string, limit int) ([]domain.AffiliateCommission, error) {
	query := `
        SELECT id, affiliate_id, ticket_id, commission_level, commission_rate::TEXT, commission_amount, status, paid_at, created_at
        FROM affiliate_commissions
        WHERE affiliate_id = $1
        ORDER BY created_at DESC
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, id, limit)
	if err != nil {
		zap.L().Error("can't list commissions", zap.String("affiliate_id", id), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var commissions []domain.AffiliateCommission
	for rows.Next() {
		var c domain.AffiliateCommission
		err := rows.Scan(&c.ID, &c.AffiliateID, &c.TicketID, &c.CommissionLevel, &c.CommissionRate,
			&c.CommissionAmount, &c.Status, &c.PaidAt, &c.CreatedAt)
		if err != nil {
			zap.L().Error("can't scan commission row", zap.Error(err))
			return nil, err
		}
		commissions = append(commissions, c)
	}
	return commissions, rows.Err()
}
