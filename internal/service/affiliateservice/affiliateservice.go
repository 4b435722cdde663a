package affiliateservice

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/GlebRadaev/liveticket/internal/domain"
	"github.com/GlebRadaev/liveticket/internal/pg"
	"github.com/GlebRadaev/liveticket/pkg/validate"
	"go.uber.org/zap"
)

const (
	maxCodeAttempts  = 5
	DefaultListLimit = 50
	MaxListLimit     = 200
)

type Repo interface {
	FindByID(ctx context.Context, id string) (*domain.Affiliate, error)
	FindByCode(ctx context.Context, code string) (*domain.Affiliate, error)
	Create(ctx context.Context, a *domain.Affiliate) (bool, error)
	IncrementReferrals(ctx context.Context, id string) error
	Stats(ctx context.Context, id string) (*domain.AffiliateStats, error)
	ListCommissions(ctx context.Context, id string, limit int) ([]domain.AffiliateCommission, error)
}

type Service struct {
	repo      Repo
	txManager pg.TXManager
	newCode   func() string
}

func New(repo Repo, txManager pg.TXManager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		newCode:   validate.NewReferralCode,
	}
}

// Register enrolls userID. A parent code that matches no affiliate makes the user the root of a new tree.
func (s *Service) Register(ctx context.Context, userID, parentCode string) (*domain.Affiliate, error) {
	parentCode = strings.TrimSpace(parentCode)
	if parentCode != "" && len(parentCode) != validate.ReferralCodeLength {
		return nil, domain.ErrInvalidReferralCode
	}
	if !validate.IsReferralCode(parentCode) {
		parentCode = ""
	}

	existing, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, domain.External("find affiliate", err)
	}
	if existing != nil {
		return nil, domain.ErrAlreadyRegistered
	}

	affiliate := &domain.Affiliate{
		ID:        userID,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		var parent *domain.Affiliate
		if parentCode != "" {
			var err error
			if parent, err = s.repo.FindByCode(ctx, parentCode); err != nil {
				return err
			}
		}
		if parent != nil {
			affiliate.ParentAffiliateID = &parent.ID
			affiliate.GrandparentAffiliateID = parent.ParentAffiliateID
		}

		created := false
		for attempt := 0; attempt < maxCodeAttempts && !created; attempt++ {
			affiliate.ReferralCode = s.newCode()
			var err error
			if created, err = s.repo.Create(ctx, affiliate); err != nil {
				return err
			}
		}
		if !created {
			return domain.ErrReferralCodeTaken
		}

		if parent != nil {
			return s.repo.IncrementReferrals(ctx, parent.ID)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, domain.External("register affiliate", err)
	}

	zap.L().Info("affiliate registered", zap.String("affiliate_id", userID),
		zap.String("referral_code", affiliate.ReferralCode), zap.Bool("has_parent", affiliate.ParentAffiliateID != nil))
	return affiliate, nil
}

func (s *Service) Stats(ctx context.Context, affiliateID string) (*domain.AffiliateStats, error) {
	affiliate, err := s.repo.FindByID(ctx, affiliateID)
	if err != nil {
		return nil, domain.External("find affiliate", err)
	}
	if affiliate == nil {
		return nil, domain.ErrAffiliateNotFound
	}

	stats, err := s.repo.Stats(ctx, affiliateID)
	if err != nil {
		return nil, domain.External("aggregate commissions", err)
	}
	stats.ReferralCode = affiliate.ReferralCode
	stats.TotalReferrals = affiliate.TotalReferrals
	return stats, nil
}

// ListCommissions returns the newest commission rows first. limit is clamped to [1, MaxListLimit].
func (s *Service) ListCommissions(ctx context.Context, affiliateID string, limit int) ([]domain.AffiliateCommission, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	affiliate, err := s.repo.FindByID(ctx, affiliateID)
	if err != nil {
		return nil, domain.External("find affiliate", err)
	}
	if affiliate == nil {
		return nil, domain.ErrAffiliateNotFound
	}

	commissions, err := s.repo.ListCommissions(ctx, affiliateID, limit)
	if err != nil {
		return nil, domain.External("list commissions", err)
	}
	return commissions, nil
}
