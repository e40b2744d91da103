package promotionservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"github.com/GlebRadaev/loyalty/internal/promo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//go:generate mockgen -source=promotionservice.go -destination=mock_promotionservice.go -package=promotionservice

type Repo interface {
	Create(ctx context.Context, p *domain.Promotion) (*domain.Promotion, error)
	FindByID(ctx context.Context, id int) (*domain.Promotion, error)
	List(ctx context.Context, filter domain.PromotionFilter) ([]domain.Promotion, error)
	Count(ctx context.Context, filter domain.PromotionFilter) (int, error)
	Delete(ctx context.Context, id int) error
}

var (
	ErrPromotionNotFound = fmt.Errorf("promotion %w", domain.ErrNotFound)

	ErrInvalidName    = fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	ErrInvalidType    = fmt.Errorf("%w: type must be automatic or one-time", domain.ErrInvalidInput)
	ErrInvalidWindow  = fmt.Errorf("%w: startTime must be before endTime", domain.ErrInvalidInput)
	ErrStartInPast    = fmt.Errorf("%w: startTime must not be in the past", domain.ErrInvalidInput)
	ErrNegativeReward = fmt.Errorf("%w: minSpending, rate and points must not be negative", domain.ErrInvalidInput)
	ErrInvalidFilter  = fmt.Errorf("%w: invalid filter", domain.ErrInvalidInput)

	ErrAlreadyStarted = fmt.Errorf("%w: promotion has already started", domain.ErrForbidden)
)

type Service struct {
	repo Repo
	now  func() time.Time
}

func New(repo Repo) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	Name        string
	Description string
	Type        domain.PromotionType
	StartTime   time.Time
	EndTime     time.Time
	MinSpending decimal.NullDecimal
	Rate        *float64
	Points      *int
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Promotion, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}

	p, err := s.repo.Create(ctx, &domain.Promotion{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Type:        in.Type,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		MinSpending: in.MinSpending,
		Rate:        in.Rate,
		Points:      in.Points,
	})
	if err != nil {
		zap.L().Error("can't create promotion", zap.Error(err))
		return nil, err
	}

	zap.L().Info("promotion created", zap.Int("id", p.ID), zap.String("type", string(p.Type)))
	return p, nil
}

func (s *Service) validate(in CreateInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return ErrInvalidName
	}
	if in.Type != domain.PromotionAutomatic && in.Type != domain.PromotionOneTime {
		return ErrInvalidType
	}
	if !in.StartTime.Before(in.EndTime) {
		return ErrInvalidWindow
	}
	if in.StartTime.Before(s.now()) {
		return ErrStartInPast
	}
	if in.MinSpending.Valid && in.MinSpending.Decimal.IsNegative() {
		return ErrNegativeReward
	}
	if in.Rate != nil && *in.Rate < 0 {
		return ErrNegativeReward
	}
	if in.Points != nil && *in.Points < 0 {
		return ErrNegativeReward
	}
	return nil
}

// Get returns a promotion. Below manager, inactive promotions and one-time
// promotions the caller already used are reported as missing.
func (s *Service) Get(ctx context.Context, id int, principal domain.Principal) (*domain.Promotion, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		zap.L().Error("failed to get promotion", zap.Int("id", id), zap.Error(err))
		return nil, err
	}
	if p == nil {
		return nil, ErrPromotionNotFound
	}
	if !principal.Role.AtLeast(domain.RoleManager) && !promo.Visible(p, principal.ID, s.now()) {
		return nil, ErrPromotionNotFound
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, principal domain.Principal, filter domain.PromotionFilter) (*domain.Page[domain.Promotion], error) {
	if filter.Page < 1 || filter.Limit < 1 {
		return nil, fmt.Errorf("%w: page and limit must be at least 1", ErrInvalidFilter)
	}
	if filter.Type != "" && filter.Type != domain.PromotionAutomatic && filter.Type != domain.PromotionOneTime {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidFilter, filter.Type)
	}
	if !principal.Role.AtLeast(domain.RoleManager) {
		now, userID := s.now(), principal.ID
		filter.ActiveAt = &now
		filter.UnusedBy = &userID
	}

	page := &domain.Page[domain.Promotion]{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := s.repo.Count(gctx, filter)
		page.Count = count
		return err
	})
	g.Go(func() error {
		results, err := s.repo.List(gctx, filter)
		page.Results = results
		return err
	})
	if err := g.Wait(); err != nil {
		zap.L().Error("failed to list promotions", zap.Error(err))
		return nil, err
	}
	return page, nil
}

// Delete removes a promotion that has not started yet.
func (s *Service) Delete(ctx context.Context, id int) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		zap.L().Error("failed to get promotion", zap.Int("id", id), zap.Error(err))
		return err
	}
	if p == nil {
		return ErrPromotionNotFound
	}
	if !s.now().Before(p.StartTime) {
		return ErrAlreadyStarted
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		zap.L().Error("can't delete promotion", zap.Int("id", id), zap.Error(err))
		return err
	}
	zap.L().Info("promotion deleted", zap.Int("id", id))
	return nil
}
