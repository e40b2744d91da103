package ledgerservice

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"github.com/GlebRadaev/loyalty/internal/pg"
)

//go:generate mockgen -source=ledgerservice.go -destination=mock_ledgerservice.go -package=ledgerservice

type UserRepo interface {
	FindByUtorid(ctx context.Context, utorid string) (*domain.User, error)
	LockByID(ctx context.Context, id int) (*domain.User, error)
	LockByUtorid(ctx context.Context, utorid string) (*domain.User, error)
	AddPoints(ctx context.Context, userID int, delta int) (int, error)
}

type TransactionRepo interface {
	Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	FindByID(ctx context.Context, id int) (*domain.Transaction, error)
	LockByID(ctx context.Context, id int) (*domain.Transaction, error)
	SetSuspicious(ctx context.Context, id int, suspicious bool) error
	MarkProcessed(ctx context.Context, id int, cashierID int) (bool, error)
	List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error)
	Count(ctx context.Context, filter domain.TransactionFilter) (int, error)
}

type PromotionRepo interface {
	FindByIDs(ctx context.Context, ids []int) ([]domain.Promotion, error)
	MarkUsed(ctx context.Context, promotionID, userID int) (bool, error)
}

type EventRepo interface {
	LockByID(ctx context.Context, id int) (*domain.Event, error)
	Guests(ctx context.Context, eventID int) ([]domain.User, error)
	AddAwarded(ctx context.Context, eventID, amount int) (bool, error)
}

var (
	ErrUserNotFound        = fmt.Errorf("user %w", domain.ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("transaction %w", domain.ErrNotFound)
	ErrEventNotFound       = fmt.Errorf("event %w", domain.ErrNotFound)

	ErrInvalidAmount       = fmt.Errorf("%w: amount must be positive", domain.ErrInvalidInput)
	ErrInvalidSpent        = fmt.Errorf("%w: spent must not be negative", domain.ErrInvalidInput)
	ErrInsufficientPoints  = fmt.Errorf("%w: insufficient points", domain.ErrInvalidInput)
	ErrSelfTransfer        = fmt.Errorf("%w: cannot transfer points to yourself", domain.ErrInvalidInput)
	ErrPromotionNotFound   = fmt.Errorf("%w: promotion does not exist", domain.ErrInvalidInput)
	ErrPromotionIneligible = fmt.Errorf("%w: promotion cannot be applied", domain.ErrInvalidInput)
	ErrNotRedemption       = fmt.Errorf("%w: transaction is not a redemption", domain.ErrInvalidInput)
	ErrAlreadyProcessed    = fmt.Errorf("%w: redemption already processed", domain.ErrInvalidInput)
	ErrCashierNotFound     = fmt.Errorf("%w: cashier does not exist", domain.ErrInvalidInput)
	ErrNotGuest            = fmt.Errorf("%w: user is not a guest of the event", domain.ErrInvalidInput)
	ErrNoGuests            = fmt.Errorf("%w: event has no guests", domain.ErrInvalidInput)
	ErrEventPointsExceeded = fmt.Errorf("%w: not enough points left in the event", domain.ErrInvalidInput)
	ErrInvalidFilter       = fmt.Errorf("%w: invalid filter", domain.ErrInvalidInput)

	ErrNotVerified  = fmt.Errorf("%w: user is not verified", domain.ErrForbidden)
	ErrNotOrganizer = fmt.Errorf("%w: only managers and organizers can award event points", domain.ErrForbidden)
)

// Service is the points accounting engine. Every balance change it makes is
// committed in the same database transaction as the record that explains it.
type Service struct {
	txManager    pg.TXManager
	users        UserRepo
	transactions TransactionRepo
	promotions   PromotionRepo
	events       EventRepo
	now          func() time.Time
}

func New(txManager pg.TXManager, users UserRepo, transactions TransactionRepo, promotions PromotionRepo, events EventRepo) *Service {
	return &Service{
		txManager:    txManager,
		users:        users,
		transactions: transactions,
		promotions:   promotions,
		events:       events,
		now:          time.Now,
	}
}

func (s *Service) findUser(ctx context.Context, utorid string) (*domain.User, error) {
	user, err := s.users.FindByUtorid(ctx, utorid)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *Service) lockUser(ctx context.Context, utorid string) (*domain.User, error) {
	user, err := s.users.LockByUtorid(ctx, utorid)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// lockUsers takes row locks in ascending id order so that two transfers
// between the same pair of users cannot deadlock.
func (s *Service) lockUsers(ctx context.Context, ids ...int) (map[int]*domain.User, error) {
	ordered := slices.Clone(ids)
	slices.Sort(ordered)

	locked := make(map[int]*domain.User, len(ordered))
	for _, id := range slices.Compact(ordered) {
		user, err := s.users.LockByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, ErrUserNotFound
		}
		locked[id] = user
	}
	return locked, nil
}

// credit applies delta to the user's stored points.
func (s *Service) credit(ctx context.Context, user *domain.User, delta int) error {
	if delta == 0 {
		return nil
	}
	points, err := s.users.AddPoints(ctx, user.ID, delta)
	if err != nil {
		return err
	}
	user.Points = points
	return nil
}

// loadPromotions resolves ids, which must all exist. Duplicates collapse.
func (s *Service) loadPromotions(ctx context.Context, ids []int) ([]domain.Promotion, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	unique := slices.Clone(ids)
	slices.Sort(unique)
	unique = slices.Compact(unique)

	promotions, err := s.promotions.FindByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(promotions) == len(unique) {
		return promotions, nil
	}
	for _, id := range unique {
		if !slices.ContainsFunc(promotions, func(p domain.Promotion) bool { return p.ID == id }) {
			return nil, fmt.Errorf("%w: %d", ErrPromotionNotFound, id)
		}
	}
	return promotions, nil
}

func promotionIDs(promotions []domain.Promotion) []int {
	ids := make([]int, 0, len(promotions))
	for _, p := range promotions {
		ids = append(ids, p.ID)
	}
	return ids
}
