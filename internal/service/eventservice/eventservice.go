package eventservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"github.com/GlebRadaev/loyalty/internal/pg"
	"github.com/GlebRadaev/loyalty/internal/service/ledgerservice"
	"go.uber.org/zap"
)

//go:generate mockgen -source=eventservice.go -destination=mock_eventservice.go -package=eventservice

type Repo interface {
	Create(ctx context.Context, e *domain.Event) (*domain.Event, error)
	FindByID(ctx context.Context, id int) (*domain.Event, error)
	LockByID(ctx context.Context, id int) (*domain.Event, error)
	Publish(ctx context.Context, id int) error
	AddOrganizer(ctx context.Context, eventID, userID int) error
	AddGuest(ctx context.Context, eventID, userID int) error
	RemoveGuest(ctx context.Context, eventID, userID int) (bool, error)
}

type UserRepo interface {
	FindByUtorid(ctx context.Context, utorid string) (*domain.User, error)
}

type Ledger interface {
	CreateEventAward(ctx context.Context, in ledgerservice.EventAwardInput) ([]domain.Transaction, error)
}

var (
	ErrEventNotFound = fmt.Errorf("event %w", domain.ErrNotFound)
	ErrUserNotFound  = fmt.Errorf("user %w", domain.ErrNotFound)
	ErrGuestNotFound = fmt.Errorf("guest %w", domain.ErrNotFound)

	ErrInvalidName          = fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	ErrInvalidWindow        = fmt.Errorf("%w: startTime must be before endTime", domain.ErrInvalidInput)
	ErrStartInPast          = fmt.Errorf("%w: startTime must not be in the past", domain.ErrInvalidInput)
	ErrInvalidCapacity      = fmt.Errorf("%w: capacity must be positive", domain.ErrInvalidInput)
	ErrInvalidPoints        = fmt.Errorf("%w: points must be positive", domain.ErrInvalidInput)
	ErrGuestCannotOrganize  = fmt.Errorf("%w: a guest cannot be an organizer", domain.ErrInvalidInput)
	ErrOrganizerCannotGuest = fmt.Errorf("%w: an organizer cannot be a guest", domain.ErrInvalidInput)

	ErrSelfOnly = fmt.Errorf("%w: only managers and organizers can add other guests", domain.ErrForbidden)

	ErrAlreadyGuest = fmt.Errorf("%w: user is already a guest", domain.ErrConflict)

	ErrEventEnded = fmt.Errorf("%w: event has ended", domain.ErrGone)
	ErrEventFull  = fmt.Errorf("%w: event is full", domain.ErrGone)
)

type Service struct {
	txManager pg.TXManager
	repo      Repo
	users     UserRepo
	ledger    Ledger
	now       func() time.Time
}

func New(txManager pg.TXManager, repo Repo, users UserRepo, ledger Ledger) *Service {
	return &Service{
		txManager: txManager,
		repo:      repo,
		users:     users,
		ledger:    ledger,
		now:       time.Now,
	}
}

// CanManage reports whether p sees and edits the whole event: managers and
// the event's organizers.
func CanManage(e *domain.Event, p domain.Principal) bool {
	return p.Role.AtLeast(domain.RoleManager) || e.IsOrganizer(p.ID)
}

type CreateInput struct {
	Name        string
	Description string
	Location    string
	StartTime   time.Time
	EndTime     time.Time
	Capacity    *int
	Points      int
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Event, error) {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return nil, ErrInvalidName
	case !in.StartTime.Before(in.EndTime):
		return nil, ErrInvalidWindow
	case in.StartTime.Before(s.now()):
		return nil, ErrStartInPast
	case in.Capacity != nil && *in.Capacity <= 0:
		return nil, ErrInvalidCapacity
	case in.Points <= 0:
		return nil, ErrInvalidPoints
	}

	e, err := s.repo.Create(ctx, &domain.Event{
		Name:            strings.TrimSpace(in.Name),
		Description:     in.Description,
		Location:        in.Location,
		StartTime:       in.StartTime,
		EndTime:         in.EndTime,
		Capacity:        in.Capacity,
		PointsAllocated: in.Points,
	})
	if err != nil {
		zap.L().Error("can't create event", zap.Error(err))
		return nil, err
	}

	zap.L().Info("event created", zap.Int("id", e.ID), zap.Int("points", e.PointsAllocated))
	return e, nil
}

// Get hides unpublished events from everyone who cannot manage them.
func (s *Service) Get(ctx context.Context, id int, principal domain.Principal) (*domain.Event, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		zap.L().Error("failed to get event", zap.Int("id", id), zap.Error(err))
		return nil, err
	}
	if e == nil || (!e.Published && !CanManage(e, principal)) {
		return nil, ErrEventNotFound
	}
	return e, nil
}

// Publish makes the event visible. Publishing is one-way.
func (s *Service) Publish(ctx context.Context, id int) (*domain.Event, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		zap.L().Error("failed to get event", zap.Int("id", id), zap.Error(err))
		return nil, err
	}
	if e == nil {
		return nil, ErrEventNotFound
	}
	if e.Published {
		return e, nil
	}
	if err := s.repo.Publish(ctx, id); err != nil {
		return nil, err
	}
	e.Published = true
	zap.L().Info("event published", zap.Int("id", id))
	return e, nil
}

func (s *Service) AddOrganizer(ctx context.Context, eventID int, utorid string) (*domain.Event, error) {
	var event *domain.Event
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		e, err := s.lockEvent(ctx, eventID)
		if err != nil {
			return err
		}
		user, err := s.findUser(ctx, utorid)
		if err != nil {
			return err
		}
		if e.Ended(s.now()) {
			return ErrEventEnded
		}
		if e.IsGuest(user.ID) {
			return ErrGuestCannotOrganize
		}
		if e.IsOrganizer(user.ID) {
			event = e
			return nil
		}
		if err := s.repo.AddOrganizer(ctx, e.ID, user.ID); err != nil {
			return err
		}
		e.Organizers = append(e.Organizers, user.ID)
		event = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

// AddGuest puts utorid on the guest list. Managers and organizers may add
// anyone; everybody else may only add themselves to a published event.
func (s *Service) AddGuest(ctx context.Context, eventID int, utorid string, actor domain.Principal) (*domain.Event, error) {
	var event *domain.Event
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		e, err := s.lockEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if !CanManage(e, actor) {
			if !e.Published {
				return ErrEventNotFound
			}
			if utorid != actor.Utorid {
				return ErrSelfOnly
			}
		}
		user, err := s.findUser(ctx, utorid)
		if err != nil {
			return err
		}

		switch {
		case e.Ended(s.now()):
			return ErrEventEnded
		case e.IsOrganizer(user.ID):
			return ErrOrganizerCannotGuest
		case e.IsGuest(user.ID):
			return ErrAlreadyGuest
		case e.Full():
			return ErrEventFull
		}

		if err := s.repo.AddGuest(ctx, e.ID, user.ID); err != nil {
			return err
		}
		e.Guests = append(e.Guests, user.ID)
		event = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("guest added", zap.Int("event_id", eventID), zap.String("utorid", utorid))
	return event, nil
}

func (s *Service) RemoveGuest(ctx context.Context, eventID, userID int) error {
	e, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		zap.L().Error("failed to get event", zap.Int("id", eventID), zap.Error(err))
		return err
	}
	if e == nil {
		return ErrEventNotFound
	}
	removed, err := s.repo.RemoveGuest(ctx, eventID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrGuestNotFound
	}
	return nil
}

// Award pays event points to one guest or to all of them.
func (s *Service) Award(ctx context.Context, in ledgerservice.EventAwardInput) ([]domain.Transaction, error) {
	return s.ledger.CreateEventAward(ctx, in)
}

func (s *Service) lockEvent(ctx context.Context, id int) (*domain.Event, error) {
	e, err := s.repo.LockByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrEventNotFound
	}
	return e, nil
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
