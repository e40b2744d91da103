package userservice

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -source=userservice.go -destination=mock_userservice.go -package=userservice

type Repo interface {
	FindByID(ctx context.Context, id int) (*domain.User, error)
	FindByUtorid(ctx context.Context, utorid string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
}

var (
	utoridPattern = regexp.MustCompile(`^[a-zA-Z0-9]{1,8}$`)
	emailPattern  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

var (
	ErrUserNotFound = fmt.Errorf("user %w", domain.ErrNotFound)

	ErrInvalidUtorid   = fmt.Errorf("%w: utorid must be 1-8 alphanumeric characters", domain.ErrInvalidInput)
	ErrInvalidName     = fmt.Errorf("%w: name must be 1-50 characters", domain.ErrInvalidInput)
	ErrInvalidEmail    = fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	ErrUnverify        = fmt.Errorf("%w: verified can only be set to true", domain.ErrInvalidInput)
	ErrNothingToUpdate = fmt.Errorf("%w: no fields to update", domain.ErrInvalidInput)

	ErrRoleNotAllowed = fmt.Errorf("%w: role cannot be assigned by this user", domain.ErrForbidden)

	ErrUtoridTaken = fmt.Errorf("%w: utorid already registered", domain.ErrConflict)
	ErrEmailTaken  = fmt.Errorf("%w: email already registered", domain.ErrConflict)
)

type Service struct {
	repo     Repo
	resetTTL time.Duration
	now      func() time.Time
	newToken func() string
}

func New(repo Repo, resetTTL time.Duration) *Service {
	return &Service{
		repo:     repo,
		resetTTL: resetTTL,
		now:      time.Now,
		newToken: uuid.NewString,
	}
}

type RegisterInput struct {
	Utorid string
	Name   string
	Email  string
}

// Register creates an account without a password. The returned user carries
// the reset token the owner uses to set their first password.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Utorid = strings.ToLower(strings.TrimSpace(in.Utorid))
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	switch {
	case !utoridPattern.MatchString(in.Utorid):
		return nil, ErrInvalidUtorid
	case in.Name == "" || len([]rune(in.Name)) > 50:
		return nil, ErrInvalidName
	case !emailPattern.MatchString(in.Email):
		return nil, ErrInvalidEmail
	}

	existing, err := s.repo.FindByUtorid(ctx, in.Utorid)
	if err != nil {
		zap.L().Error("can't find user", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		zap.L().Info("utorid already registered", zap.String("utorid", in.Utorid))
		return nil, ErrUtoridTaken
	}
	if err := s.checkEmailFree(ctx, in.Email, 0); err != nil {
		return nil, err
	}

	expiresAt := s.now().Add(s.resetTTL)
	user, err := s.repo.Create(ctx, &domain.User{
		Utorid:         in.Utorid,
		Name:           in.Name,
		Email:          in.Email,
		Role:           domain.RoleRegular,
		ResetToken:     s.newToken(),
		ResetExpiresAt: &expiresAt,
	})
	if err != nil {
		zap.L().Error("can't create user", zap.Error(err))
		return nil, err
	}

	zap.L().Info("user registered", zap.String("utorid", user.Utorid))
	return user, nil
}

func (s *Service) checkEmailFree(ctx context.Context, email string, ownerID int) error {
	holder, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		zap.L().Error("can't find user by email", zap.Error(err))
		return err
	}
	if holder != nil && holder.ID != ownerID {
		return ErrEmailTaken
	}
	return nil
}

func (s *Service) Get(ctx context.Context, utorid string) (*domain.User, error) {
	user, err := s.repo.FindByUtorid(ctx, utorid)
	if err != nil {
		zap.L().Error("failed to get user", zap.String("utorid", utorid), zap.Error(err))
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *Service) GetMe(ctx context.Context, id int) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		zap.L().Error("failed to get user", zap.Int("id", id), zap.Error(err))
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateInput holds the manager-editable fields. Nil means unchanged.
type UpdateInput struct {
	Email      *string
	Verified   *bool
	Suspicious *bool
	Role       *domain.Role
}

func (s *Service) Update(ctx context.Context, utorid string, in UpdateInput, actor domain.Principal) (*domain.User, error) {
	if in.Email == nil && in.Verified == nil && in.Suspicious == nil && in.Role == nil {
		return nil, ErrNothingToUpdate
	}
	if in.Verified != nil && !*in.Verified {
		return nil, ErrUnverify
	}
	if in.Role != nil && !canAssign(actor.Role, *in.Role) {
		return nil, ErrRoleNotAllowed
	}

	user, err := s.Get(ctx, utorid)
	if err != nil {
		return nil, err
	}

	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if !emailPattern.MatchString(email) {
			return nil, ErrInvalidEmail
		}
		if err := s.checkEmailFree(ctx, email, user.ID); err != nil {
			return nil, err
		}
		user.Email = email
	}
	if in.Verified != nil {
		user.Verified = true
	}
	if in.Suspicious != nil {
		user.Suspicious = *in.Suspicious
	}
	if in.Role != nil {
		user.Role = *in.Role
		// Cashiers must not be suspicious.
		if user.Role == domain.RoleCashier {
			user.Suspicious = false
		}
	}

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		zap.L().Error("can't update user", zap.String("utorid", utorid), zap.Error(err))
		return nil, err
	}

	zap.L().Info("user updated", zap.String("utorid", utorid), zap.String("by", actor.Utorid))
	return updated, nil
}

// canAssign: managers hand out regular and cashier, superusers anything.
func canAssign(actor, target domain.Role) bool {
	switch {
	case actor.AtLeast(domain.RoleSuperuser):
		return true
	case actor.AtLeast(domain.RoleManager):
		return target == domain.RoleRegular || target == domain.RoleCashier
	}
	return false
}
