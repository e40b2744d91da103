package authservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"github.com/GlebRadaev/loyalty/pkg/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -source=authservice.go -destination=mock_authservice.go -package=authservice

type Repo interface {
	FindByUtorid(ctx context.Context, utorid string) (*domain.User, error)
	FindByResetToken(ctx context.Context, token string) (*domain.User, error)
	SetResetToken(ctx context.Context, userID int, token string, expiresAt time.Time) error
	SetPassword(ctx context.Context, userID int, passwordHash string) error
	TouchLogin(ctx context.Context, userID int, at time.Time) error
}

// Limiter admits one reset request per client within its window.
type Limiter interface {
	Allow(ctx context.Context, subject string) (bool, error)
}

var (
	// ErrInvalidCredentials is deliberately outside the business kinds; the
	// handler answers 401 for it.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTooManyRequests is answered with 429.
	ErrTooManyRequests = errors.New("too many requests")

	ErrUserNotFound  = fmt.Errorf("user %w", domain.ErrNotFound)
	ErrTokenNotFound = fmt.Errorf("reset token %w", domain.ErrNotFound)
	ErrTokenOwner    = fmt.Errorf("%w: reset token belongs to another user", domain.ErrForbidden)
	ErrTokenExpired  = fmt.Errorf("%w: reset token expired", domain.ErrGone)
	ErrWeakPassword  = fmt.Errorf("%w: %w", domain.ErrInvalidInput, auth.ErrWeakPassword)
)

type Service struct {
	userRepo    Repo
	limiter     Limiter
	hashService auth.HashServiceInterface
	jwtService  auth.JWTServiceInterface
	tokenTTL    time.Duration
	resetTTL    time.Duration
	now         func() time.Time
	newToken    func() string
}

func New(repo Repo, limiter Limiter, hashService auth.HashServiceInterface, jwtService auth.JWTServiceInterface, tokenTTL, resetTTL time.Duration) *Service {
	return &Service{
		userRepo:    repo,
		limiter:     limiter,
		hashService: hashService,
		jwtService:  jwtService,
		tokenTTL:    tokenTTL,
		resetTTL:    resetTTL,
		now:         time.Now,
		newToken:    uuid.NewString,
	}
}

// Login checks the password and returns a signed access token together with
// its expiry.
func (s *Service) Login(ctx context.Context, utorid, password string) (string, time.Time, error) {
	user, err := s.userRepo.FindByUtorid(ctx, utorid)
	if err != nil {
		zap.L().Error("can't find user", zap.Error(err))
		return "", time.Time{}, err
	}
	if user == nil || !s.hashService.ComparePassword(user.PasswordHash, password) {
		zap.L().Info("invalid credentials", zap.String("utorid", utorid))
		return "", time.Time{}, ErrInvalidCredentials
	}

	now := s.now()
	expiresAt := now.Add(s.tokenTTL)
	token, err := s.jwtService.GenerateJWT(domain.Principal{ID: user.ID, Utorid: user.Utorid, Role: user.Role}, expiresAt)
	if err != nil {
		zap.L().Error("can't generate token", zap.Error(err))
		return "", time.Time{}, err
	}
	if err := s.userRepo.TouchLogin(ctx, user.ID, now); err != nil {
		return "", time.Time{}, err
	}

	zap.L().Info("user successfully authenticated", zap.String("utorid", utorid))
	return token, expiresAt, nil
}

// RequestReset issues a fresh reset token for utorid. clientIP keys the rate
// limit, so one client cannot spray requests across accounts.
func (s *Service) RequestReset(ctx context.Context, utorid, clientIP string) (string, time.Time, error) {
	ok, err := s.limiter.Allow(ctx, clientIP)
	if err != nil {
		return "", time.Time{}, err
	}
	if !ok {
		return "", time.Time{}, ErrTooManyRequests
	}

	user, err := s.userRepo.FindByUtorid(ctx, utorid)
	if err != nil {
		zap.L().Error("can't find user", zap.Error(err))
		return "", time.Time{}, err
	}
	if user == nil {
		return "", time.Time{}, ErrUserNotFound
	}

	token, expiresAt := s.newToken(), s.now().Add(s.resetTTL)
	if err := s.userRepo.SetResetToken(ctx, user.ID, token, expiresAt); err != nil {
		return "", time.Time{}, err
	}

	zap.L().Info("password reset requested", zap.String("utorid", utorid))
	return token, expiresAt, nil
}

// Reset sets a new password using a reset token. The token is consumed.
func (s *Service) Reset(ctx context.Context, token, utorid, password string) error {
	user, err := s.userRepo.FindByResetToken(ctx, token)
	if err != nil {
		zap.L().Error("can't find reset token", zap.Error(err))
		return err
	}
	if user == nil {
		return ErrTokenNotFound
	}
	if user.Utorid != utorid {
		return ErrTokenOwner
	}
	if user.ResetExpiresAt == nil || !s.now().Before(*user.ResetExpiresAt) {
		return ErrTokenExpired
	}

	hash, err := s.hashService.HashPassword(password)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return ErrWeakPassword
		}
		zap.L().Error("can't hash password", zap.Error(err))
		return err
	}
	if err := s.userRepo.SetPassword(ctx, user.ID, hash); err != nil {
		return err
	}

	zap.L().Info("password reset", zap.String("utorid", utorid))
	return nil
}
