package authservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"github.com/GlebRadaev/loyalty/pkg/auth"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"
)

var now = time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

func NewMock(t *testing.T) (*Service, *MockRepo, *MockLimiter, *auth.MockHashServiceInterface, *auth.MockJWTServiceInterface) {
	ctrl := gomock.NewController(t)
	repo := NewMockRepo(ctrl)
	limiter := NewMockLimiter(ctrl)
	hashService := auth.NewMockHashServiceInterface(ctrl)
	jwtService := auth.NewMockJWTServiceInterface(ctrl)

	service := New(repo, limiter, hashService, jwtService, 24*time.Hour, time.Hour)
	service.now = func() time.Time { return now }
	service.newToken = func() string { return "reset-token" }
	return service, repo, limiter, hashService, jwtService
}

func TestLogin(t *testing.T) {
	user := &domain.User{ID: 1, Utorid: "buyer001", Role: domain.RoleCashier, PasswordHash: "hash"}

	tests := []struct {
		name          string
		prepareMock   func(repo *MockRepo, hash *auth.MockHashServiceInterface, jwt *auth.MockJWTServiceInterface)
		expectedToken string
		expectedError error
	}{
		{
			name: "Valid credentials",
			prepareMock: func(repo *MockRepo, hash *auth.MockHashServiceInterface, jwt *auth.MockJWTServiceInterface) {
				repo.EXPECT().FindByUtorid(context.Background(), "buyer001").Return(user, nil)
				hash.EXPECT().ComparePassword("hash", "Secret1!").Return(true)
				jwt.EXPECT().GenerateJWT(domain.Principal{ID: 1, Utorid: "buyer001", Role: domain.RoleCashier}, now.Add(24*time.Hour)).
					Return("jwt", nil)
				repo.EXPECT().TouchLogin(context.Background(), 1, now).Return(nil)
			},
			expectedToken: "jwt",
		},
		{
			name: "Wrong password",
			prepareMock: func(repo *MockRepo, hash *auth.MockHashServiceInterface, _ *auth.MockJWTServiceInterface) {
				repo.EXPECT().FindByUtorid(context.Background(), "buyer001").Return(user, nil)
				hash.EXPECT().ComparePassword("hash", "Secret1!").Return(false)
			},
			expectedError: ErrInvalidCredentials,
		},
		{
			name: "Unknown user",
			prepareMock: func(repo *MockRepo, _ *auth.MockHashServiceInterface, _ *auth.MockJWTServiceInterface) {
				repo.EXPECT().FindByUtorid(context.Background(), "buyer001").Return(nil, nil)
			},
			expectedError: ErrInvalidCredentials,
		},
		{
			name: "Token signing fails",
			prepareMock: func(repo *MockRepo, hash *auth.MockHashServiceInterface, jwt *auth.MockJWTServiceInterface) {
				repo.EXPECT().FindByUtorid(context.Background(), "buyer001").Return(user, nil)
				hash.EXPECT().ComparePassword("hash", "Secret1!").Return(true)
				jwt.EXPECT().GenerateJWT(gomock.Any(), gomock.Any()).Return("", errors.New("signing error"))
			},
			expectedError: errors.New("signing error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo, _, hash, jwt := NewMock(t)
			tt.prepareMock(repo, hash, jwt)

			token, expiresAt, err := service.Login(context.Background(), "buyer001", "Secret1!")
			if tt.expectedError != nil {
				assert.EqualError(t, err, tt.expectedError.Error())
				assert.Empty(t, token)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedToken, token)
			assert.Equal(t, now.Add(24*time.Hour), expiresAt)
		})
	}
}

func TestRequestReset(t *testing.T) {
	tests := []struct {
		name          string
		prepareMock   func(repo *MockRepo, limiter *MockLimiter)
		expectedError error
	}{
		{
			name: "Token issued",
			prepareMock: func(repo *MockRepo, limiter *MockLimiter) {
				limiter.EXPECT().Allow(context.Background(), "10.0.0.1").Return(true, nil)
				repo.EXPECT().FindByUtorid(context.Background(), "buyer001").Return(&domain.User{ID: 1, Utorid: "buyer001"}, nil)
				repo.EXPECT().SetResetToken(context.Background(), 1, "reset-token", now.Add(time.Hour)).Return(nil)
			},
		},
		{
			name: "Rate limited",
			prepareMock: func(_ *MockRepo, limiter *MockLimiter) {
				limiter.EXPECT().Allow(context.Background(), "10.0.0.1").Return(false, nil)
			},
			expectedError: ErrTooManyRequests,
		},
		{
			name: "Unknown user",
			prepareMock: func(repo *MockRepo, limiter *MockLimiter) {
				limiter.EXPECT().Allow(context.Background(), "10.0.0.1").Return(true, nil)
				repo.EXPECT().FindByUtorid(context.Background(), "buyer001").Return(nil, nil)
			},
			expectedError: ErrUserNotFound,
		},
		{
			name: "Limiter store failure",
			prepareMock: func(_ *MockRepo, limiter *MockLimiter) {
				limiter.EXPECT().Allow(context.Background(), "10.0.0.1").Return(false, errors.New("redis down"))
			},
			expectedError: errors.New("redis down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo, limiter, _, _ := NewMock(t)
			tt.prepareMock(repo, limiter)

			token, expiresAt, err := service.RequestReset(context.Background(), "buyer001", "10.0.0.1")
			if tt.expectedError != nil {
				assert.EqualError(t, err, tt.expectedError.Error())
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, "reset-token", token)
			assert.Equal(t, now.Add(time.Hour), expiresAt)
		})
	}
}

func TestReset(t *testing.T) {
	valid := now.Add(time.Minute)
	expired := now

	tests := []struct {
		name          string
		stored        *domain.User
		prepareMock   func(repo *MockRepo, hash *auth.MockHashServiceInterface)
		expectedError error
	}{
		{
			name:   "Password set",
			stored: &domain.User{ID: 1, Utorid: "buyer001", ResetExpiresAt: &valid},
			prepareMock: func(repo *MockRepo, hash *auth.MockHashServiceInterface) {
				hash.EXPECT().HashPassword("Secret1!").Return("hash", nil)
				repo.EXPECT().SetPassword(context.Background(), 1, "hash").Return(nil)
			},
		},
		{
			name:          "Unknown token",
			prepareMock:   func(*MockRepo, *auth.MockHashServiceInterface) {},
			expectedError: ErrTokenNotFound,
		},
		{
			name:          "Token of another user",
			stored:        &domain.User{ID: 2, Utorid: "friend01", ResetExpiresAt: &valid},
			prepareMock:   func(*MockRepo, *auth.MockHashServiceInterface) {},
			expectedError: ErrTokenOwner,
		},
		{
			name:          "Expired token",
			stored:        &domain.User{ID: 1, Utorid: "buyer001", ResetExpiresAt: &expired},
			prepareMock:   func(*MockRepo, *auth.MockHashServiceInterface) {},
			expectedError: ErrTokenExpired,
		},
		{
			name:   "Weak password",
			stored: &domain.User{ID: 1, Utorid: "buyer001", ResetExpiresAt: &valid},
			prepareMock: func(_ *MockRepo, hash *auth.MockHashServiceInterface) {
				hash.EXPECT().HashPassword("Secret1!").Return("", auth.ErrWeakPassword)
			},
			expectedError: ErrWeakPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo, _, hash, _ := NewMock(t)
			repo.EXPECT().FindByResetToken(context.Background(), "reset-token").Return(tt.stored, nil)
			tt.prepareMock(repo, hash)

			err := service.Reset(context.Background(), "reset-token", "buyer001", "Secret1!")
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestResetErrorKinds(t *testing.T) {
	assert.ErrorIs(t, ErrTokenNotFound, domain.ErrNotFound)
	assert.ErrorIs(t, ErrTokenOwner, domain.ErrForbidden)
	assert.ErrorIs(t, ErrTokenExpired, domain.ErrGone)
	assert.ErrorIs(t, ErrWeakPassword, domain.ErrInvalidInput)
	assert.ErrorIs(t, ErrWeakPassword, auth.ErrWeakPassword)
}
