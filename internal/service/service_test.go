package service

import (
	"testing"
	"time"

	"github.com/GlebRadaev/loyalty/internal/config"
	"github.com/GlebRadaev/loyalty/internal/pg"
	"github.com/GlebRadaev/loyalty/internal/repo"
	"github.com/GlebRadaev/loyalty/internal/service/authservice"
	"github.com/GlebRadaev/loyalty/internal/service/eventservice"
	"github.com/GlebRadaev/loyalty/internal/service/ledgerservice"
	"github.com/GlebRadaev/loyalty/internal/service/promotionservice"
	"github.com/GlebRadaev/loyalty/internal/service/userservice"
	pkgauth "github.com/GlebRadaev/loyalty/pkg/auth"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"
)

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()

	txManager := pg.NewMockTXManager(ctrl)
	repos := repo.New(mockDB, txManager)
	cfg := &config.Config{TokenTTL: time.Hour, ResetTokenTTL: time.Hour}

	services := New(repos, txManager, authservice.NewMockLimiter(ctrl), pkgauth.NewMockJWTServiceInterface(ctrl), cfg)

	assert.IsType(t, &authservice.Service{}, services.AuthService)
	assert.IsType(t, &userservice.Service{}, services.UserService)
	assert.IsType(t, &ledgerservice.Service{}, services.TransactionService)
	assert.IsType(t, &promotionservice.Service{}, services.PromotionService)
	assert.IsType(t, &eventservice.Service{}, services.EventService)
}
