package service

import (
	"github.com/GlebRadaev/loyalty/internal/config"
	"github.com/GlebRadaev/loyalty/internal/handlers/auth"
	"github.com/GlebRadaev/loyalty/internal/handlers/events"
	"github.com/GlebRadaev/loyalty/internal/handlers/promotions"
	"github.com/GlebRadaev/loyalty/internal/handlers/transactions"
	"github.com/GlebRadaev/loyalty/internal/handlers/users"
	"github.com/GlebRadaev/loyalty/internal/pg"

	pkgauth "github.com/GlebRadaev/loyalty/pkg/auth"

	"github.com/GlebRadaev/loyalty/internal/repo"
	authservice "github.com/GlebRadaev/loyalty/internal/service/authservice"
	eventservice "github.com/GlebRadaev/loyalty/internal/service/eventservice"
	ledgerservice "github.com/GlebRadaev/loyalty/internal/service/ledgerservice"
	promotionservice "github.com/GlebRadaev/loyalty/internal/service/promotionservice"
	userservice "github.com/GlebRadaev/loyalty/internal/service/userservice"
)

type Services struct {
	AuthService        auth.Service
	UserService        users.Service
	TransactionService transactions.Service
	PromotionService   promotions.Service
	EventService       events.Service
}

func New(repo *repo.Repositories, txManager pg.TXManager, limiter authservice.Limiter, jwtService pkgauth.JWTServiceInterface, cfg *config.Config) *Services {
	ledgerService := ledgerservice.New(txManager, repo.UserRepo, repo.TransactionRepo, repo.PromotionRepo, repo.EventRepo)
	eventService := eventservice.New(txManager, repo.EventRepo, repo.UserRepo, ledgerService)
	promotionService := promotionservice.New(repo.PromotionRepo)
	userService := userservice.New(repo.UserRepo, cfg.ResetTokenTTL)
	authService := authservice.New(repo.UserRepo, limiter, &pkgauth.HashService{}, jwtService, cfg.TokenTTL, cfg.ResetTokenTTL)

	return &Services{
		AuthService:        authService,
		UserService:        userService,
		TransactionService: ledgerService,
		PromotionService:   promotionService,
		EventService:       eventService,
	}
}
