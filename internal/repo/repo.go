package repo

import (
	"github.com/GlebRadaev/loyalty/internal/pg"
	eventrepo "github.com/GlebRadaev/loyalty/internal/repo/event-repo"
	promotionrepo "github.com/GlebRadaev/loyalty/internal/repo/promotion-repo"
	transactionrepo "github.com/GlebRadaev/loyalty/internal/repo/transaction-repo"
	userrepo "github.com/GlebRadaev/loyalty/internal/repo/user-repo"
	"github.com/GlebRadaev/loyalty/internal/service/authservice"
	"github.com/GlebRadaev/loyalty/internal/service/eventservice"
	"github.com/GlebRadaev/loyalty/internal/service/ledgerservice"
	"github.com/GlebRadaev/loyalty/internal/service/promotionservice"
	"github.com/GlebRadaev/loyalty/internal/service/userservice"
)

// One table family serves several services, so each repository satisfies
// every interface its consumers declare.
type (
	UserRepo interface {
		ledgerservice.UserRepo
		userservice.Repo
		authservice.Repo
		eventservice.UserRepo
	}
	TransactionRepo interface {
		ledgerservice.TransactionRepo
	}
	PromotionRepo interface {
		ledgerservice.PromotionRepo
		promotionservice.Repo
	}
	EventRepo interface {
		ledgerservice.EventRepo
		eventservice.Repo
	}
)

type Repositories struct {
	UserRepo        UserRepo
	TransactionRepo TransactionRepo
	PromotionRepo   PromotionRepo
	EventRepo       EventRepo
}

func New(conn pg.Database, txManager pg.TXManager) *Repositories {
	userRepo := userrepo.New(conn)
	transactionRepo := transactionrepo.New(conn, txManager)
	promotionRepo := promotionrepo.New(conn)
	eventRepo := eventrepo.New(conn)

	return &Repositories{
		UserRepo:        userRepo,
		TransactionRepo: transactionRepo,
		PromotionRepo:   promotionRepo,
		EventRepo:       eventRepo,
	}
}
