package handlers

import (
	"net/http"

	_ "github.com/GlebRadaev/loyalty/docs"
	"github.com/GlebRadaev/loyalty/internal/domain"
	authhandlers "github.com/GlebRadaev/loyalty/internal/handlers/auth"
	eventhandlers "github.com/GlebRadaev/loyalty/internal/handlers/events"
	promotionhandlers "github.com/GlebRadaev/loyalty/internal/handlers/promotions"
	transactionhandlers "github.com/GlebRadaev/loyalty/internal/handlers/transactions"
	userhandlers "github.com/GlebRadaev/loyalty/internal/handlers/users"
	"github.com/GlebRadaev/loyalty/internal/service"
	"github.com/GlebRadaev/loyalty/pkg/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

//go:generate mockgen -source=handlers.go -destination=mock_handlers.go -package=handlers

type AuthHandler interface {
	Login(w http.ResponseWriter, r *http.Request)
	RequestReset(w http.ResponseWriter, r *http.Request)
	Reset(w http.ResponseWriter, r *http.Request)
}

type UserHandler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Me(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
}

type TransactionHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	SetSuspicious(w http.ResponseWriter, r *http.Request)
	Process(w http.ResponseWriter, r *http.Request)
	CreateMine(w http.ResponseWriter, r *http.Request)
	ListMine(w http.ResponseWriter, r *http.Request)
	Transfer(w http.ResponseWriter, r *http.Request)
}

type PromotionHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type EventHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Publish(w http.ResponseWriter, r *http.Request)
	AddOrganizer(w http.ResponseWriter, r *http.Request)
	AddGuest(w http.ResponseWriter, r *http.Request)
	RemoveGuest(w http.ResponseWriter, r *http.Request)
	Award(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	AuthHandler        AuthHandler
	UserHandler        UserHandler
	TransactionHandler TransactionHandler
	PromotionHandler   PromotionHandler
	EventHandler       EventHandler

	JWTService  auth.JWTServiceInterface
	CORSOrigins []string
}

func New(s *service.Services, jwtService auth.JWTServiceInterface, corsOrigins []string) *Handlers {
	return &Handlers{
		AuthHandler:        authhandlers.New(s.AuthService),
		UserHandler:        userhandlers.New(s.UserService),
		TransactionHandler: transactionhandlers.New(s.TransactionService),
		PromotionHandler:   promotionhandlers.New(s.PromotionService),
		EventHandler:       eventhandlers.New(s.EventService),
		JWTService:         jwtService,
		CORSOrigins:        corsOrigins,
	}
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		cors.Handler(cors.Options{
			AllowedOrigins:   h.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))

	cashier := auth.RequireRole(domain.RoleCashier)
	manager := auth.RequireRole(domain.RoleManager)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/tokens", h.AuthHandler.Login)
		r.Post("/resets", h.AuthHandler.RequestReset)
		r.Post("/resets/{resetToken}", h.AuthHandler.Reset)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware(h.JWTService))

		r.Route("/users", func(r chi.Router) {
			r.With(cashier).Post("/", h.UserHandler.Register)
			r.Get("/me", h.UserHandler.Me)
			r.Post("/me/transactions", h.TransactionHandler.CreateMine)
			r.Get("/me/transactions", h.TransactionHandler.ListMine)
			r.With(cashier).Get("/{utorid}", h.UserHandler.Get)
			r.With(manager).Patch("/{utorid}", h.UserHandler.Update)
			r.Post("/{userId}/transactions", h.TransactionHandler.Transfer)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.With(cashier).Post("/", h.TransactionHandler.Create)
			r.With(manager).Get("/", h.TransactionHandler.List)
			r.With(manager).Get("/{transactionId}", h.TransactionHandler.Get)
			r.With(manager).Patch("/{transactionId}/suspicious", h.TransactionHandler.SetSuspicious)
			r.With(cashier).Patch("/{transactionId}/processed", h.TransactionHandler.Process)
		})

		r.Route("/promotions", func(r chi.Router) {
			r.With(manager).Post("/", h.PromotionHandler.Create)
			r.Get("/", h.PromotionHandler.List)
			r.Get("/{promotionId}", h.PromotionHandler.Get)
			r.With(manager).Delete("/{promotionId}", h.PromotionHandler.Delete)
		})

		r.Route("/events", func(r chi.Router) {
			r.With(manager).Post("/", h.EventHandler.Create)
			r.Get("/{eventId}", h.EventHandler.Get)
			r.With(manager).Patch("/{eventId}/published", h.EventHandler.Publish)
			r.With(manager).Post("/{eventId}/organizers", h.EventHandler.AddOrganizer)
			r.Post("/{eventId}/guests", h.EventHandler.AddGuest)
			r.With(manager).Delete("/{eventId}/guests/{userId}", h.EventHandler.RemoveGuest)
			r.Post("/{eventId}/transactions", h.EventHandler.Award)
		})
	})

	return r
}
