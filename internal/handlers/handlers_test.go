package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GlebRadaev/loyalty/internal/handlers/auth"
	"github.com/GlebRadaev/loyalty/internal/handlers/events"
	"github.com/GlebRadaev/loyalty/internal/handlers/promotions"
	"github.com/GlebRadaev/loyalty/internal/handlers/transactions"
	"github.com/GlebRadaev/loyalty/internal/handlers/users"
	"github.com/GlebRadaev/loyalty/internal/service"
	pkgauth "github.com/GlebRadaev/loyalty/pkg/auth"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"
)

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	services := &service.Services{
		AuthService:        auth.NewMockService(ctrl),
		UserService:        users.NewMockService(ctrl),
		TransactionService: transactions.NewMockService(ctrl),
		PromotionService:   promotions.NewMockService(ctrl),
		EventService:       events.NewMockService(ctrl),
	}

	h := New(services, pkgauth.NewMockJWTServiceInterface(ctrl), []string{"http://localhost:5173"})
	assert.NotNil(t, h, "Handlers should not be nil")
	assert.NotNil(t, h.TransactionHandler)
	assert.NotNil(t, h.EventHandler)
}

func newRouter(t *testing.T) chi.Router {
	ctrl := gomock.NewController(t)

	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

	authHandler := NewMockAuthHandler(ctrl)
	authHandler.EXPECT().Login(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()
	authHandler.EXPECT().RequestReset(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()
	authHandler.EXPECT().Reset(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()

	userHandler := NewMockUserHandler(ctrl)
	userHandler.EXPECT().Register(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()
	userHandler.EXPECT().Me(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()
	userHandler.EXPECT().Get(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()
	userHandler.EXPECT().Update(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()

	transactionHandler := NewMockTransactionHandler(ctrl)
	transactionHandler.EXPECT().Create(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()
	transactionHandler.EXPECT().List(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()
	transactionHandler.EXPECT().Get(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()
	transactionHandler.EXPECT().SetSuspicious(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()
	transactionHandler.EXPECT().Process(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()
	transactionHandler.EXPECT().CreateMine(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()
	transactionHandler.EXPECT().ListMine(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()
	transactionHandler.EXPECT().Transfer(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()

	promotionHandler := NewMockPromotionHandler(ctrl)
	promotionHandler.EXPECT().Create(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()
	promotionHandler.EXPECT().List(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()
	promotionHandler.EXPECT().Get(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()
	promotionHandler.EXPECT().Delete(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()

	eventHandler := NewMockEventHandler(ctrl)
	eventHandler.EXPECT().Create(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()
	eventHandler.EXPECT().Get(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()
	eventHandler.EXPECT().Publish(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()
	eventHandler.EXPECT().AddOrganizer(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()
	eventHandler.EXPECT().AddGuest(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()
	eventHandler.EXPECT().RemoveGuest(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()
	eventHandler.EXPECT().Award(gomock.Any(), gomock.Any()).Do(ok).AnyTimes()

	jwtService := pkgauth.NewMockJWTServiceInterface(ctrl)
	for token, role := range map[string]string{"regular": "regular", "cashier": "cashier", "manager": "manager"} {
		jwtService.EXPECT().ValidateToken(token).Return(&pkgauth.Claims{UserID: 1, Utorid: role + "1", Role: role}, nil).AnyTimes()
	}
	jwtService.EXPECT().ValidateToken("forged").Return(nil, errors.New("signature is invalid")).AnyTimes()

	h := &Handlers{
		AuthHandler:        authHandler,
		UserHandler:        userHandler,
		TransactionHandler: transactionHandler,
		PromotionHandler:   promotionHandler,
		EventHandler:       eventHandler,
		JWTService:         jwtService,
	}

	router := chi.NewRouter()
	h.InitRoutes(router)
	return router
}

func TestInitRoutes(t *testing.T) {
	router := newRouter(t)

	tests := []struct {
		method string
		url    string
		token  string
		status int
	}{
		{"POST", "/auth/tokens", "", http.StatusOK},
		{"POST", "/auth/resets", "", http.StatusOK},
		{"POST", "/auth/resets/abc", "", http.StatusOK},

		{"GET", "/users/me", "", http.StatusUnauthorized},
		{"GET", "/users/me", "regular", http.StatusOK},
		{"POST", "/users", "regular", http.StatusForbidden},
		{"POST", "/users", "cashier", http.StatusOK},
		{"GET", "/users/smithj12", "regular", http.StatusForbidden},
		{"GET", "/users/smithj12", "cashier", http.StatusOK},
		{"PATCH", "/users/smithj12", "cashier", http.StatusForbidden},
		{"PATCH", "/users/smithj12", "manager", http.StatusOK},
		{"POST", "/users/me/transactions", "regular", http.StatusOK},
		{"GET", "/users/me/transactions", "regular", http.StatusOK},
		{"POST", "/users/2/transactions", "regular", http.StatusOK},

		{"POST", "/transactions", "regular", http.StatusForbidden},
		{"POST", "/transactions", "cashier", http.StatusOK},
		{"GET", "/transactions", "cashier", http.StatusForbidden},
		{"GET", "/transactions", "manager", http.StatusOK},
		{"GET", "/transactions/1", "manager", http.StatusOK},
		{"PATCH", "/transactions/1/suspicious", "cashier", http.StatusForbidden},
		{"PATCH", "/transactions/1/suspicious", "manager", http.StatusOK},
		{"PATCH", "/transactions/1/processed", "regular", http.StatusForbidden},
		{"PATCH", "/transactions/1/processed", "cashier", http.StatusOK},

		{"GET", "/promotions", "regular", http.StatusOK},
		{"GET", "/promotions/1", "regular", http.StatusOK},
		{"POST", "/promotions", "cashier", http.StatusForbidden},
		{"POST", "/promotions", "manager", http.StatusOK},
		{"DELETE", "/promotions/1", "manager", http.StatusOK},

		{"POST", "/events", "regular", http.StatusForbidden},
		{"POST", "/events", "manager", http.StatusOK},
		{"GET", "/events/1", "regular", http.StatusOK},
		{"PATCH", "/events/1/published", "manager", http.StatusOK},
		{"POST", "/events/1/organizers", "regular", http.StatusForbidden},
		{"POST", "/events/1/guests", "regular", http.StatusOK},
		{"DELETE", "/events/1/guests/2", "regular", http.StatusForbidden},
		{"DELETE", "/events/1/guests/2", "manager", http.StatusOK},
		{"POST", "/events/1/transactions", "regular", http.StatusOK},

		{"GET", "/transactions", "forged", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.url+" as "+tt.token, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.url, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
