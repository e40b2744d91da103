package promotions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"github.com/GlebRadaev/loyalty/internal/dto"
	"github.com/GlebRadaev/loyalty/internal/service/promotionservice"
	"github.com/GlebRadaev/loyalty/pkg/auth"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"
)

var (
	regular = domain.Principal{ID: 1, Utorid: "buyer001", Role: domain.RoleRegular}
	manager = domain.Principal{ID: 6, Utorid: "manager1", Role: domain.RoleManager}
)

func NewMock(t *testing.T) (*PromotionHandler, *MockService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	return New(service), service
}

func newRequest(method, target, body string, principal domain.Principal, id string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rctx := chi.NewRouteContext()
	if id != "" {
		rctx.URLParams.Add("promotionId", id)
	}
	ctx := context.WithValue(auth.WithPrincipal(req.Context(), principal), chi.RouteCtxKey, rctx)
	return req.WithContext(ctx)
}

func TestCreate(t *testing.T) {
	start := time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(30 * 24 * time.Hour)
	rate := 0.01

	tests := []struct {
		name         string
		body         string
		prepareMock  func(service *MockService)
		expectedCode int
	}{
		{
			name: "Created",
			body: `{"name":"Summer","type":"automatic","startTime":"2030-06-01T00:00:00Z","endTime":"2030-07-01T00:00:00Z","minSpending":50,"rate":0.01}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().Create(gomock.Any(), promotionservice.CreateInput{
					Name: "Summer", Type: domain.PromotionAutomatic, StartTime: start, EndTime: end,
					MinSpending: decimal.NewNullDecimal(decimal.NewFromInt(50)), Rate: &rate,
				}).Return(&domain.Promotion{ID: 3, Name: "Summer", Type: domain.PromotionAutomatic, StartTime: start, EndTime: end, Rate: &rate}, nil)
			},
			expectedCode: http.StatusCreated,
		},
		{
			name: "Window rejected",
			body: `{"name":"Summer","type":"automatic","startTime":"2030-07-01T00:00:00Z","endTime":"2030-06-01T00:00:00Z"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, promotionservice.ErrInvalidWindow)
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "Malformed body",
			body:         `{"startTime":"soon"}`,
			prepareMock:  func(*MockService) {},
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			tt.prepareMock(service)

			w := httptest.NewRecorder()
			handler.Create(w, newRequest(http.MethodPost, "/promotions", tt.body, manager, ""))
			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestList(t *testing.T) {
	t.Run("Regular user gets no start time", func(t *testing.T) {
		handler, service := NewMock(t)
		service.EXPECT().List(gomock.Any(), regular, domain.PromotionFilter{Type: domain.PromotionOneTime, Page: 2, Limit: 5}).
			Return(&domain.Page[domain.Promotion]{Count: 6, Results: []domain.Promotion{{ID: 3, Type: domain.PromotionOneTime}}}, nil)

		w := httptest.NewRecorder()
		handler.List(w, newRequest(http.MethodGet, "/promotions?type=one-time&page=2&limit=5", "", regular, ""))
		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.PromotionListResponseDTO
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 6, resp.Count)
		require.Len(t, resp.Results, 1)
		assert.Nil(t, resp.Results[0].StartTime)
	})

	t.Run("Bad page", func(t *testing.T) {
		handler, _ := NewMock(t)
		w := httptest.NewRecorder()
		handler.List(w, newRequest(http.MethodGet, "/promotions?page=x", "", regular, ""))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Service rejects filter", func(t *testing.T) {
		handler, service := NewMock(t)
		service.EXPECT().List(gomock.Any(), manager, gomock.Any()).Return(nil, promotionservice.ErrInvalidFilter)

		w := httptest.NewRecorder()
		handler.List(w, newRequest(http.MethodGet, "/promotions?limit=0", "", manager, ""))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGet(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	handler, service := NewMock(t)
	service.EXPECT().Get(gomock.Any(), 3, manager).Return(&domain.Promotion{ID: 3, StartTime: start}, nil)
	service.EXPECT().Get(gomock.Any(), 4, regular).Return(nil, promotionservice.ErrPromotionNotFound)

	w := httptest.NewRecorder()
	handler.Get(w, newRequest(http.MethodGet, "/promotions/3", "", manager, "3"))
	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.PromotionResponseDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.StartTime)
	assert.True(t, start.Equal(*resp.StartTime))

	w = httptest.NewRecorder()
	handler.Get(w, newRequest(http.MethodGet, "/promotions/4", "", regular, "4"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name         string
		id           string
		prepareMock  func(service *MockService)
		expectedCode int
	}{
		{
			name: "Deleted",
			id:   "3",
			prepareMock: func(service *MockService) {
				service.EXPECT().Delete(gomock.Any(), 3).Return(nil)
			},
			expectedCode: http.StatusNoContent,
		},
		{
			name: "Already started",
			id:   "3",
			prepareMock: func(service *MockService) {
				service.EXPECT().Delete(gomock.Any(), 3).Return(promotionservice.ErrAlreadyStarted)
			},
			expectedCode: http.StatusForbidden,
		},
		{
			name:         "Bad id",
			id:           "three",
			prepareMock:  func(*MockService) {},
			expectedCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			tt.prepareMock(service)

			w := httptest.NewRecorder()
			handler.Delete(w, newRequest(http.MethodDelete, "/promotions/"+tt.id, "", manager, tt.id))
			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}
