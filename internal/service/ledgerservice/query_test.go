package ledgerservice

import (
	"context"
	"errors"
	"testing"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"github.com/GlebRadaev/loyalty/internal/pg"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"
)

type queryMocks struct {
	transactions *MockTransactionRepo
}

func newQueryService(t *testing.T) (*Service, queryMocks) {
	ctrl := gomock.NewController(t)
	m := queryMocks{transactions: NewMockTransactionRepo(ctrl)}
	service := New(pg.NewMockTXManager(ctrl), NewMockUserRepo(ctrl), m.transactions, NewMockPromotionRepo(ctrl), NewMockEventRepo(ctrl))
	return service, m
}

func TestGetTransaction(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(m queryMocks)
		expected    *domain.Transaction
		expectedErr error
	}{
		{
			name: "Found",
			setup: func(m queryMocks) {
				m.transactions.EXPECT().FindByID(gomock.Any(), 7).Return(&domain.Transaction{ID: 7, Amount: 400}, nil)
			},
			expected: &domain.Transaction{ID: 7, Amount: 400},
		},
		{
			name: "Missing",
			setup: func(m queryMocks) {
				m.transactions.EXPECT().FindByID(gomock.Any(), 7).Return(nil, nil)
			},
			expectedErr: ErrTransactionNotFound,
		},
		{
			name: "Store failure",
			setup: func(m queryMocks) {
				m.transactions.EXPECT().FindByID(gomock.Any(), 7).Return(nil, errors.New("db error"))
			},
			expectedErr: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, m := newQueryService(t)
			tt.setup(m)

			tx, err := service.GetTransaction(context.Background(), 7)
			if tt.expectedErr != nil {
				assert.EqualError(t, err, tt.expectedErr.Error())
				assert.Nil(t, tx)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, tx)
		})
	}
}

func TestListTransactions(t *testing.T) {
	amount := 30
	in := domain.TransactionFilter{Owner: "ignored", Amount: &amount, Operator: domain.AmountGTE, Page: 2, Limit: 5}
	expected := domain.TransactionFilter{
		Amount: &amount, Operator: domain.AmountGTE, Symmetric: true,
		Sort: []domain.SortOrder{{Field: domain.SortByID, Desc: true}},
		Page: 2, Limit: 5,
	}

	service, m := newQueryService(t)
	m.transactions.EXPECT().Count(gomock.Any(), expected).Return(12, nil)
	m.transactions.EXPECT().List(gomock.Any(), expected).Return([]domain.Transaction{{ID: 6}, {ID: 5}}, nil)

	page, err := service.ListTransactions(context.Background(), in)
	assert.NoError(t, err)
	assert.Equal(t, 12, page.Count)
	assert.Len(t, page.Results, 2)
}

func TestListUserTransactions(t *testing.T) {
	in := domain.TransactionFilter{Type: domain.TransactionTransfer, Symmetric: true, Page: 1, Limit: 10}
	expected := domain.TransactionFilter{
		Owner: "buyer001", Type: domain.TransactionTransfer,
		Sort: []domain.SortOrder{{Field: domain.SortByCreatedAt, Desc: true}},
		Page: 1, Limit: 10,
	}

	service, m := newQueryService(t)
	m.transactions.EXPECT().Count(gomock.Any(), expected).Return(0, nil)
	m.transactions.EXPECT().List(gomock.Any(), expected).Return(nil, nil)

	page, err := service.ListUserTransactions(context.Background(), "buyer001", in)
	assert.NoError(t, err)
	assert.Zero(t, page.Count)
	assert.Empty(t, page.Results)
}

func TestListTransactions_StoreFailure(t *testing.T) {
	service, m := newQueryService(t)
	m.transactions.EXPECT().Count(gomock.Any(), gomock.Any()).Return(0, errors.New("db error"))
	m.transactions.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, nil).MaxTimes(1)

	page, err := service.ListTransactions(context.Background(), domain.TransactionFilter{Page: 1, Limit: 10})
	assert.EqualError(t, err, "db error")
	assert.Nil(t, page)
}

func TestValidateFilter(t *testing.T) {
	amount, related := 10, 3
	tests := []struct {
		name    string
		filter  domain.TransactionFilter
		wantErr bool
	}{
		{name: "Defaults", filter: domain.TransactionFilter{Page: 1, Limit: 10}},
		{name: "Zero page", filter: domain.TransactionFilter{Page: 0, Limit: 10}, wantErr: true},
		{name: "Zero limit", filter: domain.TransactionFilter{Page: 1, Limit: 0}, wantErr: true},
		{
			name:    "Related id without type",
			filter:  domain.TransactionFilter{RelatedID: &related, Page: 1, Limit: 10},
			wantErr: true,
		},
		{
			name:   "Related id with type",
			filter: domain.TransactionFilter{RelatedID: &related, Type: domain.TransactionEvent, Page: 1, Limit: 10},
		},
		{
			name:    "Amount without operator",
			filter:  domain.TransactionFilter{Amount: &amount, Page: 1, Limit: 10},
			wantErr: true,
		},
		{
			name:    "Operator without amount",
			filter:  domain.TransactionFilter{Operator: domain.AmountLTE, Page: 1, Limit: 10},
			wantErr: true,
		},
		{
			name:    "Unknown operator",
			filter:  domain.TransactionFilter{Amount: &amount, Operator: "eq", Page: 1, Limit: 10},
			wantErr: true,
		},
		{
			name:    "Unknown sort field",
			filter:  domain.TransactionFilter{Sort: []domain.SortOrder{{Field: "remark"}}, Page: 1, Limit: 10},
			wantErr: true,
		},
		{
			name: "Several sort pairs",
			filter: domain.TransactionFilter{
				Sort: []domain.SortOrder{{Field: domain.SortByAmount, Desc: true}, {Field: domain.SortByType}},
				Page: 1, Limit: 10,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFilter(tt.filter)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFilter)
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			assert.NoError(t, err)
		})
	}
}
