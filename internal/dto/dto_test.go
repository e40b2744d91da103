package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransactionResponse(t *testing.T) {
	tests := []struct {
		name     string
		tx       domain.Transaction
		manager  bool
		expected string
	}{
		{
			name: "Purchase exposes spent",
			tx: domain.Transaction{
				ID: 1, Type: domain.TransactionPurchase, Utorid: "buyer001", Amount: 705,
				Spent: decimal.NewNullDecimal(decimal.RequireFromString("50.00")), PromotionIDs: []int{1}, CreatedBy: "cashier1",
			},
			expected: `{"id":1,"utorid":"buyer001","type":"purchase","amount":705,"spent":50,"promotionIds":[1],` +
				`"remark":"","createdBy":"cashier1","createdAt":"0001-01-01T00:00:00Z"}`,
		},
		{
			name:    "Pending redemption for manager",
			tx:      domain.Transaction{ID: 2, Type: domain.TransactionRedemption, Utorid: "buyer001", Amount: 100, CreatedBy: "buyer001"},
			manager: true,
			expected: `{"id":2,"utorid":"buyer001","type":"redemption","amount":100,"redeemed":100,"promotionIds":[],` +
				`"suspicious":false,"remark":"","createdBy":"buyer001","createdAt":"0001-01-01T00:00:00Z"}`,
		},
		{
			name: "Processed redemption exposes the cashier",
			tx: domain.Transaction{
				ID: 2, Type: domain.TransactionRedemption, Utorid: "buyer001", Amount: 100,
				Related: domain.ProcessedBy{CashierID: 4}, CreatedBy: "buyer001",
			},
			expected: `{"id":2,"utorid":"buyer001","type":"redemption","amount":100,"redeemed":100,"relatedId":4,"promotionIds":[],` +
				`"remark":"","createdBy":"buyer001","createdAt":"0001-01-01T00:00:00Z"}`,
		},
		{
			name: "Transfer exposes the counterparty",
			tx: domain.Transaction{
				ID: 3, Type: domain.TransactionTransfer, Utorid: "buyer001", Amount: -30,
				Related: domain.Counterparty{UserID: 2}, Remark: "lunch", CreatedBy: "buyer001",
			},
			expected: `{"id":3,"utorid":"buyer001","type":"transfer","amount":-30,"relatedId":2,"promotionIds":[],` +
				`"remark":"lunch","createdBy":"buyer001","createdAt":"0001-01-01T00:00:00Z"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := json.Marshal(NewTransactionResponse(&tt.tx, tt.manager))
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(body))
		})
	}
}

func TestNewPromotionResponse(t *testing.T) {
	start := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	p := &domain.Promotion{
		ID: 1, Name: "Fall", Type: domain.PromotionAutomatic, StartTime: start, EndTime: start.Add(time.Hour),
		MinSpending: decimal.NewNullDecimal(decimal.NewFromInt(20)),
	}

	regular := NewPromotionResponse(p, false)
	assert.Nil(t, regular.StartTime)
	assert.Equal(t, 20.0, *regular.MinSpending)

	manager := NewPromotionResponse(p, true)
	assert.Equal(t, start, *manager.StartTime)
}

func TestNewEventResponse(t *testing.T) {
	e := &domain.Event{ID: 1, PointsAllocated: 100, PointsAwarded: 40, Organizers: []int{2}, Guests: []int{1, 3}}

	limited := NewEventResponse(e, false)
	assert.Equal(t, 60, limited.PointsRemain)
	assert.Nil(t, limited.PointsAwarded)
	assert.Nil(t, limited.Guests)
	assert.Equal(t, 2, limited.NumGuests)

	full := NewEventResponse(e, true)
	assert.Equal(t, 40, *full.PointsAwarded)
	assert.Equal(t, []int{1, 3}, full.Guests)
}

func TestNewUserResponse(t *testing.T) {
	u := &domain.User{ID: 1, Utorid: "buyer001", Email: "b@mail.utoronto.ca", Role: domain.RoleCashier, Points: 10}

	body, err := json.Marshal(NewUserResponse(u, false))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"utorid":"buyer001","name":"","points":10,"verified":false}`, string(body))

	full := NewUserResponse(u, true)
	assert.Equal(t, domain.RoleCashier, *full.Role)
	assert.Equal(t, "b@mail.utoronto.ca", full.Email)
}
