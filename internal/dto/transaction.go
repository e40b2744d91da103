package dto

import (
	"time"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequestDTO covers purchases and adjustments; type picks
// which fields are read.
type CreateTransactionRequestDTO struct {
	Utorid       string           `json:"utorid" example:"smithj12"`
	Type         string           `json:"type" example:"purchase"`
	Spent        *decimal.Decimal `json:"spent,omitempty" swaggertype:"number" example:"19.99"`
	Amount       *int             `json:"amount,omitempty" example:"-40"`
	RelatedID    *int             `json:"relatedId,omitempty" example:"12"`
	PromotionIDs []int            `json:"promotionIds,omitempty"`
	Remark       string           `json:"remark,omitempty"`
}

// UserTransactionRequestDTO is a transfer to another user or a redemption
// request for the caller.
type UserTransactionRequestDTO struct {
	Type   string `json:"type" example:"transfer"`
	Amount int    `json:"amount" example:"100"`
	Remark string `json:"remark,omitempty"`
}

type EventAwardRequestDTO struct {
	Type   string `json:"type" example:"event"`
	Utorid string `json:"utorid,omitempty" example:"smithj12"`
	Amount int    `json:"amount" example:"10"`
	Remark string `json:"remark,omitempty"`
}

type SuspiciousRequestDTO struct {
	Suspicious *bool `json:"suspicious"`
}

type ProcessedRequestDTO struct {
	Processed bool `json:"processed" example:"true"`
}

type TransactionResponseDTO struct {
	ID           int       `json:"id" example:"123"`
	Utorid       string    `json:"utorid" example:"smithj12"`
	Type         string    `json:"type" example:"purchase"`
	Amount       int       `json:"amount" example:"80"`
	Spent        *float64  `json:"spent,omitempty" example:"19.99"`
	Earned       *int      `json:"earned,omitempty" example:"80"`
	Redeemed     *int      `json:"redeemed,omitempty"`
	RelatedID    *int      `json:"relatedId,omitempty"`
	PromotionIDs []int     `json:"promotionIds"`
	Suspicious   *bool     `json:"suspicious,omitempty"`
	Remark       string    `json:"remark"`
	CreatedBy    string    `json:"createdBy" example:"cashier1"`
	CreatedAt    time.Time `json:"createdAt"`
}

type TransactionListResponseDTO struct {
	Count   int                      `json:"count" example:"21"`
	Results []TransactionResponseDTO `json:"results"`
}

// NewTransactionResponse shapes tx by type. Only managers see the
// suspicious flag.
func NewTransactionResponse(tx *domain.Transaction, manager bool) TransactionResponseDTO {
	resp := TransactionResponseDTO{
		ID:           tx.ID,
		Utorid:       tx.Utorid,
		Type:         string(tx.Type),
		Amount:       tx.Amount,
		RelatedID:    domain.RelatedIDOf(tx.Related),
		PromotionIDs: tx.PromotionIDs,
		Remark:       tx.Remark,
		CreatedBy:    tx.CreatedBy,
		CreatedAt:    tx.CreatedAt,
	}
	if resp.PromotionIDs == nil {
		resp.PromotionIDs = []int{}
	}
	switch tx.Type {
	case domain.TransactionPurchase:
		if tx.Spent.Valid {
			spent := tx.Spent.Decimal.InexactFloat64()
			resp.Spent = &spent
		}
	case domain.TransactionRedemption:
		redeemed := tx.Redeemed()
		resp.Redeemed = &redeemed
	}
	if manager {
		suspicious := tx.Suspicious
		resp.Suspicious = &suspicious
	}
	return resp
}

func NewTransactionList(page *domain.Page[domain.Transaction], manager bool) TransactionListResponseDTO {
	resp := TransactionListResponseDTO{Count: page.Count, Results: make([]TransactionResponseDTO, 0, len(page.Results))}
	for i := range page.Results {
		resp.Results = append(resp.Results, NewTransactionResponse(&page.Results[i], manager))
	}
	return resp
}
