package dto

import (
	"time"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"github.com/shopspring/decimal"
)

type CreatePromotionRequestDTO struct {
	Name        string           `json:"name" example:"Start of Summer Celebration"`
	Description string           `json:"description"`
	Type        string           `json:"type" example:"automatic"`
	StartTime   time.Time        `json:"startTime"`
	EndTime     time.Time        `json:"endTime"`
	MinSpending *decimal.Decimal `json:"minSpending,omitempty" swaggertype:"number" example:"50"`
	Rate        *float64         `json:"rate,omitempty" example:"0.01"`
	Points      *int             `json:"points,omitempty" example:"0"`
}

// PromotionResponseDTO omits startTime for non-managers.
type PromotionResponseDTO struct {
	ID          int        `json:"id" example:"3"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Type        string     `json:"type" example:"one-time"`
	StartTime   *time.Time `json:"startTime,omitempty"`
	EndTime     time.Time  `json:"endTime"`
	MinSpending *float64   `json:"minSpending"`
	Rate        *float64   `json:"rate"`
	Points      *int       `json:"points"`
}

type PromotionListResponseDTO struct {
	Count   int                    `json:"count"`
	Results []PromotionResponseDTO `json:"results"`
}

func NewPromotionResponse(p *domain.Promotion, manager bool) PromotionResponseDTO {
	resp := PromotionResponseDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Type:        string(p.Type),
		EndTime:     p.EndTime,
		Rate:        p.Rate,
		Points:      p.Points,
	}
	if p.MinSpending.Valid {
		minSpending := p.MinSpending.Decimal.InexactFloat64()
		resp.MinSpending = &minSpending
	}
	if manager {
		start := p.StartTime
		resp.StartTime = &start
	}
	return resp
}

func NewPromotionList(page *domain.Page[domain.Promotion], manager bool) PromotionListResponseDTO {
	resp := PromotionListResponseDTO{Count: page.Count, Results: make([]PromotionResponseDTO, 0, len(page.Results))}
	for i := range page.Results {
		resp.Results = append(resp.Results, NewPromotionResponse(&page.Results[i], manager))
	}
	return resp
}
