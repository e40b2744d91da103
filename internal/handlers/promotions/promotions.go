package promotions

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"github.com/GlebRadaev/loyalty/internal/dto"
	"github.com/GlebRadaev/loyalty/internal/service/promotionservice"
	"github.com/GlebRadaev/loyalty/pkg/auth"
	"github.com/GlebRadaev/loyalty/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=promotions.go -destination=mock_promotions.go -package=promotions

type Service interface {
	Create(ctx context.Context, in promotionservice.CreateInput) (*domain.Promotion, error)
	Get(ctx context.Context, id int, principal domain.Principal) (*domain.Promotion, error)
	List(ctx context.Context, principal domain.Principal, filter domain.PromotionFilter) (*domain.Page[domain.Promotion], error)
	Delete(ctx context.Context, id int) error
}

type PromotionHandler struct {
	promotionService Service
}

func New(promotionService Service) *PromotionHandler {
	return &PromotionHandler{
		promotionService: promotionService,
	}
}

// Create godoc
//
//	@Summary	Create a promotion
//	@Tags		Promotions
//	@Accept		json
//	@Produce	json
//	@Param		request	body	dto.CreatePromotionRequestDTO	true	"Promotion"
//	@Security	BearerAuth
//	@Success	201	{object}	dto.PromotionResponseDTO
//	@Failure	400	{object}	utils.Response	"Invalid payload"
//	@Failure	403	{object}	utils.Response	"Role too low"
//	@Failure	500	{object}	utils.Response	"Internal server error"
//	@Router		/promotions [post]
func (h *PromotionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePromotionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	in := promotionservice.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		Type:        domain.PromotionType(req.Type),
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Rate:        req.Rate,
		Points:      req.Points,
	}
	if req.MinSpending != nil {
		in.MinSpending = decimal.NewNullDecimal(*req.MinSpending)
	}

	p, err := h.promotionService.Create(r.Context(), in)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewPromotionResponse(p, true))
}

// List godoc
//
//	@Summary		List promotions
//	@Description	Regular users and cashiers only see active promotions they can still use.
//	@Tags			Promotions
//	@Produce		json
//	@Param			name	query	string	false	"Name contains"
//	@Param			type	query	string	false	"automatic or one-time"
//	@Param			page	query	int		false	"Page, default 1"
//	@Param			limit	query	int		false	"Page size, default 10"
//	@Security		BearerAuth
//	@Success		200	{object}	dto.PromotionListResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid filter"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/promotions [get]
func (h *PromotionHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())
	q := r.URL.Query()

	filter := domain.PromotionFilter{
		Name:  q.Get("name"),
		Type:  domain.PromotionType(q.Get("type")),
		Page:  1,
		Limit: 10,
	}
	for key, dst := range map[string]*int{"page": &filter.Page, "limit": &filter.Limit} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "invalid query parameter")
			return
		}
		*dst = n
	}

	page, err := h.promotionService.List(r.Context(), principal, filter)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewPromotionList(page, principal.Role.AtLeast(domain.RoleManager)))
}

// Get godoc
//
//	@Summary	Get a promotion
//	@Tags		Promotions
//	@Produce	json
//	@Param		promotionId	path	int	true	"Promotion id"
//	@Security	BearerAuth
//	@Success	200	{object}	dto.PromotionResponseDTO
//	@Failure	404	{object}	utils.Response	"Promotion not found"
//	@Failure	500	{object}	utils.Response	"Internal server error"
//	@Router		/promotions/{promotionId} [get]
func (h *PromotionHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())
	id, err := strconv.Atoi(chi.URLParam(r, "promotionId"))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Promotion not found")
		return
	}
	p, err := h.promotionService.Get(r.Context(), id, principal)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewPromotionResponse(p, principal.Role.AtLeast(domain.RoleManager)))
}

// Delete godoc
//
//	@Summary	Delete a promotion that has not started
//	@Tags		Promotions
//	@Param		promotionId	path	int	true	"Promotion id"
//	@Security	BearerAuth
//	@Success	204
//	@Failure	403	{object}	utils.Response	"Promotion already started"
//	@Failure	404	{object}	utils.Response	"Promotion not found"
//	@Failure	500	{object}	utils.Response	"Internal server error"
//	@Router		/promotions/{promotionId} [delete]
func (h *PromotionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "promotionId"))
	if err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Promotion not found")
		return
	}
	if err := h.promotionService.Delete(r.Context(), id); err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
