package transactions

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"github.com/GlebRadaev/loyalty/internal/dto"
	"github.com/GlebRadaev/loyalty/internal/service/ledgerservice"
	"github.com/GlebRadaev/loyalty/pkg/auth"
	"github.com/GlebRadaev/loyalty/pkg/utils"
	"github.com/go-chi/chi/v5"
)

//go:generate mockgen -source=transactions.go -destination=mock_transactions.go -package=transactions

type Service interface {
	CreatePurchase(ctx context.Context, in ledgerservice.PurchaseInput) (*domain.Transaction, error)
	CreateAdjustment(ctx context.Context, in ledgerservice.AdjustmentInput) (*domain.Transaction, error)
	CreateTransfer(ctx context.Context, in ledgerservice.TransferInput) (*domain.Transaction, error)
	CreateRedemption(ctx context.Context, utorid string, amount int, remark string) (*domain.Transaction, error)
	ProcessRedemption(ctx context.Context, transactionID int, cashierUtorid string) (*domain.Transaction, error)
	SetSuspicious(ctx context.Context, transactionID int, suspicious bool) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, id int) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) (*domain.Page[domain.Transaction], error)
	ListUserTransactions(ctx context.Context, utorid string, filter domain.TransactionFilter) (*domain.Page[domain.Transaction], error)
}

type TransactionHandler struct {
	ledgerService Service
}

func New(ledgerService Service) *TransactionHandler {
	return &TransactionHandler{
		ledgerService: ledgerService,
	}
}

func pathID(r *http.Request, key string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, key))
	return id, err == nil && id > 0
}

// Create godoc
//
//	@Summary		Create a purchase or an adjustment
//	@Description	Cashiers record purchases; managers record adjustments against an earlier transaction.
//	@Tags			Transactions
//	@Accept			json
//	@Produce		json
//	@Param			request	body	dto.CreateTransactionRequestDTO	true	"Transaction"
//	@Security		BearerAuth
//	@Success		201	{object}	dto.TransactionResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid payload or business rule violated"
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		403	{object}	utils.Response	"Role too low"
//	@Failure		404	{object}	utils.Response	"User or related transaction not found"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/transactions [post]
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())

	var req dto.CreateTransactionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Utorid == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	switch domain.TransactionType(req.Type) {
	case domain.TransactionPurchase:
		if req.Spent == nil {
			utils.RespondWithError(w, http.StatusBadRequest, "spent is required")
			return
		}
		tx, err := h.ledgerService.CreatePurchase(r.Context(), ledgerservice.PurchaseInput{
			Utorid:       req.Utorid,
			Spent:        *req.Spent,
			PromotionIDs: req.PromotionIDs,
			Remark:       req.Remark,
			CreatedBy:    principal.Utorid,
		})
		if err != nil {
			utils.RespondWithServiceError(w, err)
			return
		}
		resp := dto.NewTransactionResponse(tx, principal.Role.AtLeast(domain.RoleManager))
		earned := tx.Credited()
		resp.Earned = &earned
		utils.RespondWithJSON(w, http.StatusCreated, resp)

	case domain.TransactionAdjustment:
		if !principal.Role.AtLeast(domain.RoleManager) {
			utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
			return
		}
		if req.Amount == nil || req.RelatedID == nil {
			utils.RespondWithError(w, http.StatusBadRequest, "amount and relatedId are required")
			return
		}
		tx, err := h.ledgerService.CreateAdjustment(r.Context(), ledgerservice.AdjustmentInput{
			Utorid:       req.Utorid,
			Amount:       *req.Amount,
			RelatedID:    *req.RelatedID,
			PromotionIDs: req.PromotionIDs,
			Remark:       req.Remark,
			CreatedBy:    principal.Utorid,
		})
		if err != nil {
			utils.RespondWithServiceError(w, err)
			return
		}
		utils.RespondWithJSON(w, http.StatusCreated, dto.NewTransactionResponse(tx, true))

	default:
		utils.RespondWithError(w, http.StatusBadRequest, "type must be purchase or adjustment")
	}
}

// List godoc
//
//	@Summary		List all transactions
//	@Description	Amount filters match transfers of either direction.
//	@Tags			Transactions
//	@Produce		json
//	@Param			name		query	string	false	"Owner utorid or name"
//	@Param			createdBy	query	string	false	"Creator utorid"
//	@Param			suspicious	query	bool	false	"Suspicious flag"
//	@Param			promotionId	query	int		false	"Applied promotion"
//	@Param			type		query	string	false	"Transaction type"
//	@Param			relatedId	query	int		false	"Related id, requires type"
//	@Param			amount		query	int		false	"Amount bound, requires operator"
//	@Param			operator	query	string	false	"gte or lte"
//	@Param			sort		query	[]string	false	"field[:asc|desc]"	collectionFormat(multi)
//	@Param			page		query	int		false	"Page, default 1"
//	@Param			limit		query	int		false	"Page size, default 10"
//	@Security		BearerAuth
//	@Success		200	{object}	dto.TransactionListResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid filter"
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		403	{object}	utils.Response	"Role too low"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/transactions [get]
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := h.ledgerService.ListTransactions(r.Context(), filter)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewTransactionList(page, true))
}

// Get godoc
//
//	@Summary		Get a transaction
//	@Tags			Transactions
//	@Produce		json
//	@Param			transactionId	path	int	true	"Transaction id"
//	@Security		BearerAuth
//	@Success		200	{object}	dto.TransactionResponseDTO
//	@Failure		404	{object}	utils.Response	"Transaction not found"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/transactions/{transactionId} [get]
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "transactionId")
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Transaction not found")
		return
	}
	tx, err := h.ledgerService.GetTransaction(r.Context(), id)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewTransactionResponse(tx, true))
}

// SetSuspicious godoc
//
//	@Summary		Flag or clear a transaction as suspicious
//	@Description	Flagging takes the transaction's points back from its owner; clearing returns them.
//	@Tags			Transactions
//	@Accept			json
//	@Produce		json
//	@Param			transactionId	path	int							true	"Transaction id"
//	@Param			request			body	dto.SuspiciousRequestDTO	true	"New flag"
//	@Security		BearerAuth
//	@Success		200	{object}	dto.TransactionResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid payload or balance would go negative"
//	@Failure		404	{object}	utils.Response	"Transaction not found"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/transactions/{transactionId}/suspicious [patch]
func (h *TransactionHandler) SetSuspicious(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "transactionId")
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Transaction not found")
		return
	}
	var req dto.SuspiciousRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Suspicious == nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	tx, err := h.ledgerService.SetSuspicious(r.Context(), id, *req.Suspicious)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewTransactionResponse(tx, true))
}

// Process godoc
//
//	@Summary		Process a redemption
//	@Description	Marks a pending redemption processed by the calling cashier and debits its owner.
//	@Tags			Transactions
//	@Accept			json
//	@Produce		json
//	@Param			transactionId	path	int						true	"Transaction id"
//	@Param			request			body	dto.ProcessedRequestDTO	true	"Must be true"
//	@Security		BearerAuth
//	@Success		200	{object}	dto.TransactionResponseDTO
//	@Failure		400	{object}	utils.Response	"Not a redemption or already processed"
//	@Failure		404	{object}	utils.Response	"Transaction not found"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/transactions/{transactionId}/processed [patch]
func (h *TransactionHandler) Process(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())
	id, ok := pathID(r, "transactionId")
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Transaction not found")
		return
	}
	var req dto.ProcessedRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Processed {
		utils.RespondWithError(w, http.StatusBadRequest, "processed must be true")
		return
	}
	tx, err := h.ledgerService.ProcessRedemption(r.Context(), id, principal.Utorid)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewTransactionResponse(tx, principal.Role.AtLeast(domain.RoleManager)))
}

// CreateMine godoc
//
//	@Summary		Request a redemption
//	@Description	Files a pending redemption for the caller. Points are debited once a cashier processes it.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body	dto.UserTransactionRequestDTO	true	"type must be redemption"
//	@Security		BearerAuth
//	@Success		201	{object}	dto.TransactionResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid payload or insufficient points"
//	@Failure		403	{object}	utils.Response	"User not verified"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/users/me/transactions [post]
func (h *TransactionHandler) CreateMine(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())

	var req dto.UserTransactionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || domain.TransactionType(req.Type) != domain.TransactionRedemption {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	tx, err := h.ledgerService.CreateRedemption(r.Context(), principal.Utorid, req.Amount, req.Remark)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewTransactionResponse(tx, false))
}

// ListMine godoc
//
//	@Summary		List the caller's transactions
//	@Tags			Users
//	@Produce		json
//	@Param			type		query	string	false	"Transaction type"
//	@Param			relatedId	query	int		false	"Related id, requires type"
//	@Param			promotionId	query	int		false	"Applied promotion"
//	@Param			amount		query	int		false	"Amount bound, requires operator"
//	@Param			operator	query	string	false	"gte or lte"
//	@Param			page		query	int		false	"Page, default 1"
//	@Param			limit		query	int		false	"Page size, default 10"
//	@Security		BearerAuth
//	@Success		200	{object}	dto.TransactionListResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid filter"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/users/me/transactions [get]
func (h *TransactionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())

	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := h.ledgerService.ListUserTransactions(r.Context(), principal.Utorid, filter)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewTransactionList(page, false))
}

// Transfer godoc
//
//	@Summary		Transfer points to another user
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			userId	path	int								true	"Recipient id"
//	@Param			request	body	dto.UserTransactionRequestDTO	true	"type must be transfer"
//	@Security		BearerAuth
//	@Success		201	{object}	dto.TransactionResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid payload or insufficient points"
//	@Failure		403	{object}	utils.Response	"Sender not verified"
//	@Failure		404	{object}	utils.Response	"Recipient not found"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/users/{userId}/transactions [post]
func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())
	recipientID, ok := pathID(r, "userId")
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "User not found")
		return
	}

	var req dto.UserTransactionRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || domain.TransactionType(req.Type) != domain.TransactionTransfer {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	tx, err := h.ledgerService.CreateTransfer(r.Context(), ledgerservice.TransferInput{
		Sender:      principal.Utorid,
		RecipientID: recipientID,
		Amount:      req.Amount,
		Remark:      req.Remark,
	})
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewTransactionResponse(tx, false))
}
