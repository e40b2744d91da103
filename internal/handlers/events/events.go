package events

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"github.com/GlebRadaev/loyalty/internal/dto"
	"github.com/GlebRadaev/loyalty/internal/service/eventservice"
	"github.com/GlebRadaev/loyalty/internal/service/ledgerservice"
	"github.com/GlebRadaev/loyalty/pkg/auth"
	"github.com/GlebRadaev/loyalty/pkg/utils"
	"github.com/go-chi/chi/v5"
)

//go:generate mockgen -source=events.go -destination=mock_events.go -package=events

type Service interface {
	Create(ctx context.Context, in eventservice.CreateInput) (*domain.Event, error)
	Get(ctx context.Context, id int, principal domain.Principal) (*domain.Event, error)
	Publish(ctx context.Context, id int) (*domain.Event, error)
	AddOrganizer(ctx context.Context, eventID int, utorid string) (*domain.Event, error)
	AddGuest(ctx context.Context, eventID int, utorid string, actor domain.Principal) (*domain.Event, error)
	RemoveGuest(ctx context.Context, eventID, userID int) error
	Award(ctx context.Context, in ledgerservice.EventAwardInput) ([]domain.Transaction, error)
}

type EventHandler struct {
	eventService Service
}

func New(eventService Service) *EventHandler {
	return &EventHandler{
		eventService: eventService,
	}
}

func eventID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "eventId"))
	return id, err == nil && id > 0
}

// Create godoc
//
//	@Summary	Create an event
//	@Tags		Events
//	@Accept		json
//	@Produce	json
//	@Param		request	body	dto.CreateEventRequestDTO	true	"Event"
//	@Security	BearerAuth
//	@Success	201	{object}	dto.EventResponseDTO
//	@Failure	400	{object}	utils.Response	"Invalid payload"
//	@Failure	403	{object}	utils.Response	"Role too low"
//	@Failure	500	{object}	utils.Response	"Internal server error"
//	@Router		/events [post]
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEventRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	e, err := h.eventService.Create(r.Context(), eventservice.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Capacity:    req.Capacity,
		Points:      req.Points,
	})
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewEventResponse(e, true))
}

// Get godoc
//
//	@Summary		Get an event
//	@Description	Guests and other users do not see pointsAwarded or the guest list.
//	@Tags			Events
//	@Produce		json
//	@Param			eventId	path	int	true	"Event id"
//	@Security		BearerAuth
//	@Success		200	{object}	dto.EventResponseDTO
//	@Failure		404	{object}	utils.Response	"Event not found"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/events/{eventId} [get]
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())
	id, ok := eventID(r)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Event not found")
		return
	}
	e, err := h.eventService.Get(r.Context(), id, principal)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewEventResponse(e, eventservice.CanManage(e, principal)))
}

// Publish godoc
//
//	@Summary	Publish an event
//	@Tags		Events
//	@Accept		json
//	@Produce	json
//	@Param		eventId	path	int							true	"Event id"
//	@Param		request	body	dto.PublishEventRequestDTO	true	"Must be true"
//	@Security	BearerAuth
//	@Success	200	{object}	dto.EventResponseDTO
//	@Failure	400	{object}	utils.Response	"published must be true"
//	@Failure	404	{object}	utils.Response	"Event not found"
//	@Failure	500	{object}	utils.Response	"Internal server error"
//	@Router		/events/{eventId}/published [patch]
func (h *EventHandler) Publish(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(r)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Event not found")
		return
	}
	var req dto.PublishEventRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.Published {
		utils.RespondWithError(w, http.StatusBadRequest, "published must be true")
		return
	}
	e, err := h.eventService.Publish(r.Context(), id)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewEventResponse(e, true))
}

// AddOrganizer godoc
//
//	@Summary	Add an organizer to an event
//	@Tags		Events
//	@Accept		json
//	@Produce	json
//	@Param		eventId	path	int						true	"Event id"
//	@Param		request	body	dto.EventUserRequestDTO	true	"Organizer"
//	@Security	BearerAuth
//	@Success	201	{object}	dto.EventResponseDTO
//	@Failure	400	{object}	utils.Response	"User is a guest"
//	@Failure	404	{object}	utils.Response	"Event or user not found"
//	@Failure	410	{object}	utils.Response	"Event has ended"
//	@Failure	500	{object}	utils.Response	"Internal server error"
//	@Router		/events/{eventId}/organizers [post]
func (h *EventHandler) AddOrganizer(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(r)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Event not found")
		return
	}
	var req dto.EventUserRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Utorid == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	e, err := h.eventService.AddOrganizer(r.Context(), id, req.Utorid)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewEventResponse(e, true))
}

// AddGuest godoc
//
//	@Summary		Add a guest to an event
//	@Description	Managers and organizers add anyone. Other users may only add themselves to a published event.
//	@Tags			Events
//	@Accept			json
//	@Produce		json
//	@Param			eventId	path	int						true	"Event id"
//	@Param			request	body	dto.EventUserRequestDTO	true	"Guest"
//	@Security		BearerAuth
//	@Success		201	{object}	dto.EventResponseDTO
//	@Failure		400	{object}	utils.Response	"User is an organizer"
//	@Failure		403	{object}	utils.Response	"Cannot add other users"
//	@Failure		404	{object}	utils.Response	"Event or user not found"
//	@Failure		409	{object}	utils.Response	"Already a guest"
//	@Failure		410	{object}	utils.Response	"Event ended or full"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/events/{eventId}/guests [post]
func (h *EventHandler) AddGuest(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())
	id, ok := eventID(r)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Event not found")
		return
	}
	var req dto.EventUserRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Utorid == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	e, err := h.eventService.AddGuest(r.Context(), id, req.Utorid, principal)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewEventResponse(e, eventservice.CanManage(e, principal)))
}

// RemoveGuest godoc
//
//	@Summary	Remove a guest from an event
//	@Tags		Events
//	@Param		eventId	path	int	true	"Event id"
//	@Param		userId	path	int	true	"Guest id"
//	@Security	BearerAuth
//	@Success	204
//	@Failure	404	{object}	utils.Response	"Event or guest not found"
//	@Failure	500	{object}	utils.Response	"Internal server error"
//	@Router		/events/{eventId}/guests/{userId} [delete]
func (h *EventHandler) RemoveGuest(w http.ResponseWriter, r *http.Request) {
	id, ok := eventID(r)
	userID, err := strconv.Atoi(chi.URLParam(r, "userId"))
	if !ok || err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Event or guest not found")
		return
	}
	if err := h.eventService.RemoveGuest(r.Context(), id, userID); err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Award godoc
//
//	@Summary		Award event points
//	@Description	Awards one guest when utorid is set, otherwise every guest. The response is a list in the second case.
//	@Tags			Events
//	@Accept			json
//	@Produce		json
//	@Param			eventId	path	int							true	"Event id"
//	@Param			request	body	dto.EventAwardRequestDTO	true	"type must be event"
//	@Security		BearerAuth
//	@Success		201	{object}	dto.TransactionResponseDTO
//	@Failure		400	{object}	utils.Response	"Not a guest or not enough points left"
//	@Failure		403	{object}	utils.Response	"Not an organizer"
//	@Failure		404	{object}	utils.Response	"Event not found"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/events/{eventId}/transactions [post]
func (h *EventHandler) Award(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())
	id, ok := eventID(r)
	if !ok {
		utils.RespondWithError(w, http.StatusNotFound, "Event not found")
		return
	}
	var req dto.EventAwardRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || domain.TransactionType(req.Type) != domain.TransactionEvent {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	txs, err := h.eventService.Award(r.Context(), ledgerservice.EventAwardInput{
		EventID: id,
		Amount:  req.Amount,
		Utorid:  req.Utorid,
		Remark:  req.Remark,
		Actor:   principal,
	})
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}

	manager := principal.Role.AtLeast(domain.RoleManager)
	if req.Utorid != "" && len(txs) == 1 {
		utils.RespondWithJSON(w, http.StatusCreated, dto.NewTransactionResponse(&txs[0], manager))
		return
	}
	resp := make([]dto.TransactionResponseDTO, 0, len(txs))
	for i := range txs {
		resp = append(resp, dto.NewTransactionResponse(&txs[i], manager))
	}
	utils.RespondWithJSON(w, http.StatusCreated, resp)
}
