package users

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/GlebRadaev/loyalty/internal/domain"
	"github.com/GlebRadaev/loyalty/internal/dto"
	"github.com/GlebRadaev/loyalty/internal/service/userservice"
	"github.com/GlebRadaev/loyalty/pkg/auth"
	"github.com/GlebRadaev/loyalty/pkg/utils"
	"github.com/go-chi/chi/v5"
)

//go:generate mockgen -source=users.go -destination=mock_users.go -package=users

type Service interface {
	Register(ctx context.Context, in userservice.RegisterInput) (*domain.User, error)
	Get(ctx context.Context, utorid string) (*domain.User, error)
	GetMe(ctx context.Context, id int) (*domain.User, error)
	Update(ctx context.Context, utorid string, in userservice.UpdateInput, actor domain.Principal) (*domain.User, error)
}

type UserHandler struct {
	userService Service
}

func New(userService Service) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// Register godoc
//
//	@Summary		Register a new user
//	@Description	Creates an unverified regular account and returns the token used to set its first password.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body	dto.RegisterUserRequestDTO	true	"New user"
//	@Security		BearerAuth
//	@Success		201	{object}	dto.RegisterUserResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid request body"
//	@Failure		409	{object}	utils.Response	"Utorid or email already registered"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/users [post]
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterUserRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	user, err := h.userService.Register(r.Context(), userservice.RegisterInput{
		Utorid: req.Utorid,
		Name:   req.Name,
		Email:  req.Email,
	})
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewRegisterUserResponse(user))
}

// Me godoc
//
//	@Summary	Get the caller's account
//	@Tags		Users
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	dto.UserResponseDTO
//	@Failure	401	{object}	utils.Response	"User not authorized"
//	@Failure	500	{object}	utils.Response	"Internal server error"
//	@Router		/users/me [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())
	user, err := h.userService.GetMe(r.Context(), principal.ID)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewUserResponse(user, true))
}

// Get godoc
//
//	@Summary		Get a user
//	@Description	Cashiers see the id, name, points and verification only.
//	@Tags			Users
//	@Produce		json
//	@Param			utorid	path	string	true	"User utorid"
//	@Security		BearerAuth
//	@Success		200	{object}	dto.UserResponseDTO
//	@Failure		404	{object}	utils.Response	"User not found"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/users/{utorid} [get]
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())
	user, err := h.userService.Get(r.Context(), chi.URLParam(r, "utorid"))
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewUserResponse(user, principal.Role.AtLeast(domain.RoleManager)))
}

// Update godoc
//
//	@Summary		Update a user
//	@Description	Managers may verify users, flag them suspicious and assign regular or cashier roles. Superusers may assign any role.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			utorid	path	string					true	"User utorid"
//	@Param			request	body	dto.UpdateUserRequestDTO	true	"Fields to change"
//	@Security		BearerAuth
//	@Success		200	{object}	dto.UserResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid request body"
//	@Failure		403	{object}	utils.Response	"Role cannot be assigned"
//	@Failure		404	{object}	utils.Response	"User not found"
//	@Failure		409	{object}	utils.Response	"Email already registered"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/users/{utorid} [patch]
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.PrincipalFrom(r.Context())

	var req dto.UpdateUserRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	in := userservice.UpdateInput{
		Email:      req.Email,
		Verified:   req.Verified,
		Suspicious: req.Suspicious,
	}
	if req.Role != nil {
		role, err := domain.ParseRole(*req.Role)
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		in.Role = &role
	}

	user, err := h.userService.Update(r.Context(), chi.URLParam(r, "utorid"), in, principal)
	if err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewUserResponse(user, true))
}
