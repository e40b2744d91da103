package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/GlebRadaev/loyalty/internal/dto"
	"github.com/GlebRadaev/loyalty/internal/service/authservice"
	"github.com/GlebRadaev/loyalty/pkg/utils"
	"github.com/go-chi/chi/v5"
)

//go:generate mockgen -source=auth.go -destination=mock_auth.go -package=auth

type Service interface {
	Login(ctx context.Context, utorid, password string) (string, time.Time, error)
	RequestReset(ctx context.Context, utorid, clientIP string) (string, time.Time, error)
	Reset(ctx context.Context, token, utorid, password string) error
}

type AuthHandler struct {
	authService Service
}

func New(authService Service) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Login godoc
//
//	@Summary		Authenticate user
//	@Description	Log in with utorid and password and get a JWT token
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.LoginRequestDTO	true	"Login request body"
//	@Success		200		{object}	dto.LoginResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		401		{object}	utils.Response	"Invalid credentials"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/auth/tokens [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequestDTO
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil || req.Utorid == "" || req.Password == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	token, expiresAt, err := h.authService.Login(r.Context(), req.Utorid, req.Password)
	if err != nil {
		if errors.Is(err, authservice.ErrInvalidCredentials) {
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		utils.RespondWithServiceError(w, err)
		return
	}
	w.Header().Set("Authorization", "Bearer "+token)
	utils.RespondWithJSON(w, http.StatusOK, dto.LoginResponseDTO{
		Token:     token,
		ExpiresAt: expiresAt,
	})
}

// RequestReset godoc
//
//	@Summary		Request a password reset
//	@Description	Issues a reset token. One request per client address per window.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.ResetRequestDTO	true	"Account"
//	@Success		202		{object}	dto.ResetResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		404		{object}	utils.Response	"User not found"
//	@Failure		429		{object}	utils.Response	"Too many requests"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/auth/resets [post]
func (h *AuthHandler) RequestReset(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetRequestDTO
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil || req.Utorid == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	token, expiresAt, err := h.authService.RequestReset(r.Context(), req.Utorid, clientIP(r))
	if err != nil {
		if errors.Is(err, authservice.ErrTooManyRequests) {
			utils.RespondWithError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		utils.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusAccepted, dto.ResetResponseDTO{
		ResetToken: token,
		ExpiresAt:  expiresAt,
	})
}

// Reset godoc
//
//	@Summary	Set a new password with a reset token
//	@Tags		Auth
//	@Accept		json
//	@Produce	json
//	@Param		resetToken	path	string						true	"Reset token"
//	@Param		request		body	dto.ResetPasswordRequestDTO	true	"Account and new password"
//	@Success	200
//	@Failure	400	{object}	utils.Response	"Invalid request body or weak password"
//	@Failure	403	{object}	utils.Response	"Token belongs to another user"
//	@Failure	404	{object}	utils.Response	"Token not found"
//	@Failure	410	{object}	utils.Response	"Token expired"
//	@Failure	500	{object}	utils.Response	"Internal server error"
//	@Router		/auth/resets/{resetToken} [post]
func (h *AuthHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequestDTO
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil || req.Utorid == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.authService.Reset(r.Context(), chi.URLParam(r, "resetToken"), req.Utorid, req.Password); err != nil {
		utils.RespondWithServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// clientIP strips the port. middleware.RealIP has already replaced
// RemoteAddr when the request came through a proxy.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
