package dto

import (
	"time"

	"github.com/GlebRadaev/loyalty/internal/domain"
)

type RegisterUserRequestDTO struct {
	Utorid string `json:"utorid" example:"smithj12"`
	Name   string `json:"name" example:"John Smith"`
	Email  string `json:"email" example:"john.smith@mail.utoronto.ca"`
}

type RegisterUserResponseDTO struct {
	ID         int       `json:"id" example:"1"`
	Utorid     string    `json:"utorid" example:"smithj12"`
	Name       string    `json:"name" example:"John Smith"`
	Email      string    `json:"email" example:"john.smith@mail.utoronto.ca"`
	Verified   bool      `json:"verified" example:"false"`
	ExpiresAt  time.Time `json:"expiresAt"`
	ResetToken string    `json:"resetToken"`
}

type UpdateUserRequestDTO struct {
	Email      *string `json:"email,omitempty"`
	Verified   *bool   `json:"verified,omitempty"`
	Suspicious *bool   `json:"suspicious,omitempty"`
	Role       *string `json:"role,omitempty" example:"cashier"`
}

// UserResponseDTO carries every field for managers and the account owner.
// Cashiers get the trimmed view without email, role and flags.
type UserResponseDTO struct {
	ID         int          `json:"id" example:"1"`
	Utorid     string       `json:"utorid" example:"smithj12"`
	Name       string       `json:"name" example:"John Smith"`
	Email      string       `json:"email,omitempty"`
	Role       *domain.Role `json:"role,omitempty" swaggertype:"string" example:"regular"`
	Points     int          `json:"points" example:"400"`
	Verified   bool         `json:"verified"`
	Suspicious *bool        `json:"suspicious,omitempty"`
	CreatedAt  *time.Time   `json:"createdAt,omitempty"`
	LastLogin  *time.Time   `json:"lastLogin,omitempty"`
}

func NewRegisterUserResponse(u *domain.User) RegisterUserResponseDTO {
	resp := RegisterUserResponseDTO{
		ID:         u.ID,
		Utorid:     u.Utorid,
		Name:       u.Name,
		Email:      u.Email,
		Verified:   u.Verified,
		ResetToken: u.ResetToken,
	}
	if u.ResetExpiresAt != nil {
		resp.ExpiresAt = *u.ResetExpiresAt
	}
	return resp
}

func NewUserResponse(u *domain.User, full bool) UserResponseDTO {
	resp := UserResponseDTO{
		ID:       u.ID,
		Utorid:   u.Utorid,
		Name:     u.Name,
		Points:   u.Points,
		Verified: u.Verified,
	}
	if full {
		role, suspicious, createdAt := u.Role, u.Suspicious, u.CreatedAt
		resp.Email = u.Email
		resp.Role = &role
		resp.Suspicious = &suspicious
		resp.CreatedAt = &createdAt
		resp.LastLogin = u.LastLogin
	}
	return resp
}
