package dto

import "time"

type LoginRequestDTO struct {
	Utorid   string `json:"utorid" example:"smithj12"`
	Password string `json:"password" example:"Secret1!"`
}

type LoginResponseDTO struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt" example:"2024-10-02T12:00:00Z"`
}

type ResetRequestDTO struct {
	Utorid string `json:"utorid" example:"smithj12"`
}

type ResetResponseDTO struct {
	ResetToken string    `json:"resetToken" example:"ad71d4e1-8614-46aa-b96f-cb894e346506"`
	ExpiresAt  time.Time `json:"expiresAt" example:"2024-10-01T13:00:00Z"`
}

type ResetPasswordRequestDTO struct {
	Utorid   string `json:"utorid" example:"smithj12"`
	Password string `json:"password" example:"Secret1!"`
}
