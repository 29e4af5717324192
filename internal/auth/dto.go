package auth

import (
	"github.com/aerotrack-io/aerotrack-backend/internal/users"
)

// LoginRequest is the credentials payload submitted to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the minted token and the authenticated user.
type LoginResponse struct {
	AccessToken string        `json:"accessToken"`
	User        users.UserDTO `json:"user"`
}
