package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/aerotrack-io/aerotrack-backend/pkg/db/models"
	"github.com/aerotrack-io/aerotrack-backend/pkg/enums"
)

// UserDTO is the client-facing shape of a user.
type UserDTO struct {
	ID           uuid.UUID      `json:"id"`
	Email        string         `json:"email"`
	Name         string         `json:"name"`
	Role         enums.UserRole `json:"role"`
	CustomerName *string        `json:"customerName,omitempty"`
	LastLoginAt  *time.Time     `json:"lastLoginAt,omitempty"`
}

// FromModel maps a persisted user onto its client-facing shape.
func FromModel(user *models.User) UserDTO {
	if user == nil {
		return UserDTO{}
	}
	return UserDTO{
		ID:           user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Role:         user.Role,
		CustomerName: user.CustomerName,
		LastLoginAt:  user.LastLoginAt,
	}
}
