package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/aerotrack-io/aerotrack-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID       uuid.UUID
	Email        string
	Role         enums.UserRole
	CustomerName *string
	JTI          string
}

// AccessTokenClaims represents the typed JWT issued to clients. Customer
// accounts carry the customer name their reads are scoped to.
type AccessTokenClaims struct {
	UserID       uuid.UUID      `json:"user_id"`
	Email        string         `json:"email"`
	Role         enums.UserRole `json:"role"`
	CustomerName *string        `json:"customer_name,omitempty"`
	jwt.RegisteredClaims
}
