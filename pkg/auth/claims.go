package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/opsdesk/reservations-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	Role     enums.Role
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to clients. Tenant and
// actor of every command come from here, never from the request body.
type AccessTokenClaims struct {
	TenantID uuid.UUID  `json:"tenant_id"`
	UserID   uuid.UUID  `json:"user_id"`
	Role     enums.Role `json:"role"`
	jwt.RegisteredClaims
}

// Actor is the identifier recorded on audit entries and events.
func (c *AccessTokenClaims) Actor() string {
	return "user:" + c.UserID.String()
}
