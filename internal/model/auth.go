package model

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Auth errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingToken = errors.New("missing token")
)

// Identity is the authenticated principal attached to a live session.
type Identity struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
	Role   string    `json:"role"`
}

// IsAdmin reports whether the principal holds the admin role.
func (i *Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// TokenClaims represents JWT claims issued by the platform's auth service
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// Identity converts validated claims into an Identity.
func (c *TokenClaims) Identity() (*Identity, error) {
	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return nil, errors.New("invalid user ID in token")
	}

	role := c.Role
	if role != RoleAdmin {
		role = RoleUser
	}

	return &Identity{
		UserID: userID,
		Email:  c.Email,
		Name:   c.Name,
		Role:   role,
	}, nil
}
