package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pixelplay/notify-api/internal/model"
)

// TokenVerifier validates a bearer credential issued by the platform's
// auth service and produces the identity it encodes. Credential issuance
// happens elsewhere; this subsystem only verifies.
type TokenVerifier interface {
	Verify(token string) (*model.Identity, error)
}

type jwtVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a TokenVerifier for HMAC-signed platform tokens.
func NewJWTVerifier(secret string) TokenVerifier {
	return &jwtVerifier{secret: []byte(secret)}
}

func (v *jwtVerifier) Verify(tokenString string) (*model.Identity, error) {
	if tokenString == "" {
		return nil, model.ErrMissingToken
	}

	claims := &model.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, model.ErrInvalidToken
	}

	identity, err := claims.Identity()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidToken, err)
	}

	return identity, nil
}
