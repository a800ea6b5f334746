package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"lms-personalization/internal/domain"
	"lms-personalization/internal/domain/ports/adapter"
)

var _ adapter.TokenVerifier = (*JWTVerifier)(nil)

// JWTVerifier validates HS256 tokens issued by the LMS and maps them to the
// learner identity embedded in the claims.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

type learnerClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (v *JWTVerifier) Verify(ctx context.Context, token string) (adapter.Identity, error) {
	if token == "" {
		return adapter.Identity{}, domain.ErrUnauthorized
	}
	claims := &learnerClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !tkn.Valid {
		return adapter.Identity{}, domain.ErrUnauthorized
	}
	if claims.Subject == "" {
		return adapter.Identity{}, domain.ErrUnauthorized
	}
	return adapter.Identity{
		UserID: claims.Subject,
		Name:   claims.Name,
		Email:  claims.Email,
	}, nil
}
