package jwtadapter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"showingcover/contexts/identity-access/authorization-service/domain/entities"

	"github.com/golang-jwt/jwt/v5"
)

// HMACVerifier validates HS256 access tokens issued by the identity provider
// with the shared project secret.
type HMACVerifier struct {
	Secret   []byte
	Audience string
	Leeway   time.Duration
}

type identityClaims struct {
	Email        string `json:"email"`
	UserMetadata struct {
		Role string `json:"role"`
	} `json:"user_metadata"`
	jwt.RegisteredClaims
}

func NewHMACVerifier(secret string, audience string) (HMACVerifier, error) {
	if strings.TrimSpace(secret) == "" {
		return HMACVerifier{}, errors.New("jwt secret is required")
	}
	return HMACVerifier{
		Secret:   []byte(secret),
		Audience: strings.TrimSpace(audience),
		Leeway:   30 * time.Second,
	}, nil
}

func (v HMACVerifier) Verify(_ context.Context, token string) (entities.Identity, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.Leeway),
	}
	if v.Audience != "" {
		options = append(options, jwt.WithAudience(v.Audience))
	}

	claims := &identityClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.Secret, nil
	}, options...)
	if err != nil {
		return entities.Identity{}, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return entities.Identity{}, errors.New("token is not valid")
	}

	subject, err := claims.GetSubject()
	if err != nil || strings.TrimSpace(subject) == "" {
		return entities.Identity{}, errors.New("token subject is missing")
	}
	return entities.Identity{
		UserID:   subject,
		Email:    strings.TrimSpace(claims.Email),
		RoleHint: claims.UserMetadata.Role,
	}, nil
}

// Sign issues a token for local tooling and tests. Production tokens come
// from the identity provider.
func (v HMACVerifier) Sign(identity entities.Identity, expiresAt time.Time) (string, error) {
	claims := identityClaims{
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	claims.UserMetadata.Role = identity.RoleHint
	if v.Audience != "" {
		claims.Audience = jwt.ClaimStrings{v.Audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.Secret)
}
