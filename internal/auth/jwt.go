// Package auth issues and checks member access tokens and hashes the short
// secrets (login PINs, post passwords) the club uses.
//
// LOGIN FLOW:
//  1. POST /api/login with phone + PIN
//  2. the member service verifies the PIN hash and asks TokenService for a JWT
//  3. the token is returned in the body and set as an HttpOnly "token" cookie
//  4. RequireAuth accepts either the cookie or an "Authorization: Bearer" header,
//     validates the JWT, and puts a Principal in the request context
//
// The token carries the member id (sub) and role, so permission checks need
// no database lookup.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/club-league/internal/model"
)

const (
	issuer     = "club-league"
	DefaultTTL = 24 * time.Hour
	minSecret  = 16
)

// Principal is the authenticated caller.
type Principal struct {
	MemberID string
	Role     model.Role
}

// TokenService signs and verifies HS256 access tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService returns a TokenService issuing tokens valid for ttl
// (DefaultTTL when ttl is zero).
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < minSecret {
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", minSecret)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL is how long issued tokens stay valid. Handlers use it for the cookie
// lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Generate issues a token for p.
func (s *TokenService) Generate(p Principal) (string, error) {
	return s.generate(p, s.ttl)
}

func (s *TokenService) generate(p Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		Role: p.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.MemberID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature, algorithm, issuer and expiry and returns the
// principal the token was issued for.
func (s *TokenService) Validate(tokenStr string) (Principal, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, fmt.Errorf("auth: token expired")
		}
		return Principal{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return Principal{}, fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return Principal{}, fmt.Errorf("auth: token has no subject")
	}

	role, err := model.ParseRole(c.Role)
	if err != nil {
		return Principal{}, fmt.Errorf("auth: %w", err)
	}
	return Principal{MemberID: c.Subject, Role: role}, nil
}
