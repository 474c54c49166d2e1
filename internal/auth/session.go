// Package auth issues session tokens and talks to the external identity
// provider.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/barklazza/projeto-vendas/types"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidSession is returned for a token that fails verification.
var ErrInvalidSession = errors.New("invalid session")

// Claims is the session token payload. The subject is the open id.
type Claims struct {
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	LoginMethod string `json:"login_method,omitempty"`
	jwt.RegisteredClaims
}

// Sessions signs and verifies HS256 session tokens.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessions(secret string, ttl time.Duration) *Sessions {
	return &Sessions{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for the identity.
func (s *Sessions) Issue(identity types.Identity) (string, error) {
	if strings.TrimSpace(identity.OpenID) == "" {
		return "", errors.New("missing open id")
	}
	now := s.now()
	claims := Claims{
		Name:        deref(identity.Name),
		Email:       deref(identity.Email),
		LoginMethod: deref(identity.LoginMethod),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.OpenID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse verifies a token and returns the identity it carries.
func (s *Sessions) Parse(tokenString string) (types.Identity, error) {
	claims := Claims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return types.Identity{}, errors.Join(ErrInvalidSession, err)
	}
	if !token.Valid || strings.TrimSpace(claims.Subject) == "" {
		return types.Identity{}, ErrInvalidSession
	}

	return types.Identity{
		OpenID:      claims.Subject,
		Name:        optional(claims.Name),
		Email:       optional(claims.Email),
		LoginMethod: optional(claims.LoginMethod),
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
