package kbclient

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type tokenKey struct{}

// WithToken returns a context carrying the caller's bearer token. Requests
// made with that context forward it instead of the client's own credentials.
func WithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the forwarded bearer token, if any.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok && token != ""
}

// TokenSource supplies the client's own bearer token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed API token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// ServiceTokenSource mints short-lived HS256 tokens identifying the dashboard.
type ServiceTokenSource struct {
	Secret  []byte
	Issuer  string
	Subject string
	TTL     time.Duration

	now func() time.Time
}

// NewServiceTokenSource creates a minting token source.
func NewServiceTokenSource(secret, issuer string, ttl time.Duration) *ServiceTokenSource {
	return &ServiceTokenSource{
		Secret:  []byte(secret),
		Issuer:  issuer,
		Subject: "kb-dashboard",
		TTL:     ttl,
		now:     time.Now,
	}
}

func (s *ServiceTokenSource) Token(context.Context) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.Issuer,
		Subject:   s.Subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", fmt.Errorf("signing service token: %w", err)
	}
	return signed, nil
}
