package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/orionchat/registry/internal/domain"
)

var tracer = otel.Tracer("auth")

// AuthService mints and validates the bearer tokens clients present after
// login.
type AuthService struct {
	config domain.Config
}

func NewAuthService(config domain.Config) *AuthService {
	return &AuthService{config: config}
}

// AuthResult identifies the requester attached to a validated token.
type AuthResult struct {
	UserID   string
	Username string
}

type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// IssueToken mints a token for the authenticated user.
func (s *AuthService) IssueToken(user domain.User) (string, error) {

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Audience:  jwt.ClaimStrings{s.config.FQDN},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenTTL)),
		},
	})

	return token.SignedString([]byte(s.config.JWTSecret))
}

// AuthToken validates a bearer token and returns the requester it identifies.
func (s *AuthService) AuthToken(ctx context.Context, tokenString string) (*AuthResult, error) {
	_, span := tracer.Start(ctx, "Auth.Service.AuthToken")
	defer span.End()

	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithAudience(s.config.FQDN))
	if err != nil {
		span.RecordError(errors.Wrap(err, "jwt validation failed"))
		return nil, domain.UnauthorizedError{}
	}
	if !token.Valid || c.Subject == "" {
		span.RecordError(errors.New("token missing subject"))
		return nil, domain.UnauthorizedError{}
	}

	return &AuthResult{UserID: c.Subject, Username: c.Username}, nil
}
