package auth

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const serviceTokenType = "service"

// ServiceClaims are the JWT claims carried by service tokens issued to
// headless clients (exporters, build pipelines).
type ServiceClaims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// SupportsServiceTokens reports whether a signing secret is configured.
func (s *Service) SupportsServiceTokens() bool {
	return len(s.tokenSecret) > 0
}

// IssueServiceToken signs an HS256 JWT for the account. The subject is the
// account id; the authority set is resolved fresh on every verification,
// never baked into the token.
func (s *Service) IssueServiceToken(accountID string, ttl time.Duration) (string, time.Time, error) {
	if !s.SupportsServiceTokens() {
		return "", time.Time{}, ErrInvalidToken
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" || ttl <= 0 {
		return "", time.Time{}, ErrInvalidInput
	}
	now := s.now().UTC()
	expiresAt := now.Add(ttl)
	claims := ServiceClaims{
		TokenType: serviceTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.tokenSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// AuthenticateServiceToken verifies a bearer token and resolves it into a
// request session with the account's current authorities.
func (s *Service) AuthenticateServiceToken(ctx context.Context, token string) (Session, error) {
	claims, err := s.verifyServiceToken(token)
	if err != nil {
		return Anonymous(), ErrInvalidToken
	}
	return s.sessionForAccount(ctx, claims.Subject)
}

func (s *Service) verifyServiceToken(token string) (*ServiceClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" || !s.SupportsServiceTokens() {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &ServiceClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return s.tokenSecret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithIssuer(s.issuer))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*ServiceClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != serviceTokenType {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
