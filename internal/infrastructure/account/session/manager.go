package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/riskibarqy/pickem/internal/domain/account"
	"github.com/riskibarqy/pickem/internal/usecase"
)

const defaultTTL = 7 * 24 * time.Hour

type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Manager issues and verifies HS256 session tokens.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret, issuer string, ttl time.Duration) (*Manager, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, fmt.Errorf("session secret is required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &Manager{
		secret: []byte(secret),
		issuer: strings.TrimSpace(issuer),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func (m *Manager) Issue(principal account.Principal) (string, time.Time, error) {
	if strings.TrimSpace(principal.AccountID) == "" {
		return "", time.Time{}, fmt.Errorf("issue session: account id is required")
	}

	issuedAt := m.now().UTC()
	expiresAt := issuedAt.Add(m.ttl)
	claims := Claims{
		Email: principal.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.AccountID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// VerifyAccessToken rejects tokens signed with anything but HS256 and this secret.
func (m *Manager) VerifyAccessToken(_ context.Context, token string) (account.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return account.Principal{}, fmt.Errorf("%w: token is required", usecase.ErrUnauthorized)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return account.Principal{}, fmt.Errorf("%w: session expired", usecase.ErrUnauthorized)
		}
		return account.Principal{}, fmt.Errorf("%w: invalid session token: %v", usecase.ErrUnauthorized, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return account.Principal{}, fmt.Errorf("%w: session subject is empty", usecase.ErrUnauthorized)
	}

	return account.Principal{AccountID: claims.Subject, Email: claims.Email}, nil
}
