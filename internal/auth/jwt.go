package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is the lifetime of access tokens issued at login.
const DefaultTokenTTL = 30 * time.Minute

var (
	// ErrExpiredToken is returned when the token's expiry has passed.
	ErrExpiredToken = errors.New("token expired")
	// ErrMalformedToken is returned for bad signatures, unparseable payloads
	// and tokens without a subject.
	ErrMalformedToken = errors.New("invalid token")
	// ErrEmptySigningKey is returned when a TokenManager is built without a key.
	ErrEmptySigningKey = errors.New("signing key is empty")
)

// TokenIssuer mints signed access tokens for a subject.
type TokenIssuer interface {
	Issue(subject string) (string, error)
}

// TokenVerifier validates a token and returns its subject.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// TokenManager issues and verifies HS256 JWTs. It holds no mutable state and
// is safe for concurrent use.
type TokenManager struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// TokenOption configures a TokenManager.
type TokenOption func(*TokenManager)

// WithTTL overrides DefaultTokenTTL.
func WithTTL(ttl time.Duration) TokenOption {
	return func(m *TokenManager) {
		m.ttl = ttl
	}
}

// WithClock sets the time source used for issuing and verifying.
func WithClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) {
		m.now = now
	}
}

// NewTokenManager creates a TokenManager signing with key.
func NewTokenManager(key []byte, opts ...TokenOption) (*TokenManager, error) {
	if len(key) == 0 {
		return nil, ErrEmptySigningKey
	}
	m := &TokenManager{
		key: append([]byte(nil), key...),
		ttl: DefaultTokenTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Issue creates a token for subject valid for the manager's TTL.
func (m *TokenManager) Issue(subject string) (string, error) {
	return m.IssueWithTTL(subject, m.ttl)
}

// IssueWithTTL creates a token for subject that expires after ttl.
func (m *TokenManager) IssueWithTTL(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("issue token: empty subject")
	}
	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses tokenStr, checks its signature and expiry and returns the subject.
// Failures are ErrExpiredToken or ErrMalformedToken.
func (m *TokenManager) Verify(tokenStr string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return m.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", errors.Join(ErrMalformedToken, err)
	}
	if claims.Subject == "" {
		return "", ErrMalformedToken
	}
	return claims.Subject, nil
}
