// Package auth issues and verifies bearer tokens and resolves them to principals.
package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is the validity window of an issued token.
const DefaultTokenTTL = 7 * 24 * time.Hour

const keySize = 64

// ErrInvalidToken covers bad signatures, malformed tokens and expired tokens.
var ErrInvalidToken = errors.New("token is invalid or expired")

// Token is a signed bearer token together with its validity window.
type Token struct {
	Value     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService)

// WithTTL overrides the validity window.
func WithTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the time source used for issuance and verification.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIssuer sets the iss and aud claims written and required by the service.
func WithIssuer(issuer, audience string) TokenOption {
	return func(s *TokenService) {
		s.issuer = issuer
		s.audience = audience
	}
}

// TokenService signs tokens with one process-wide HS512 key. The key is
// read-only after construction and safe for concurrent use.
type TokenService struct {
	key      []byte
	ttl      time.Duration
	issuer   string
	audience string
	now      func() time.Time
	parser   *jwt.Parser
}

// NewTokenService creates a service for the given key. An empty key is an error;
// use GenerateKey for a per-process key.
func NewTokenService(key []byte, opts ...TokenOption) (*TokenService, error) {
	if len(key) == 0 {
		return nil, errors.New("token signing key is empty")
	}
	s := &TokenService{
		key:      append([]byte(nil), key...),
		ttl:      DefaultTokenTTL,
		issuer:   "frontrow-api",
		audience: "frontrow-client",
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(s.audience))
	}
	s.parser = jwt.NewParser(parserOpts...)

	return s, nil
}

// GenerateKey returns a random signing key suitable for HS512.
func GenerateKey() ([]byte, error) {
	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	return key, nil
}

// TTL returns the validity window of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for subject valid from now until now + TTL.
func (s *TokenService) Issue(subject string) (*Token, error) {
	if subject == "" {
		return nil, errors.New("token subject is empty")
	}

	now := s.now().Truncate(time.Second)
	expiresAt := now.Add(s.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        uuid.NewString(),
	}
	if s.audience != "" {
		claims.Audience = jwt.ClaimStrings{s.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(s.key)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &Token{Value: signed, IssuedAt: now, ExpiresAt: expiresAt}, nil
}

// Verify checks signature, structure and expiry and returns the subject.
// Every failure is reported as ErrInvalidToken.
func (s *TokenService) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrInvalidToken
	}

	var claims jwt.RegisteredClaims
	token, err := s.parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.key, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return claims.Subject, nil
}
