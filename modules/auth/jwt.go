package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is used when the configuration does not set a lifetime.
const DefaultTokenTTL = 30 * time.Minute

var (
	// ErrInvalidToken is returned when the signature or payload does not verify.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the signature verifies but exp has passed.
	ErrExpiredToken = errors.New("token has expired")
)

// JWTConfig holds token signing configuration.
type JWTConfig struct {
	SecretKey string
	Algorithm string
	TTL       time.Duration
	Issuer    string
}

// TokenService issues and verifies HMAC-signed identity tokens.
// It holds no mutable state and is safe for concurrent use.
type TokenService struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	ttl    time.Duration
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

// TokenOption customizes a TokenService.
type TokenOption func(*TokenService)

// WithClock replaces the wall clock used for issuance and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService creates a TokenService for an HS256, HS384 or HS512 key.
func NewTokenService(config JWTConfig, opts ...TokenOption) (*TokenService, error) {
	if config.SecretKey == "" {
		return nil, errors.New("token secret must not be empty")
	}
	method, ok := jwt.GetSigningMethod(config.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", config.Algorithm)
	}

	ttl := config.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	s := &TokenService{
		secret: []byte(config.SecretKey),
		method: method,
		ttl:    ttl,
		issuer: config.Issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return s.now().UTC() }),
	)
	return s, nil
}

// TTL returns the default token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs claims with the default lifetime.
func (s *TokenService) Issue(claims map[string]any) (string, error) {
	return s.IssueWithTTL(claims, s.ttl)
}

// IssueWithTTL signs claims that expire ttl from now. A zero ttl produces a
// token that is already expired.
func (s *TokenService) IssueWithTTL(claims map[string]any, ttl time.Duration) (string, error) {
	signed, _, err := s.sign(claims, ttl)
	return signed, err
}

// IssueWithExpiry signs claims with the default lifetime and also returns the
// exp claim it signed.
func (s *TokenService) IssueWithExpiry(claims map[string]any) (string, time.Time, error) {
	return s.sign(claims, s.ttl)
}

func (s *TokenService) sign(claims map[string]any, ttl time.Duration) (string, time.Time, error) {
	now := s.now().UTC()
	exp := jwt.NewNumericDate(now.Add(ttl))

	mapClaims := make(jwt.MapClaims, len(claims)+3)
	for k, v := range claims {
		mapClaims[k] = v
	}
	mapClaims["exp"] = exp
	mapClaims["iat"] = jwt.NewNumericDate(now)
	if _, ok := mapClaims["iss"]; !ok && s.issuer != "" {
		mapClaims["iss"] = s.issuer
	}

	token := jwt.NewWithClaims(s.method, mapClaims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, exp.Time, nil
}

// Verify returns the token's claims, ErrExpiredToken or ErrInvalidToken.
// The signature is checked before expiry, so a forged token never reports expired.
func (s *TokenService) Verify(tokenString string) (map[string]any, error) {
	token, err := s.parser.Parse(tokenString, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return map[string]any(claims), nil
}

// Subject extracts the sub claim.
func Subject(claims map[string]any) (string, bool) {
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", false
	}
	return sub, true
}
