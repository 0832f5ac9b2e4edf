package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestTokenService(t *testing.T, secret string, opts ...TokenOption) *TokenService {
	t.Helper()
	service, err := NewTokenService(JWTConfig{
		SecretKey: secret,
		Algorithm: "HS256",
		TTL:       30 * time.Minute,
		Issuer:    "test-issuer",
	}, opts...)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	return service
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	service := newTestTokenService(t, "test-secret-key")

	tests := []struct {
		name   string
		claims map[string]any
	}{
		{
			name:   "subject only",
			claims: map[string]any{"sub": "alice"},
		},
		{
			name:   "subject with extra claims",
			claims: map[string]any{"sub": "bob", "scope": "todos", "uid": "user-123"},
		},
		{
			name:   "no claims",
			claims: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := service.Issue(tt.claims)
			if err != nil {
				t.Fatalf("Issue() error = %v", err)
			}
			if token == "" {
				t.Fatal("Issue() returned empty token")
			}

			got, err := service.Verify(token)
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}

			for k, want := range tt.claims {
				if got[k] != want {
					t.Errorf("claims[%q] = %v, want %v", k, got[k], want)
				}
			}
			if _, ok := got["exp"]; !ok {
				t.Error("Verify() claims missing exp")
			}
			if got["iss"] != "test-issuer" {
				t.Errorf("claims[iss] = %v, want test-issuer", got["iss"])
			}
		})
	}
}

func TestTokenService_ExpiresAtDefaultTTL(t *testing.T) {
	issuedAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := issuedAt
	service := newTestTokenService(t, "test-secret-key", WithClock(func() time.Time { return now }))

	token, err := service.Issue(map[string]any{"sub": "alice"})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := service.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		t.Fatalf("claims[exp] has type %T, want float64", claims["exp"])
	}
	if want := issuedAt.Add(30 * time.Minute).Unix(); int64(exp) != want {
		t.Errorf("exp = %d, want %d", int64(exp), want)
	}

	now = issuedAt.Add(29*time.Minute + 59*time.Second)
	if _, err := service.Verify(token); err != nil {
		t.Errorf("Verify() just before expiry error = %v", err)
	}

	now = issuedAt.Add(30 * time.Minute)
	if _, err := service.Verify(token); err != ErrExpiredToken {
		t.Errorf("Verify() at expiry error = %v, want %v", err, ErrExpiredToken)
	}
}

func TestTokenService_IssueWithExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 900_000_000, time.UTC)
	service := newTestTokenService(t, "test-secret-key", WithClock(func() time.Time { return now }))

	token, expiresAt, err := service.IssueWithExpiry(map[string]any{"sub": "alice"})
	if err != nil {
		t.Fatalf("IssueWithExpiry() error = %v", err)
	}
	if want := time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC); !expiresAt.Equal(want) {
		t.Errorf("expiresAt = %v, want %v", expiresAt, want)
	}

	claims, err := service.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if exp, _ := claims["exp"].(float64); int64(exp) != expiresAt.Unix() {
		t.Errorf("exp = %d, want %d", int64(exp), expiresAt.Unix())
	}

	now = expiresAt
	if _, err := service.Verify(token); err != ErrExpiredToken {
		t.Errorf("Verify() at expiresAt error = %v, want %v", err, ErrExpiredToken)
	}
}

func TestTokenService_ZeroTTLIsExpired(t *testing.T) {
	service := newTestTokenService(t, "test-secret-key")

	token, err := service.IssueWithTTL(map[string]any{"sub": "alice"}, 0)
	if err != nil {
		t.Fatalf("IssueWithTTL() error = %v", err)
	}

	_, err = service.Verify(token)
	if err != ErrExpiredToken {
		t.Errorf("Verify() error = %v, want %v", err, ErrExpiredToken)
	}
}

func TestTokenService_InvalidToken(t *testing.T) {
	service := newTestTokenService(t, "test-secret-key")

	tests := []struct {
		name  string
		token string
	}{
		{
			name:  "empty token",
			token: "",
		},
		{
			name:  "random string",
			token: "not.a.valid.token",
		},
		{
			name:  "malformed jwt",
			token: "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Verify(tt.token)
			if err != ErrInvalidToken {
				t.Errorf("Verify() error = %v, want %v", err, ErrInvalidToken)
			}
		})
	}
}

func TestTokenService_WrongSecretKey(t *testing.T) {
	issuer := newTestTokenService(t, "secret-key-1")
	verifier := newTestTokenService(t, "secret-key-2")

	tests := []struct {
		name string
		ttl  time.Duration
	}{
		{"live token", time.Hour},
		{"expired token", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := issuer.IssueWithTTL(map[string]any{"sub": "alice"}, tt.ttl)
			if err != nil {
				t.Fatalf("IssueWithTTL() error = %v", err)
			}

			// A foreign signature is never reported as expired.
			_, err = verifier.Verify(token)
			if err != ErrInvalidToken {
				t.Errorf("Verify() error = %v, want %v", err, ErrInvalidToken)
			}
		})
	}
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	service := newTestTokenService(t, "test-secret-key")
	claims := jwt.MapClaims{
		"sub": "alice",
		"exp": jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString(none) error = %v", err)
	}
	hs512Token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret-key"))
	if err != nil {
		t.Fatalf("SignedString(HS512) error = %v", err)
	}

	for name, token := range map[string]string{"none": noneToken, "HS512": hs512Token} {
		t.Run(name, func(t *testing.T) {
			if _, err := service.Verify(token); err != ErrInvalidToken {
				t.Errorf("Verify() error = %v, want %v", err, ErrInvalidToken)
			}
		})
	}
}

func TestTokenService_RequiresExpiration(t *testing.T) {
	service := newTestTokenService(t, "test-secret-key")

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "alice"}).SignedString([]byte("test-secret-key"))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	if _, err := service.Verify(token); err != ErrInvalidToken {
		t.Errorf("Verify() error = %v, want %v", err, ErrInvalidToken)
	}
}

func TestNewTokenService_Config(t *testing.T) {
	tests := []struct {
		name    string
		config  JWTConfig
		wantErr bool
		wantTTL time.Duration
	}{
		{
			name:    "HS384",
			config:  JWTConfig{SecretKey: "k", Algorithm: "HS384", TTL: time.Minute},
			wantTTL: time.Minute,
		},
		{
			name:    "default ttl",
			config:  JWTConfig{SecretKey: "k", Algorithm: "HS256"},
			wantTTL: DefaultTokenTTL,
		},
		{
			name:    "empty secret",
			config:  JWTConfig{Algorithm: "HS256"},
			wantErr: true,
		},
		{
			name:    "asymmetric algorithm",
			config:  JWTConfig{SecretKey: "k", Algorithm: "RS256"},
			wantErr: true,
		},
		{
			name:    "unknown algorithm",
			config:  JWTConfig{SecretKey: "k", Algorithm: "XX999"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, err := NewTokenService(tt.config)
			if tt.wantErr {
				if err == nil {
					t.Error("NewTokenService() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewTokenService() error = %v", err)
			}
			if service.TTL() != tt.wantTTL {
				t.Errorf("TTL() = %v, want %v", service.TTL(), tt.wantTTL)
			}
		})
	}
}

func TestSubject(t *testing.T) {
	tests := []struct {
		name   string
		claims map[string]any
		want   string
		wantOK bool
	}{
		{"present", map[string]any{"sub": "alice"}, "alice", true},
		{"missing", map[string]any{}, "", false},
		{"empty", map[string]any{"sub": ""}, "", false},
		{"wrong type", map[string]any{"sub": 42.0}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Subject(tt.claims)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Subject() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
