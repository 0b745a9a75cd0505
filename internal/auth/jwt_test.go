package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func testConfig() Config {
	return Config{Secret: "test-secret-key", Issuer: "test-issuer", TTL: 15 * time.Minute}
}

func TestTokenManager_IssueAndVerify(t *testing.T) {
	manager := NewTokenManager(testConfig())

	token, err := manager.Issue("user-123")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if token == "" {
		t.Fatal("Issue() returned empty token")
	}

	uid, err := manager.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken() error = %v", err)
	}
	if uid != "user-123" {
		t.Errorf("VerifyToken() uid = %q, want %q", uid, "user-123")
	}
}

func TestTokenManager_Rejects(t *testing.T) {
	manager := NewTokenManager(testConfig())
	other := NewTokenManager(Config{Secret: "another-secret", Issuer: "test-issuer", TTL: time.Minute})
	wrongIssuer := NewTokenManager(Config{Secret: "test-secret-key", Issuer: "someone-else", TTL: time.Minute})

	foreign, _ := other.Issue("user-1")
	misissued, _ := wrongIssuer.Issue("user-1")

	expiredClaims := Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, expiredClaims).SignedString([]byte("test-secret-key"))

	anonymous, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "test-issuer"},
	}).SignedString([]byte("test-secret-key"))

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "empty", token: "", wantErr: ErrInvalidToken},
		{name: "garbage", token: "not.a.jwt", wantErr: ErrInvalidToken},
		{name: "wrong secret", token: foreign, wantErr: ErrInvalidToken},
		{name: "wrong issuer", token: misissued, wantErr: ErrInvalidToken},
		{name: "expired", token: expired, wantErr: ErrExpiredToken},
		{name: "no user id", token: anonymous, wantErr: ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := manager.VerifyToken(tt.token)
			if err != tt.wantErr {
				t.Errorf("VerifyToken() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
