// Package auth verifies the bearer tokens presented at connection time.
package auth

import (
	"errors"
	"time"

	"github.com/dkeye/roomchat/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when the token is invalid.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
)

// Config holds JWT configuration.
type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// Claims carries the user id under "id", as issued by the login service.
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenManager verifies HS256 tokens. Issue exists for seeding and tests;
// the login service is the real issuer.
type TokenManager struct {
	config Config
}

func NewTokenManager(config Config) *TokenManager {
	if config.TTL <= 0 {
		config.TTL = 24 * time.Hour
	}
	return &TokenManager{config: config}
}

// Issue signs a token for uid.
func (m *TokenManager) Issue(uid domain.UserID) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: string(uid),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   string(uid),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.Secret))
}

// VerifyToken checks signature, expiry and issuer and returns the user id.
func (m *TokenManager) VerifyToken(tokenString string) (domain.UserID, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if m.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.config.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(m.config.Secret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	uid := claims.UserID
	if uid == "" {
		uid = claims.Subject
	}
	if uid == "" {
		return "", ErrInvalidToken
	}
	return domain.UserID(uid), nil
}
