package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken は真正性トークンが不正であることを表す。
var ErrInvalidToken = errors.New("invalid authenticity token")

// authenticityClaims は真正性トークンのクレーム。
// sidは発行時点のセッションCookieの値で、未ログインの場合は空。
type authenticityClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// TokenIssuer はCSRF対策の真正性トークンを発行・検証する。
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer はTokenIssuerを生成する。
func NewTokenIssuer(secret []byte, ttl time.Duration, now func() time.Time) *TokenIssuer {
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{secret: secret, ttl: ttl, now: now}
}

// Issue はsessionIDに束縛したトークンを発行する。
func (i *TokenIssuer) Issue(sessionID string) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, authenticityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		SessionID: sessionID,
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign authenticity token: %w", err)
	}
	return signed, nil
}

// Verify はトークンの署名と有効期限を検証し、sessionIDと一致することを確認する。
func (i *TokenIssuer) Verify(tokenString, sessionID string) error {
	claims := &authenticityClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	if claims.SessionID != sessionID {
		return fmt.Errorf("%w: session mismatch", ErrInvalidToken)
	}
	return nil
}
