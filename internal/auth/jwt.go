// Package auth hashes passwords and issues the bearer tokens accepted by
// the API.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	AccessToken  = "access"
	RefreshToken = "refresh"
)

var ErrInvalidToken = errors.New("invalid or expired token")

type Tokens struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokens(secret string, accessTTL, refreshTTL time.Duration) *Tokens {
	return &Tokens{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func (t *Tokens) Issue(userID uint, email string) (Pair, error) {
	access, err := t.sign(userID, email, AccessToken, t.accessTTL)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := t.sign(userID, email, RefreshToken, t.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a refresh token for a new access token.
func (t *Tokens) Refresh(refresh string) (string, error) {
	claims, err := t.verify(refresh, RefreshToken)
	if err != nil {
		return "", err
	}
	email, _ := claims["email"].(string)
	return t.sign(userIDFrom(claims), email, AccessToken, t.accessTTL)
}

// Verify checks an access token and returns its user id.
func (t *Tokens) Verify(access string) (uint, error) {
	claims, err := t.verify(access, AccessToken)
	if err != nil {
		return 0, err
	}
	id := userIDFrom(claims)
	if id == 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

func (t *Tokens) sign(userID uint, email, typ string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id":    userID,
		"email":      email,
		"token_type": typ,
		"exp":        t.now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

func (t *Tokens) verify(raw, typ string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["token_type"] != typ {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func userIDFrom(claims jwt.MapClaims) uint {
	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return 0
	}
	return uint(id)
}
