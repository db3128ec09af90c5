// Package keys covers both caller credential kinds: opaque API keys stored as
// peppered hashes, and short-lived HS256 session tokens.
package keys

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func NewAPIKey() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b[:]), nil
}

func HashAPIKey(pepper, apiKey string) string {
	sum := sha256.Sum256([]byte(pepper + ":" + apiKey))
	return hex.EncodeToString(sum[:])
}

type SessionClaims struct {
	UserID         string `json:"user_id"`
	OrganisationID string `json:"organisation_id"`
	jwt.RegisteredClaims
}

var ErrInvalidSessionToken = errors.New("invalid session token")

func NewSessionToken(secret string, userID, organisationID uuid.UUID, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("missing jwt secret")
	}
	now := time.Now()
	claims := SessionClaims{
		UserID:         userID.String(),
		OrganisationID: organisationID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseSessionToken validates an HS256 session token and returns the caller's
// user and organisation IDs.
func ParseSessionToken(secret, tokenString string) (uuid.UUID, uuid.UUID, error) {
	if secret == "" {
		return uuid.Nil, uuid.Nil, ErrInvalidSessionToken
	}
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSessionToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return uuid.Nil, uuid.Nil, ErrInvalidSessionToken
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, uuid.Nil, ErrInvalidSessionToken
	}
	orgID, err := uuid.Parse(claims.OrganisationID)
	if err != nil {
		return uuid.Nil, uuid.Nil, ErrInvalidSessionToken
	}
	return userID, orgID, nil
}
