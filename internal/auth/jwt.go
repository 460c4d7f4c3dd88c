package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenManager derives the refresh secret from the access secret so one
// JWT_SECRET is enough to run the service.
func NewTokenManager(secret, issuer string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(secret),
		refreshSecret: []byte(secret + ":refresh"),
		issuer:        issuer,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

type Claims struct {
	UserID int64  `json:"uid"`
	Type   string `json:"typ"` // "access" | "refresh"
	jwt.RegisteredClaims
}

// GeneratePair issues an access and a refresh token for userID.
func (tm *TokenManager) GeneratePair(userID int64) (access string, refresh string, accessExp time.Time, err error) {
	now := time.Now()

	accClaims := tm.claims(userID, typeAccess, now, tm.accessTTL)
	refClaims := tm.claims(userID, typeRefresh, now, tm.refreshTTL)

	access, err = jwt.NewWithClaims(jwt.SigningMethodHS256, accClaims).SignedString(tm.accessSecret)
	if err != nil {
		return "", "", time.Time{}, err
	}
	refresh, err = jwt.NewWithClaims(jwt.SigningMethodHS256, refClaims).SignedString(tm.refreshSecret)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return access, refresh, accClaims.ExpiresAt.Time, nil
}

func (tm *TokenManager) claims(userID int64, typ string, now time.Time, ttl time.Duration) Claims {
	return Claims{
		UserID: userID,
		Type:   typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tm.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// ParseAny tries the access secret first, then the refresh secret. The bool
// reports whether the token was a refresh token.
func (tm *TokenManager) ParseAny(tokenStr string) (*Claims, bool, error) {
	if c, err := tm.parse(tokenStr, tm.accessSecret); err == nil && c.Type == typeAccess {
		return c, false, nil
	}
	if c, err := tm.parse(tokenStr, tm.refreshSecret); err == nil && c.Type == typeRefresh {
		return c, true, nil
	}
	return nil, false, ErrInvalidToken
}

func (tm *TokenManager) parse(tokenStr string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tm.issuer),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
