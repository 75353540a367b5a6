// Package auth issues and validates the owner's access tokens. Shelfmark is
// single-user, so a token carries no subject beyond the owner marker.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

const (
	// Issuer is the registered claim issuer.
	Issuer = "shelfmark"
	// KeyID is the version of the signing key.
	KeyID = "v1"
	// AccessTokenDuration is the lifetime of an access token.
	AccessTokenDuration = 7 * 24 * time.Hour
	// AccessTokenCookieName is the cookie carrying the access token.
	AccessTokenCookieName = "shelfmark.access-token"
	// OwnerSubject marks a token issued to the library owner.
	OwnerSubject = "owner"
)

type ClaimsMessage struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// GenerateAccessToken signs an owner token expiring at expirationTime.
func GenerateAccessToken(ownerName string, expirationTime time.Time, secret []byte) (string, error) {
	registeredClaims := jwt.RegisteredClaims{
		Issuer:   Issuer,
		IssuedAt: jwt.NewNumericDate(time.Now()),
		Subject:  OwnerSubject,
	}
	if !expirationTime.IsZero() {
		registeredClaims.ExpiresAt = jwt.NewNumericDate(expirationTime)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &ClaimsMessage{
		Name:             ownerName,
		RegisteredClaims: registeredClaims,
	})
	token.Header["kid"] = KeyID

	accessToken, err := token.SignedString(secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign access token")
	}
	return accessToken, nil
}

// ValidateAccessToken parses a token and returns its claims when the
// signature, key id and expiry all check out.
func ValidateAccessToken(accessToken string, secret []byte) (*ClaimsMessage, error) {
	claims := &ClaimsMessage{}
	_, err := jwt.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Name {
			return nil, errors.New("unexpected signing method")
		}
		if kid, ok := t.Header["kid"].(string); !ok || kid != KeyID {
			return nil, errors.New("unexpected key id")
		}
		return secret, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "invalid or expired access token")
	}
	if claims.Subject != OwnerSubject {
		return nil, errors.New("unexpected token subject")
	}
	return claims, nil
}
