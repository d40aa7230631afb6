// Package auth implements the access-token signer: HS256-signed JWTs carrying
// the owning user's id, email and a unique token id (jti).
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/shelterauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the access-token claim set. Subject duplicates Email, matching
// what the rest of the system expects from tokens issued here.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Email  string `json:"email"`
}

// NewClaims assembles a claim set for the given user identity and validity
// window. jti must be unique per issued token.
func NewClaims(userID, email, jti string, issuedAt, expiresAt time.Time) *Claims {
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID: userID,
		Email:  email,
	}
}

// Signer produces and verifies compact HS256 tokens from a shared secret.
// It is stateless apart from the secret and the injected clock.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner constructs a Signer. If now is nil, time.Now is used.
func NewSigner(secret []byte, now func() time.Time) *Signer {
	if now == nil {
		now = time.Now
	}
	return &Signer{secret: secret, now: now}
}

// Sign encodes the claim set as a compact header.payload.signature string.
func (s *Signer) Sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify parses and validates a token string. Only HS256 is accepted; a token
// whose header names any other algorithm fails with ErrInvalidSignature, so a
// forged header cannot downgrade the check.
//
// With ignoreExpiry set, the lifetime check is skipped while the signature
// check still applies; the returned claims carry the (possibly stale) expiry
// for the caller to inspect.
func (s *Signer) Verify(tokenString string, ignoreExpiry bool) (*Claims, error) {
	claims := &Claims{}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if ignoreExpiry {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, common.ErrMalformedToken
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, common.ErrTokenExpired
		default:
			return nil, common.ErrInvalidSignature
		}
	}
	if !token.Valid {
		return nil, common.ErrInvalidSignature
	}

	return claims, nil
}
