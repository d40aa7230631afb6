package models

import "time"

// RefreshToken is the durable record paired with one issued access token.
// Token is the opaque random value handed to the client and the primary
// lookup key. JWTID binds the record to the jti claim of the access token it
// was issued alongside. Used flips to true exactly once, at redemption;
// Revoked is set by administrative action.
type RefreshToken struct {
	Token     string
	JWTID     string
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Used      bool
	Revoked   bool
}
