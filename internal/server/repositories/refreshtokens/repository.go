// Package refreshtokens declares the repository contract for refresh-token
// records in persistent storage.
package refreshtokens

import (
	"context"

	"github.com/dmitrijs2005/shelterauth/internal/server/models"
)

// Repository defines operations over refresh-token records. Records are never
// deleted here; retention is an external concern.
type Repository interface {
	// Create inserts a new refresh-token record.
	Create(ctx context.Context, token *models.RefreshToken) error

	// Find looks up a record by its opaque token string, or returns
	// common.ErrorNotFound.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// MarkUsed commits used=true on the record, conditional on the record
	// not being used yet. Losing that race — or marking a token that is
	// already consumed — reports common.ErrRefreshTokenUsed, which is what
	// guarantees at most one successful redemption per token without any
	// in-process locking.
	MarkUsed(ctx context.Context, token string) error

	// RevokeAllForUser flips revoked=true on every live record owned by
	// userID and returns the number of records affected.
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
}
