// Package refreshtokens provides a PostgreSQL-backed repository for the
// refresh-token records used in the rotation protocol.
package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/shelterauth/internal/common"
	"github.com/dmitrijs2005/shelterauth/internal/dbx"
	"github.com/dmitrijs2005/shelterauth/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new refresh-token record.
func (r *PostgresRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (token, jwt_id, user_id, issued_at, expires_at, used, revoked)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		token.Token, token.JWTID, token.UserID,
		token.IssuedAt, token.ExpiresAt, token.Used, token.Revoked)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Find returns the record for the given token string, or common.ErrorNotFound.
func (r *PostgresRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `
		SELECT token, jwt_id, user_id, issued_at, expires_at, used, revoked
		FROM refresh_tokens
		WHERE token = $1
	`
	rt := &models.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&rt.Token, &rt.JWTID, &rt.UserID, &rt.IssuedAt, &rt.ExpiresAt, &rt.Used, &rt.Revoked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rt, nil
}

// MarkUsed performs a compare-and-set on the used flag. The WHERE clause
// serializes concurrent redemptions at the database: exactly one statement
// matches the row, every other caller sees zero rows affected and gets
// common.ErrRefreshTokenUsed.
func (r *PostgresRepository) MarkUsed(ctx context.Context, token string) error {
	query := `
		UPDATE refresh_tokens
		SET used = true
		WHERE token = $1 AND NOT used
	`
	res, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrRefreshTokenUsed
	}
	return nil
}

// RevokeAllForUser revokes every live record owned by userID.
func (r *PostgresRepository) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	query := `
		UPDATE refresh_tokens
		SET revoked = true
		WHERE user_id = $1 AND NOT revoked AND NOT used
	`
	res, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return affected, nil
}
