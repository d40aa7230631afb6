package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/shelterauth/internal/dbx"
	"github.com/dmitrijs2005/shelterauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/shelterauth/internal/server/repositories/users"
)

// RepositoryManager vends repository implementations bound to a DBTX, so
// services can run any group of repository calls either directly against the
// pool or inside one transaction.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
