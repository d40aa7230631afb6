package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/shelterauth/internal/dbx"
	"github.com/dmitrijs2005/shelterauth/internal/server/config"
	"github.com/dmitrijs2005/shelterauth/internal/server/models"
	"github.com/dmitrijs2005/shelterauth/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// IdentityService is the identity store: it owns user accounts and password
// verification. The token components only ever see models.User values coming
// out of it.
type IdentityService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
	cost  int

	// dummyHash is compared against when the account does not exist, so a
	// failed lookup costs the same as a failed password check.
	dummyHash []byte
}

// NewIdentityService constructs an IdentityService using repositories and
// server config.
func NewIdentityService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *IdentityService {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), cost)
	if err != nil {
		// only reachable with an out-of-range cost
		panic(err)
	}
	return &IdentityService{db: db, repos: m, cost: cost, dummyHash: dummy}
}

// Create hashes the password and stores a new user account. A duplicate email
// reports common.ErrorAlreadyExists.
func (s *IdentityService) Create(ctx context.Context, email, username, password string) (*models.User, error) {
	return s.create(ctx, s.db, email, username, password)
}

func (s *IdentityService) create(ctx context.Context, db dbx.DBTX, email, username, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}
	user := &models.User{Email: email, UserName: username, PasswordHash: string(hash)}
	return s.repos.Users(db).Create(ctx, user)
}

// FindByEmail returns the account with the given email, or common.ErrorNotFound.
func (s *IdentityService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repos.Users(s.db).FindByEmail(ctx, email)
}

// FindByID returns the account with the given id, or common.ErrorNotFound.
func (s *IdentityService) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.repos.Users(s.db).FindByID(ctx, id)
}

// VerifyPassword reports whether password matches the user's stored hash.
// A nil user is accepted and always fails, after burning a hash comparison,
// so callers can keep lookup misses and wrong passwords on the same path.
func (s *IdentityService) VerifyPassword(user *models.User, password string) bool {
	hash := s.dummyHash
	if user != nil {
		hash = []byte(user.PasswordHash)
	}
	ok := bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
	return ok && user != nil
}
