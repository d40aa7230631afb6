// Package services contains the business logic of shelterauth: minting token
// pairs, rotating refresh tokens, and managing user identities. The exported
// AuthService is the surface the transport layer is expected to call.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/shelterauth/internal/common"
	"github.com/dmitrijs2005/shelterauth/internal/dbx"
	"github.com/dmitrijs2005/shelterauth/internal/server/auth"
	"github.com/dmitrijs2005/shelterauth/internal/server/config"
	"github.com/dmitrijs2005/shelterauth/internal/server/models"
	"github.com/dmitrijs2005/shelterauth/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// refreshTokenBytes is the CSPRNG input size for opaque refresh tokens;
// 32 bytes gives 256 bits of entropy.
const refreshTokenBytes = 32

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService mints (access, refresh) pairs and performs single-use refresh
// rotation. It is stateless between calls except through the repositories.
type TokenService struct {
	db         *sql.DB
	repos      repomanager.RepositoryManager
	signer     *auth.Signer
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService constructs a TokenService using repositories and server
// config.
func NewTokenService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *TokenService {
	s := &TokenService{
		db:         db,
		repos:      m,
		accessTTL:  cfg.AccessTokenValidityDuration,
		refreshTTL: cfg.RefreshTokenValidityDuration,
		now:        time.Now,
	}
	s.signer = auth.NewSigner([]byte(cfg.SecretKey), func() time.Time { return s.now() })
	return s
}

// Issue mints a fresh token pair for the user: a signed access token with a
// new jti and a crypto-random opaque refresh token whose record is persisted
// alongside. The only failure mode is storage.
func (s *TokenService) Issue(ctx context.Context, user *models.User) (*TokenPair, error) {
	return s.issue(ctx, user, s.db)
}

func (s *TokenService) issue(ctx context.Context, user *models.User, db dbx.DBTX) (*TokenPair, error) {
	now := s.now().UTC()
	jti := uuid.NewString()

	accessToken, err := s.signer.Sign(auth.NewClaims(user.ID, user.Email, jti, now, now.Add(s.accessTTL)))
	if err != nil {
		return nil, fmt.Errorf("error signing access token: %w", err)
	}

	refreshToken, err := common.MakeRandHexString(refreshTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("error generating refresh token: %w", err)
	}

	record := &models.RefreshToken{
		Token:     refreshToken,
		JWTID:     jti,
		UserID:    user.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.refreshTTL),
	}
	if err := s.repos.RefreshTokens(db).Create(ctx, record); err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Rotate exchanges an expired-but-authentic access token plus its paired
// refresh token for a fresh pair. The refresh record permits exactly one
// rotation: the used flag is committed (compare-and-set) before new tokens
// are minted, so a crash mid-way or a concurrent call can never double-issue.
//
// Failure sentinels, in check order: ErrInvalidSignature / ErrMalformedToken,
// ErrAccessTokenNotExpired, ErrRefreshTokenNotFound, ErrRefreshTokenExpired,
// ErrRefreshTokenUsed, ErrRefreshTokenRevoked, ErrTokenMismatch.
func (s *TokenService) Rotate(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {
	claims, err := s.signer.Verify(accessToken, true)
	if err != nil {
		return nil, err
	}
	if claims.ExpiresAt == nil {
		return nil, common.ErrMalformedToken
	}
	if s.now().Before(claims.ExpiresAt.Time) {
		return nil, common.ErrAccessTokenNotExpired
	}

	repo := s.repos.RefreshTokens(s.db)
	record, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}

	if s.now().After(record.ExpiresAt) {
		return nil, common.ErrRefreshTokenExpired
	}
	if record.Used {
		return nil, common.ErrRefreshTokenUsed
	}
	if record.Revoked {
		return nil, common.ErrRefreshTokenRevoked
	}
	if record.JWTID != claims.ID {
		return nil, common.ErrTokenMismatch
	}

	// The losing side of a concurrent rotation fails here with
	// ErrRefreshTokenUsed.
	if err := repo.MarkUsed(ctx, record.Token); err != nil {
		return nil, err
	}

	user, err := s.repos.Users(s.db).FindByID(ctx, record.UserID)
	if err != nil {
		return nil, fmt.Errorf("error resolving token owner: %w", err)
	}

	return s.Issue(ctx, user)
}

// RevokeAllForUser revokes every live refresh token owned by userID and
// returns the number of records affected.
func (s *TokenService) RevokeAllForUser(ctx context.Context, userID string) (int64, error) {
	n, err := s.repos.RefreshTokens(s.db).RevokeAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("error revoking refresh tokens: %w", err)
	}
	return n, nil
}
