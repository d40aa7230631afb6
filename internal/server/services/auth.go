package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dmitrijs2005/shelterauth/internal/common"
	"github.com/dmitrijs2005/shelterauth/internal/dbx"
	"github.com/dmitrijs2005/shelterauth/internal/logging"
)

// ValidationErrors carries human-readable messages for input that failed
// validation, ready to hand to whichever transport sits above this package.
type ValidationErrors []string

func (v ValidationErrors) Error() string {
	return strings.Join(v, "; ")
}

// AuthService is the operation surface exposed to the transport layer:
// Register, Login, Refresh and RevokeUserTokens. It translates internal
// sentinels into the small set of errors callers are allowed to see.
type AuthService struct {
	db       *sql.DB
	identity *IdentityService
	tokens   *TokenService
	logger   logging.Logger
}

func NewAuthService(db *sql.DB, identity *IdentityService, tokens *TokenService, logger logging.Logger) *AuthService {
	return &AuthService{db: db, identity: identity, tokens: tokens, logger: logger}
}

// Register creates a user account and immediately mints a token pair for it.
// Account creation and the first refresh record commit in one transaction.
// Bad input and duplicate emails come back as ValidationErrors.
func (s *AuthService) Register(ctx context.Context, email, username, password string) (*TokenPair, error) {
	var msgs ValidationErrors
	if email == "" {
		msgs = append(msgs, "Email is required")
	}
	if username == "" {
		msgs = append(msgs, "Username is required")
	}
	if password == "" {
		msgs = append(msgs, "Password is required")
	}
	if len(msgs) > 0 {
		return nil, msgs
	}

	var pair *TokenPair
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.identity.create(ctx, tx, email, username, password)
		if err != nil {
			return err
		}
		pair, err = s.tokens.issue(ctx, user, tx)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, ValidationErrors{"Email already in use"}
		}
		s.logger.Error(ctx, "registration failed", "email", email, "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user registered", "email", email)
	return pair, nil
}

// Login verifies the credentials and mints a token pair. An unknown email and
// a wrong password are indistinguishable to the caller: both return
// common.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.identity.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		s.logger.Error(ctx, "login lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	// user stays nil on a lookup miss; VerifyPassword still runs so the two
	// failure paths cost the same.
	if !s.identity.VerifyPassword(user, password) {
		s.logger.Warn(ctx, "login rejected", "email", email)
		return nil, common.ErrInvalidCredentials
	}

	pair, err := s.tokens.Issue(ctx, user)
	if err != nil {
		s.logger.Error(ctx, "token issue failed", "email", email, "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user logged in", "email", email)
	return pair, nil
}

// rotationRefusals are the Rotate outcomes that mean the caller presented
// something invalid, as opposed to the backend failing.
var rotationRefusals = []error{
	common.ErrInvalidSignature,
	common.ErrMalformedToken,
	common.ErrAccessTokenNotExpired,
	common.ErrRefreshTokenNotFound,
	common.ErrRefreshTokenExpired,
	common.ErrRefreshTokenUsed,
	common.ErrRefreshTokenRevoked,
	common.ErrTokenMismatch,
}

// Refresh rotates a token pair. The precise refusal cause is logged but the
// caller only ever sees common.ErrInvalidTokens, so a probing client cannot
// learn which check fired.
func (s *AuthService) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {
	pair, err := s.tokens.Rotate(ctx, accessToken, refreshToken)
	if err == nil {
		return pair, nil
	}

	for _, refusal := range rotationRefusals {
		if errors.Is(err, refusal) {
			s.logger.Warn(ctx, "refresh rejected", "reason", refusal.Error())
			return nil, common.ErrInvalidTokens
		}
	}

	s.logger.Error(ctx, "refresh failed", "error", err)
	return nil, common.ErrorInternal
}

// RevokeUserTokens invalidates every live refresh token belonging to userID,
// forcing the user to log in again once their current access token expires.
func (s *AuthService) RevokeUserTokens(ctx context.Context, userID string) (int64, error) {
	n, err := s.tokens.RevokeAllForUser(ctx, userID)
	if err != nil {
		s.logger.Error(ctx, "revocation failed", "user_id", userID, "error", err)
		return 0, common.ErrorInternal
	}
	s.logger.Info(ctx, "refresh tokens revoked", "user_id", userID, "count", n)
	return n, nil
}
