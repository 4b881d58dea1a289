package service

import (
	"context"
	"errors"

	"github.com/reeltrack/auth-service/internal/events"
	"github.com/reeltrack/auth-service/internal/models"
	"github.com/reeltrack/auth-service/internal/repo"
	"github.com/reeltrack/auth-service/pkg/hash"
	"github.com/reeltrack/auth-service/pkg/logging"
	"github.com/reeltrack/auth-service/pkg/tokens"
)

var (
	// ErrInvalidCredentials never distinguishes unknown email from
	// wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrBanned             = errors.New("user is banned")
	// ErrInvalidToken collapses every token failure mode: unknown,
	// revoked, expired, tampered, banned owner.
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
)

// AuthService drives the login / validate / refresh / logout lifecycle
// of a session. It holds no state of its own; everything lives in the
// store, so any number of calls may run concurrently.
type AuthService struct {
	Repo   *repo.GormRepo
	Issuer *tokens.Issuer
	Hasher *hash.Hasher
	Events *events.Producer
}

// Login checks credentials and mints a fresh access+refresh pair.
// Every successful login creates a new session; earlier sessions for
// the same user stay live (multi-device).
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, *models.Token, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if email == "" || password == "" {
		return nil, nil, ErrValidation
	}

	user, err := s.Repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if user.IsBanned {
		l.Warn("login rejected", "reason", "banned", "user_id", user.ID)
		return nil, nil, ErrBanned
	}

	if !s.Hasher.Check(user.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}

	row, err := s.issueSession(ctx, user)
	if err != nil {
		l.Error("login failed", "error", err)
		return nil, nil, err
	}

	l.Info("login successful", "user_id", user.ID)
	return user, row, nil
}

// ValidateToken resolves an access token to its owner. All three gates
// must hold: a live session row, a verified signature with matching
// issuer and unexpired claims, and an existing non-banned user. A ban
// takes effect on the very next validation, revoked or not.
func (s *AuthService) ValidateToken(ctx context.Context, accessToken string) (*models.User, error) {
	if accessToken == "" {
		return nil, ErrInvalidToken
	}

	row, err := s.Repo.FindLiveByAccessToken(ctx, accessToken)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	claims, err := s.Issuer.VerifyAccess(accessToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.UserID != row.UserID {
		return nil, ErrInvalidToken
	}

	user, err := s.Repo.FindUserByID(ctx, row.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if user.IsBanned {
		return nil, ErrInvalidToken
	}

	return user, nil
}

// Refresh rotates a session: the old row is spent (conditionally, so
// concurrent refreshes on one token rotate at most once) and a brand
// new pair is minted and persisted.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.Token, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	if refreshToken == "" {
		return nil, ErrInvalidToken
	}

	row, err := s.Repo.FindLiveByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	claims, err := s.Issuer.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.UserID != row.UserID {
		return nil, ErrInvalidToken
	}

	user, err := s.Repo.FindUserByID(ctx, row.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if user.IsBanned {
		return nil, ErrBanned
	}

	spent, err := s.Repo.RevokeLive(ctx, row.Token)
	if err != nil {
		return nil, err
	}
	if !spent {
		// lost the race against a concurrent refresh or logout
		return nil, ErrInvalidToken
	}

	newRow, err := s.issueSession(ctx, user)
	if err != nil {
		l.Error("refresh failed", "error", err)
		return nil, err
	}

	l.Info("session rotated", "user_id", user.ID)
	return newRow, nil
}

// Logout revokes the session matching the access token. Idempotent:
// unknown and already-revoked tokens succeed silently.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}
	return s.Repo.Revoke(ctx, accessToken)
}

// LogoutAllDevices revokes every session owned by the user. Callers
// establish the identity first (via ValidateToken at the boundary).
func (s *AuthService) LogoutAllDevices(ctx context.Context, userID uint) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout_all", "user_id", userID)

	if err := s.Repo.RevokeAllForUser(ctx, userID); err != nil {
		return err
	}

	if err := s.Events.Publish(ctx, events.TypeSessionsRevoked, userID, ""); err != nil {
		l.Warn("event publish failed", "error", err)
	}
	l.Info("all sessions revoked")
	return nil
}

func (s *AuthService) issueSession(ctx context.Context, user *models.User) (*models.Token, error) {
	access, accessExp, err := s.Issuer.IssueAccess(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.Issuer.IssueRefresh(user.ID)
	if err != nil {
		return nil, err
	}

	row := &models.Token{
		UserID:           user.ID,
		Token:            access,
		RefreshToken:     refresh,
		ExpiresAt:        accessExp,
		RefreshExpiresAt: refreshExp,
	}
	if err := s.Repo.CreateToken(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}
