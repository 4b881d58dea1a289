package service

import (
	"context"
	"errors"

	"github.com/reeltrack/auth-service/internal/events"
	"github.com/reeltrack/auth-service/internal/models"
	"github.com/reeltrack/auth-service/internal/repo"
	"github.com/reeltrack/auth-service/pkg/hash"
	"github.com/reeltrack/auth-service/pkg/logging"
)

// UserService owns the account lifecycle: registration, profile
// updates, ban state and deletion. Session fallout of account changes
// (cascaded revocation on delete) is handled here, not in the store.
type UserService struct {
	Repo   *repo.GormRepo
	Hasher *hash.Hasher
	Events *events.Producer
}

// Register creates an account with a freshly hashed password. An
// invalid role falls back to USER.
func (s *UserService) Register(ctx context.Context, username, email, password string, role models.Role) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.register")

	if username == "" || email == "" || password == "" {
		return nil, ErrValidation
	}
	if !role.Valid() {
		role = models.RoleUser
	}

	pwHash, err := s.Hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		Role:         role,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			l.Warn("register rejected", "reason", "duplicate username or email")
			return nil, ErrConflict
		}
		l.Error("register failed", "error", err)
		return nil, err
	}

	if err := s.Events.Publish(ctx, events.TypeUserRegistered, user.ID, user.Username); err != nil {
		l.Warn("event publish failed", "error", err)
	}
	l.Info("user registered", "user_id", user.ID)
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	return s.Repo.FindUserByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.Repo.FindUserByEmail(ctx, email)
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.Repo.ListUsers(ctx)
}

// Update replaces the mutable profile fields. newPassword is optional;
// empty keeps the stored hash.
func (s *UserService) Update(ctx context.Context, id uint, username, email string, role models.Role, banned bool, newPassword string) (*models.User, error) {
	if username == "" || email == "" {
		return nil, ErrValidation
	}
	if !role.Valid() {
		return nil, ErrValidation
	}

	newHash := ""
	if newPassword != "" {
		var err error
		if newHash, err = s.Hasher.Hash(newPassword); err != nil {
			return nil, err
		}
	}

	user := &models.User{
		ID:       id,
		Username: username,
		Email:    email,
		Role:     role,
		IsBanned: banned,
	}
	if err := s.Repo.UpdateUser(ctx, user, newHash); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return nil, ErrConflict
		}
		return nil, err
	}

	return s.Repo.FindUserByID(ctx, id)
}

// Delete removes the account. Every session the user holds is revoked
// first, so a concurrent bearer of an unexpired token is cut off even
// before the row disappears.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	l := logging.FromContext(ctx).With("svc", "user.delete", "user_id", id)

	if err := s.Repo.RevokeAllForUser(ctx, id); err != nil {
		return err
	}
	if err := s.Repo.DeleteUser(ctx, id); err != nil {
		return err
	}

	if err := s.Events.Publish(ctx, events.TypeUserDeleted, id, ""); err != nil {
		l.Warn("event publish failed", "error", err)
	}
	l.Info("user deleted")
	return nil
}

// Ban flags the account. Live tokens are not revoked; validation
// checks ban state on every call, so they die immediately anyway.
func (s *UserService) Ban(ctx context.Context, id uint) error {
	l := logging.FromContext(ctx).With("svc", "user.ban", "user_id", id)

	if err := s.Repo.SetBanned(ctx, id, true); err != nil {
		return err
	}
	if err := s.Events.Publish(ctx, events.TypeUserBanned, id, ""); err != nil {
		l.Warn("event publish failed", "error", err)
	}
	l.Info("user banned")
	return nil
}

func (s *UserService) Unban(ctx context.Context, id uint) error {
	l := logging.FromContext(ctx).With("svc", "user.unban", "user_id", id)

	if err := s.Repo.SetBanned(ctx, id, false); err != nil {
		return err
	}
	if err := s.Events.Publish(ctx, events.TypeUserUnbanned, id, ""); err != nil {
		l.Warn("event publish failed", "error", err)
	}
	l.Info("user unbanned")
	return nil
}
