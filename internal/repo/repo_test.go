package repo

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/reeltrack/auth-service/internal/models"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1) // one shared in-memory database

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Token{}))
	return &GormRepo{DB: db}
}

func seedUser(t *testing.T, r *GormRepo, email string) *models.User {
	t.Helper()

	user := &models.User{
		Username:     "u_" + email,
		Email:        email,
		PasswordHash: "irrelevant",
		Role:         models.RoleUser,
	}
	require.NoError(t, r.CreateUser(context.Background(), user))
	return user
}

func seedToken(t *testing.T, r *GormRepo, userID uint, access, refresh string, accessExp, refreshExp time.Time) *models.Token {
	t.Helper()

	row := &models.Token{
		UserID:           userID,
		Token:            access,
		RefreshToken:     refresh,
		ExpiresAt:        accessExp,
		RefreshExpiresAt: refreshExp,
	}
	require.NoError(t, r.CreateToken(context.Background(), row))
	return row
}

func TestGormRepo_CreateUser_Conflict(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	seedUser(t, r, "a@x.com")

	dup := &models.User{Username: "other", Email: "a@x.com", PasswordHash: "x", Role: models.RoleUser}
	err := r.CreateUser(ctx, dup)
	assert.ErrorIs(t, err, ErrConflict)

	// no partial row
	users, err := r.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestGormRepo_FindUserByEmail(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	created := seedUser(t, r, "a@x.com")

	found, err := r.FindUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = r.FindUserByEmail(ctx, "missing@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormRepo_UpdateUser_OptionalPasswordHash(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	user := seedUser(t, r, "a@x.com")

	user.Username = "renamed"
	require.NoError(t, r.UpdateUser(ctx, user, ""))

	got, err := r.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Username)
	assert.Equal(t, "irrelevant", got.PasswordHash)

	require.NoError(t, r.UpdateUser(ctx, user, "new-hash"))
	got, err = r.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)

	missing := &models.User{ID: 9999, Username: "x", Email: "x@x.com", Role: models.RoleUser}
	assert.ErrorIs(t, r.UpdateUser(ctx, missing, ""), ErrNotFound)
}

func TestGormRepo_SetBanned(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	user := seedUser(t, r, "a@x.com")

	require.NoError(t, r.SetBanned(ctx, user.ID, true))
	got, err := r.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.IsBanned)

	require.NoError(t, r.SetBanned(ctx, user.ID, false))
	got, err = r.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, got.IsBanned)

	assert.ErrorIs(t, r.SetBanned(ctx, 9999, true), ErrNotFound)
}

func TestGormRepo_CreateToken_ConflictOnDuplicateString(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	user := seedUser(t, r, "a@x.com")
	exp := time.Now().Add(time.Hour)
	rexp := time.Now().Add(24 * time.Hour)

	seedToken(t, r, user.ID, "access-1", "refresh-1", exp, rexp)

	err := r.CreateToken(ctx, &models.Token{
		UserID: user.ID, Token: "access-1", RefreshToken: "refresh-other",
		ExpiresAt: exp, RefreshExpiresAt: rexp,
	})
	assert.ErrorIs(t, err, ErrConflict)

	err = r.CreateToken(ctx, &models.Token{
		UserID: user.ID, Token: "access-other", RefreshToken: "refresh-1",
		ExpiresAt: exp, RefreshExpiresAt: rexp,
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestGormRepo_FindLive_RespectsExpiryAndRevocation(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	user := seedUser(t, r, "a@x.com")
	live := seedToken(t, r, user.ID, "access-live", "refresh-live",
		time.Now().Add(time.Hour), time.Now().Add(24*time.Hour))
	// unrevoked but already expired: must be rejected by time comparison
	seedToken(t, r, user.ID, "access-expired", "refresh-expired",
		time.Now().Add(-time.Minute), time.Now().Add(-time.Minute))

	got, err := r.FindLiveByAccessToken(ctx, "access-live")
	require.NoError(t, err)
	assert.Equal(t, live.ID, got.ID)

	_, err = r.FindLiveByAccessToken(ctx, "access-expired")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.FindLiveByRefreshToken(ctx, "refresh-expired")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, r.Revoke(ctx, "access-live"))
	_, err = r.FindLiveByAccessToken(ctx, "access-live")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.FindLiveByRefreshToken(ctx, "refresh-live")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormRepo_Revoke_Idempotent(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	user := seedUser(t, r, "a@x.com")
	seedToken(t, r, user.ID, "access-1", "refresh-1",
		time.Now().Add(time.Hour), time.Now().Add(24*time.Hour))

	require.NoError(t, r.Revoke(ctx, "access-1"))
	require.NoError(t, r.Revoke(ctx, "access-1"))
	require.NoError(t, r.Revoke(ctx, "unknown-token"))
}

func TestGormRepo_RevokeLive_FlipsOnlyOnce(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	user := seedUser(t, r, "a@x.com")
	seedToken(t, r, user.ID, "access-1", "refresh-1",
		time.Now().Add(time.Hour), time.Now().Add(24*time.Hour))

	ok, err := r.RevokeLive(ctx, "access-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.RevokeLive(ctx, "access-1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.RevokeLive(ctx, "unknown-token")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGormRepo_RevokeAllForUser(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	alice := seedUser(t, r, "alice@x.com")
	bob := seedUser(t, r, "bob@x.com")

	exp := time.Now().Add(time.Hour)
	rexp := time.Now().Add(24 * time.Hour)
	seedToken(t, r, alice.ID, "alice-1", "alice-r1", exp, rexp)
	seedToken(t, r, alice.ID, "alice-2", "alice-r2", exp, rexp)
	seedToken(t, r, bob.ID, "bob-1", "bob-r1", exp, rexp)

	require.NoError(t, r.RevokeAllForUser(ctx, alice.ID))
	require.NoError(t, r.RevokeAllForUser(ctx, alice.ID)) // idempotent

	_, err := r.FindLiveByAccessToken(ctx, "alice-1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.FindLiveByAccessToken(ctx, "alice-2")
	assert.ErrorIs(t, err, ErrNotFound)

	// unrelated user untouched
	_, err = r.FindLiveByAccessToken(ctx, "bob-1")
	assert.NoError(t, err)
}

func TestGormRepo_PurgeExpired(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()

	user := seedUser(t, r, "a@x.com")
	exp := time.Now().Add(time.Hour)
	rexp := time.Now().Add(24 * time.Hour)

	seedToken(t, r, user.ID, "live", "live-r", exp, rexp)
	seedToken(t, r, user.ID, "dead-expired", "dead-expired-r",
		time.Now().Add(-2*time.Hour), time.Now().Add(-time.Hour))
	seedToken(t, r, user.ID, "dead-revoked", "dead-revoked-r", exp, rexp)
	require.NoError(t, r.Revoke(ctx, "dead-revoked"))

	// access expired but refresh still usable: must survive the purge
	seedToken(t, r, user.ID, "half-dead", "half-dead-r",
		time.Now().Add(-time.Minute), rexp)

	n, err := r.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var count int64
	require.NoError(t, r.DB.Model(&models.Token{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	_, err = r.FindLiveByRefreshToken(ctx, "half-dead-r")
	assert.NoError(t, err)
}
