package repo

import (
	"context"
	"time"

	"github.com/reeltrack/auth-service/internal/models"
)

// CreateToken inserts the pair as a single atomic insert; the generated
// id lands back in t. Colliding token strings surface as ErrConflict.
func (r *GormRepo) CreateToken(ctx context.Context, t *models.Token) error {
	if err := r.DB.WithContext(ctx).Create(t).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *GormRepo) FindLiveByAccessToken(ctx context.Context, token string) (*models.Token, error) {
	var row models.Token
	err := r.DB.WithContext(ctx).
		Where("token = ? AND revoked = ? AND expires_at > ?", token, false, time.Now()).
		First(&row).Error
	if err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func (r *GormRepo) FindLiveByRefreshToken(ctx context.Context, refreshToken string) (*models.Token, error) {
	var row models.Token
	err := r.DB.WithContext(ctx).
		Where("refresh_token = ? AND revoked = ? AND refresh_expires_at > ?", refreshToken, false, time.Now()).
		First(&row).Error
	if err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

// Revoke marks the session matching the access token as revoked.
// Idempotent: already-revoked or unknown tokens are a no-op.
func (r *GormRepo) Revoke(ctx context.Context, accessToken string) error {
	res := r.DB.WithContext(ctx).Model(&models.Token{}).
		Where("token = ?", accessToken).
		Update("revoked", true)
	if res.Error != nil {
		return translate(res.Error)
	}
	return nil
}

// RevokeLive flips revoked only if the row is still unrevoked and
// reports whether this call actually did it. Two racing refreshes on
// one session see exactly one true here.
func (r *GormRepo) RevokeLive(ctx context.Context, accessToken string) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Token{}).
		Where("token = ? AND revoked = ?", accessToken, false).
		Update("revoked", true)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *GormRepo) RevokeAllForUser(ctx context.Context, userID uint) error {
	res := r.DB.WithContext(ctx).Model(&models.Token{}).
		Where("user_id = ?", userID).
		Update("revoked", true)
	if res.Error != nil {
		return translate(res.Error)
	}
	return nil
}

// PurgeExpired deletes rows that can never be live again: revoked, or
// past the refresh expiry (the later of the two deadlines). Safe to
// run concurrently with everything else.
func (r *GormRepo) PurgeExpired(ctx context.Context) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("refresh_expires_at < ? OR revoked = ?", time.Now(), true).
		Delete(&models.Token{})
	if res.Error != nil {
		return 0, translate(res.Error)
	}
	return res.RowsAffected, nil
}
