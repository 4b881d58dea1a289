package models

import (
	"strings"
	"time"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleUser      Role = "USER"
	RoleAdmin     Role = "ADMIN"
	RoleModerator Role = "MODERATOR"
)

// ParseRole maps a raw string onto a Role, falling back to USER for
// anything outside the known set.
func ParseRole(v string) Role {
	switch Role(strings.ToUpper(v)) {
	case RoleAdmin:
		return RoleAdmin
	case RoleModerator:
		return RoleModerator
	default:
		return RoleUser
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleModerator:
		return true
	}
	return false
}

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"     json:"username"`
	Email        string    `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Role         Role      `gorm:"not null;default:USER"    json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	IsBanned     bool      `gorm:"not null;default:false"   json:"isBanned"`
}

// Token is one issued access+refresh pair. A row is live only while
// revoked=false and the relevant expiry is still in the future; an
// expired row is dead even if nobody ever revoked it.
type Token struct {
	ID               uint      `gorm:"primaryKey;autoIncrement"    json:"id"`
	UserID           uint      `gorm:"index;not null"              json:"user_id"`
	User             User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Token            string    `gorm:"uniqueIndex;not null"        json:"token"`
	RefreshToken     string    `gorm:"uniqueIndex;not null"        json:"refresh_token"`
	ExpiresAt        time.Time `gorm:"not null"                    json:"expires_at"`
	RefreshExpiresAt time.Time `gorm:"not null"                    json:"refresh_expires_at"`
	CreatedAt        time.Time `json:"created_at"`
	Revoked          bool      `gorm:"not null;default:false"      json:"revoked"`
}
