package tokens

import (
	"github.com/golang-jwt/jwt/v5"
)

const (
	SubjectAccess  = "Authentication"
	SubjectRefresh = "Refresh"
)

type AccessClaims struct {
	UserID uint   `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	UserID uint `json:"userId"`
	jwt.RegisteredClaims
}
