package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reeltrack/auth-service/internal/middleware"
	"github.com/reeltrack/auth-service/internal/models"
	"github.com/reeltrack/auth-service/internal/service"
	"github.com/reeltrack/auth-service/internal/transport"
	"github.com/reeltrack/auth-service/pkg/logging"
)

type AuthHTTP struct {
	Auth  *service.AuthService
	Users *service.UserService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Users.Register(ctx, req.Username, req.Email, req.Password, models.ParseRole(req.Role))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConflict):
			return echo.NewHTTPError(http.StatusConflict, "user with this email already exists")
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, "username, email and password are required")
		default:
			l.Error("register failed", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
	}

	return c.JSON(http.StatusCreated, transport.APIResponse{
		Message: "User registered successfully",
		ID:      user.ID,
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, token, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
		case errors.Is(err, service.ErrInvalidCredentials):
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
		case errors.Is(err, service.ErrBanned):
			return echo.NewHTTPError(http.StatusForbidden, "user is banned")
		default:
			l.Error("login failed", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
	}

	return c.JSON(http.StatusOK, transport.LoginResponse{
		AccessToken:  token.Token,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    int64(h.Auth.Issuer.AccessTTL().Seconds()),
		User:         transport.NewUserResponse(user),
	})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	var req transport.RefreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	token, err := h.Auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken):
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired refresh token")
		case errors.Is(err, service.ErrBanned):
			return echo.NewHTTPError(http.StatusForbidden, "user is banned")
		default:
			l.Error("refresh failed", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
	}

	return c.JSON(http.StatusOK, transport.TokenResponse{
		AccessToken:  token.Token,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    int64(h.Auth.Issuer.AccessTTL().Seconds()),
	})
}

// Logout revokes the presented access token. Idempotent: an unknown
// token still logs out with 200.
func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	raw, ok := middleware.BearerToken(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "no token provided")
	}

	if err := h.Auth.Logout(ctx, raw); err != nil {
		l.Error("logout failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	return c.JSON(http.StatusOK, transport.APIResponse{Message: "Logged out successfully"})
}

func (h *AuthHTTP) LogoutAll(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout_all")

	user := middleware.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	if err := h.Auth.LogoutAllDevices(ctx, user.ID); err != nil {
		l.Error("logout all failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	return c.JSON(http.StatusOK, transport.APIResponse{Message: "Logged out from all devices"})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
	}
	return c.JSON(http.StatusOK, transport.NewUserResponse(user))
}
