package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/reeltrack/auth-service/internal/middleware"
	"github.com/reeltrack/auth-service/internal/models"
	"github.com/reeltrack/auth-service/internal/repo"
	"github.com/reeltrack/auth-service/internal/service"
	"github.com/reeltrack/auth-service/internal/transport"
	"github.com/reeltrack/auth-service/pkg/logging"
)

type UserHTTP struct {
	Users *service.UserService
}

func userID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid user ID")
	}
	return uint(id), nil
}

func isAdmin(u *models.User) bool {
	return u != nil && u.Role == models.RoleAdmin
}

func isModeratorOrAdmin(u *models.User) bool {
	return u != nil && (u.Role == models.RoleAdmin || u.Role == models.RoleModerator)
}

// List is moderator/admin only (gated in the router).
func (h *UserHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()

	users, err := h.Users.List(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("list users failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	out := make([]transport.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, transport.NewUserResponse(&users[i]))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns one user: own profile, or any profile for
// moderators/admins.
func (h *UserHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := userID(c)
	if err != nil {
		return err
	}

	current := middleware.CurrentUser(c)
	if current == nil || (current.ID != id && !isModeratorOrAdmin(current)) {
		return echo.NewHTTPError(http.StatusForbidden, "you can only view your own profile")
	}

	user, err := h.Users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		logging.FromContext(ctx).Error("get user failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	return c.JSON(http.StatusOK, transport.NewUserResponse(user))
}

// Create is the administrative variant of registration: admins may set
// any role.
func (h *UserHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()

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
			logging.FromContext(ctx).Error("create user failed", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
	}

	return c.JSON(http.StatusCreated, transport.APIResponse{
		Message: "User created successfully",
		ID:      user.ID,
	})
}

// Update replaces profile fields. Self or admin; role and ban state
// only change when an admin asks.
func (h *UserHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := userID(c)
	if err != nil {
		return err
	}

	current := middleware.CurrentUser(c)
	if current == nil || (current.ID != id && !isAdmin(current)) {
		return echo.NewHTTPError(http.StatusForbidden, "you can only update your own profile")
	}

	existing, err := h.Users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		logging.FromContext(ctx).Error("get user failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	var req transport.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	role := existing.Role
	banned := existing.IsBanned
	if isAdmin(current) {
		if req.Role != "" {
			role = models.ParseRole(req.Role)
		}
		banned = req.IsBanned
	}

	user, err := h.Users.Update(ctx, id, req.Username, req.Email, role, banned, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConflict):
			return echo.NewHTTPError(http.StatusConflict, "username or email already taken")
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, "username and email are required")
		case errors.Is(err, repo.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		default:
			logging.FromContext(ctx).Error("update user failed", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
		}
	}

	return c.JSON(http.StatusOK, transport.NewUserResponse(user))
}

// Delete is admin only (gated in the router) and revokes every
// session the user holds.
func (h *UserHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := userID(c)
	if err != nil {
		return err
	}

	if err := h.Users.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		logging.FromContext(ctx).Error("delete user failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	return c.JSON(http.StatusOK, transport.APIResponse{Message: "User deleted successfully"})
}

func (h *UserHTTP) Ban(c echo.Context) error {
	return h.setBanned(c, true, "User banned successfully")
}

func (h *UserHTTP) Unban(c echo.Context) error {
	return h.setBanned(c, false, "User unbanned successfully")
}

func (h *UserHTTP) setBanned(c echo.Context, banned bool, message string) error {
	ctx := c.Request().Context()

	id, err := userID(c)
	if err != nil {
		return err
	}

	target, err := h.Users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		logging.FromContext(ctx).Error("get user failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	// Moderators moderate regular users; admin accounts are off limits
	// to anyone but another admin.
	if !isAdmin(middleware.CurrentUser(c)) && target.Role == models.RoleAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}

	var svcErr error
	if banned {
		svcErr = h.Users.Ban(ctx, id)
	} else {
		svcErr = h.Users.Unban(ctx, id)
	}
	if svcErr != nil {
		if errors.Is(svcErr, repo.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		logging.FromContext(ctx).Error("ban state change failed", "error", svcErr)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	return c.JSON(http.StatusOK, transport.APIResponse{Message: message})
}
