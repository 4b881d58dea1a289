package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/reeltrack/auth-service/internal/middleware"
	"github.com/reeltrack/auth-service/internal/models"
)

type Deps struct {
	AuthHandler *AuthHTTP
	UserHandler *UserHTTP
	AuthMW      *middleware.AuthMiddleware
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	auth := e.Group("/api/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/refresh", d.AuthHandler.Refresh)
	auth.POST("/logout", d.AuthHandler.Logout)

	authPrivate := e.Group("/api/auth", d.AuthMW.RequireAuth)
	authPrivate.POST("/logout-all", d.AuthHandler.LogoutAll)
	authPrivate.GET("/me", d.AuthHandler.Me)

	adminOnly := middleware.RequireRole(models.RoleAdmin)
	moderation := middleware.RequireRole(models.RoleAdmin, models.RoleModerator)

	users := e.Group("/api/users", d.AuthMW.RequireAuth)
	users.GET("", d.UserHandler.List, moderation)
	users.POST("", d.UserHandler.Create, adminOnly)
	users.GET("/:id", d.UserHandler.Get)
	users.PUT("/:id", d.UserHandler.Update)
	users.DELETE("/:id", d.UserHandler.Delete, adminOnly)
	users.POST("/:id/ban", d.UserHandler.Ban, moderation)
	users.POST("/:id/unban", d.UserHandler.Unban, moderation)
}
