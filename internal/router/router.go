// Package router wires the HTTP surface: the configured auth and user URIs,
// their middleware, and explicit 405 handlers so every known path reports
// the methods it allows.
package router

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/graph-user-auth/internal/auth"
	"github.com/iliyamo/graph-user-auth/internal/config"
	"github.com/iliyamo/graph-user-auth/internal/handler"
	"github.com/iliyamo/graph-user-auth/internal/middleware"
	"github.com/iliyamo/graph-user-auth/internal/repository"
)

// RegisterRoutes registers routes that need no authentication. Currently
// only the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers login/logout under the configured URIs. The login
// route sits behind the redis token bucket; rdb may be nil, in which case
// the limiter is a pass-through.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	loginURI := a.Cfg.LoginURI
	logoutURI := a.Cfg.LogoutURI

	e.POST(loginURI, a.Login, middleware.LoginRateLimit(rlCfg, rdb))
	methodNotAllowed(e, loginURI, "POST", http.MethodGet, http.MethodPut, http.MethodPatch, http.MethodDelete)

	e.GET(logoutURI, a.Logout)
	e.POST(logoutURI, a.InvalidateAll)
	methodNotAllowed(e, logoutURI, "GET, POST", http.MethodPut, http.MethodPatch, http.MethodDelete)
}

// RegisterUsers registers the user CRUD routes. The collection is ADMIN
// only; single-user routes also admit the owner through the SELF grant.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, sessions repository.SessionStore, log *slog.Logger) {
	userURI := u.Cfg.UserURI
	userIDURI := userURI + "/:id"

	admin := middleware.Authorize(sessions, u.Cfg.AuthRealm, log, auth.RoleAdmin)
	adminOrSelf := middleware.Authorize(sessions, u.Cfg.AuthRealm, log, auth.RoleAdmin, auth.RoleSelf)

	e.GET(userURI, u.GetUsers, admin)
	e.POST(userURI, u.CreateUser, admin)
	methodNotAllowed(e, userURI, "GET, POST", http.MethodPut, http.MethodPatch, http.MethodDelete)

	e.GET(userIDURI, u.GetUser, adminOrSelf)
	e.PUT(userIDURI, u.UpdateUser, adminOrSelf)
	e.PATCH(userIDURI, u.UpdateUser, adminOrSelf)
	e.DELETE(userIDURI, u.DeleteUser, adminOrSelf)
	methodNotAllowed(e, userIDURI, "GET, PUT, PATCH, DELETE", http.MethodPost)
}

// methodNotAllowed maps the given methods on path to a 405 response whose
// Allow header lists what the path supports.
func methodNotAllowed(e *echo.Echo, path, allow string, methods ...string) {
	h := func(c echo.Context) error {
		c.Response().Header().Set("Allow", allow)
		return c.NoContent(http.StatusMethodNotAllowed)
	}
	for _, m := range methods {
		e.Add(m, path, h)
	}
}
