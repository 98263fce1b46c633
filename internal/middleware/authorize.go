// Package middleware provides the request gate for protected routes and the
// login rate limiter.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/graph-user-auth/internal/auth"
	"github.com/iliyamo/graph-user-auth/internal/repository"
)

// Context keys under which Authorize exposes the acting principal to
// downstream handlers. The escalation check at user update needs both.
const (
	ContextEmail = "authorized_email"
	ContextAuth  = "authorized_auth"
)

// CookieName is the session token cookie.
const CookieName = "token"

// Authorize returns middleware permitting only principals whose role is in
// roles. Including auth.RoleSelf additionally permits the owner of the
// addressed resource: a request whose :id path parameter equals the acting
// user's id.
//
// Status split: 401 means identity not established (no cookie, or an
// established identity lacking the required role; the challenge invites
// re-authentication as someone else); 403 means the cookie carried a token
// that resolves to no live session.
func Authorize(sessions repository.SessionStore, realm string, log *slog.Logger, roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			host := c.Request().Host
			userAgent := c.Request().UserAgent()

			cookie, err := c.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				log.Warn("unauthorized access attempt: no session token",
					"path", c.Path(), "host", host, "user_agent", userAgent)
				return challenge(c, realm)
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			session, user, err := sessions.FindByToken(ctx, cookie.Value)
			if err != nil {
				return err // storage failure; top-level boundary answers 500
			}
			if session == nil || user == nil {
				// Token present but dead: expired, invalidated, or forged.
				return c.NoContent(http.StatusForbidden)
			}

			if allowed[user.Auth] || (allowed[auth.RoleSelf] && user.ID != "" && user.ID == c.Param("id")) {
				c.Set(ContextEmail, user.Email)
				c.Set(ContextAuth, user.Auth)
				return next(c)
			}

			log.Warn("unauthorized access attempt: insufficient role",
				"email", user.Email, "auth", user.Auth, "path", c.Path(),
				"host", host, "user_agent", userAgent)
			return challenge(c, realm)
		}
	}
}

// challenge answers 401 with the WWW-Authenticate header naming the realm.
func challenge(c echo.Context, realm string) error {
	c.Response().Header().Set("WWW-Authenticate", fmt.Sprintf("xBasic realm=%q", realm))
	return c.NoContent(http.StatusUnauthorized)
}
