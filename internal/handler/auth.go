package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/graph-user-auth/internal/apperr"
	"github.com/iliyamo/graph-user-auth/internal/auth"
	"github.com/iliyamo/graph-user-auth/internal/config"
	"github.com/iliyamo/graph-user-auth/internal/queue"
	"github.com/iliyamo/graph-user-auth/internal/repository"
	"github.com/iliyamo/graph-user-auth/internal/service"
	"github.com/iliyamo/graph-user-auth/internal/utils"
)

// AuthHandler bundles dependencies for the login/logout endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    repository.UserStore
	Sessions repository.SessionStore
	Log      *slog.Logger
}

func NewAuthHandler(cfg config.Config, u repository.UserStore, s repository.SessionStore, log *slog.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Sessions: s, Log: log}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type invalidateAllReq struct {
	Email string `json:"email"`
}

// Login verifies credentials, enforces at most one session per client
// context, and hands the fresh token back as a cookie. The response body
// carries only the user's id.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return malformedBody(c)
	}
	host := c.Request().Host
	userAgent := c.Request().UserAgent()

	required := apperr.NewFieldErrors()
	if req.Email == "" {
		required.Add("email", apperr.MsgRequired)
	}
	if req.Password == "" {
		required.Add("password", apperr.MsgRequired)
	}
	if !required.Empty() {
		return badRequest(c, required)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	if user == nil || !utils.VerifyPassword(user.PasswordHash, req.Password) {
		h.Log.Warn("unauthorized access attempt",
			"email", req.Email, "host", host, "user_agent", userAgent)
		return unauthorized(c, h.Cfg.AuthRealm)
	}

	// Best-effort single-session-per-client-context: replace a session
	// this browser already holds before issuing a new one. A concurrent
	// login can race past this check; the stray session falls to the lazy
	// sweep or invalidate-all.
	existing, err := h.Sessions.FindActiveSessionID(ctx, req.Email, host, userAgent)
	if err != nil {
		return err
	}
	if existing != "" {
		if err := h.Sessions.Invalidate(ctx, existing); err != nil {
			return err
		}
	}

	token, err := auth.GenerateToken(auth.TokenBytes)
	if err != nil {
		return err // entropy failure is fatal, not recovered
	}
	session, err := h.Sessions.Create(ctx, token, req.Email, host, userAgent)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			// User vanished between password check and session create.
			return unauthorized(c, h.Cfg.AuthRealm)
		}
		return err
	}

	setTokenCookie(c, h.Cfg, token)
	h.Log.Info("user logged in", "email", req.Email, "host", host, "user_agent", userAgent)
	go func() {
		_ = service.PublishAuthEvent(context.Background(), queue.AuthEvent{
			Kind: queue.EventLogin, Email: req.Email, UserID: session.UserID,
			Host: host, UserAgent: userAgent,
		})
	}()

	return c.JSON(http.StatusOK, echo.Map{"id": user.ID})
}

// Logout invalidates the caller's session if one resolves, then always
// clears the cookie and answers 204. A cookieless call is an idempotent
// no-op.
func (h *AuthHandler) Logout(c echo.Context) error {
	token := tokenFromCookie(c)
	host := c.Request().Host
	userAgent := c.Request().UserAgent()

	if token == "" {
		return c.NoContent(http.StatusNoContent)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	session, user, err := h.Sessions.FindByToken(ctx, token)
	if err != nil {
		return err
	}
	if session != nil {
		if err := h.Sessions.Invalidate(ctx, session.ID); err != nil {
			return err
		}
		h.Log.Info("user logged out",
			"user_id", session.UserID, "host", host, "user_agent", userAgent)
		go func() {
			_ = service.PublishAuthEvent(context.Background(), queue.AuthEvent{
				Kind: queue.EventLogout, Email: user.Email, UserID: session.UserID,
				Host: host, UserAgent: userAgent,
			})
		}()
	}

	clearTokenCookie(c, h.Cfg)
	return c.NoContent(http.StatusNoContent)
}

// InvalidateAll logs a user out everywhere. The caller's own live session
// is the capability check; the target email comes from the body. The
// caller's cookie is always cleared.
func (h *AuthHandler) InvalidateAll(c echo.Context) error {
	token := tokenFromCookie(c)
	host := c.Request().Host
	userAgent := c.Request().UserAgent()

	if token == "" {
		h.Log.Warn("unauthorized attempt to invalidate all sessions",
			"host", host, "user_agent", userAgent)
		return unauthorized(c, h.Cfg.AuthRealm)
	}

	var req invalidateAllReq
	if err := c.Bind(&req); err != nil {
		return malformedBody(c)
	}

	required := apperr.NewFieldErrors()
	if req.Email == "" {
		required.Add("email", apperr.MsgRequired)
	}
	if !required.Empty() {
		return badRequest(c, required)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	session, _, err := h.Sessions.FindByToken(ctx, token)
	if err != nil {
		return err
	}
	if session != nil {
		if err := h.Sessions.InvalidateAll(ctx, req.Email); err != nil {
			return err
		}
		h.Log.Info("all sessions invalidated",
			"email", req.Email, "host", host, "user_agent", userAgent)
		go func() {
			_ = service.PublishAuthEvent(context.Background(), queue.AuthEvent{
				Kind: queue.EventSessionsInvalidated, Email: req.Email,
				Host: host, UserAgent: userAgent,
			})
		}()
	}

	clearTokenCookie(c, h.Cfg)
	return c.NoContent(http.StatusNoContent)
}
