package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/graph-user-auth/internal/apperr"
	"github.com/iliyamo/graph-user-auth/internal/auth"
	"github.com/iliyamo/graph-user-auth/internal/config"
	"github.com/iliyamo/graph-user-auth/internal/middleware"
	"github.com/iliyamo/graph-user-auth/internal/model"
	"github.com/iliyamo/graph-user-auth/internal/queue"
	"github.com/iliyamo/graph-user-auth/internal/repository"
	"github.com/iliyamo/graph-user-auth/internal/service"
	"github.com/iliyamo/graph-user-auth/internal/utils"
)

// UserHandler bundles dependencies for the user CRUD endpoints. All routes
// here sit behind the Authorize middleware, so the acting principal's email
// and role are available from the request context.
type UserHandler struct {
	Cfg   config.Config
	Users repository.UserStore
	Log   *slog.Logger
}

func NewUserHandler(cfg config.Config, u repository.UserStore, log *slog.Logger) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u, Log: log}
}

type createUserReq struct {
	Email      string `json:"email"`
	Auth       string `json:"auth"`
	FirstName  string `json:"firstName"`
	SecondName string `json:"secondName"`
	LastName   string `json:"lastName"`
	Password   string `json:"password"`
}

// updateUserReq distinguishes absent fields from empty ones; only fields
// present in the body are applied.
type updateUserReq struct {
	Email      *string `json:"email"`
	Auth       *string `json:"auth"`
	FirstName  *string `json:"firstName"`
	SecondName *string `json:"secondName"`
	LastName   *string `json:"lastName"`
	Password   *string `json:"password"`
}

func actingPrincipal(c echo.Context) (email, role string) {
	email, _ = c.Get(middleware.ContextEmail).(string)
	role, _ = c.Get(middleware.ContextAuth).(string)
	return email, role
}

// GetUsers lists the whole directory. ADMIN only (enforced by the route).
func (h *UserHandler) GetUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return err
	}

	actorEmail, _ := actingPrincipal(c)
	h.Log.Info("retrieved users", "count", len(users), "actor", actorEmail,
		"host", c.Request().Host, "user_agent", c.Request().UserAgent())
	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) GetUser(c echo.Context) error {
	id := c.Param("id")
	actorEmail, _ := actingPrincipal(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			h.Log.Warn("user not found", "id", id, "actor", actorEmail)
			return c.NoContent(http.StatusNotFound)
		}
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) CreateUser(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return malformedBody(c)
	}
	host := c.Request().Host
	userAgent := c.Request().UserAgent()

	required := apperr.NewFieldErrors()
	if req.Email == "" {
		required.Add("email", apperr.MsgRequired)
	}
	if req.Auth == "" {
		required.Add("auth", apperr.MsgRequired)
	}
	if req.Password == "" {
		required.Add("password", apperr.MsgRequired)
	}
	if !auth.IsValidRole(req.Auth) {
		required.Add("auth", apperr.MsgInvalidAuth)
	}
	if violations := utils.ValidatePassword(req.Password); len(violations) > 0 {
		required.Add("password", apperr.MsgInvalidPassword, violations...)
	}
	if !required.Empty() {
		return badRequest(c, required)
	}

	actorEmail, _ := actingPrincipal(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.Users.Create(ctx, model.User{
		Email:      req.Email,
		Auth:       req.Auth,
		FirstName:  req.FirstName,
		SecondName: req.SecondName,
		LastName:   req.LastName,
	}, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, apperr.ErrUnprocessable) {
			h.Log.Warn("failed to create user", "email", req.Email, "actor", actorEmail,
				"host", host, "user_agent", userAgent)
			return c.NoContent(http.StatusUnprocessableEntity)
		}
		return err
	}

	h.Log.Info("user created", "id", user.ID, "email", user.Email, "actor", actorEmail,
		"host", host, "user_agent", userAgent)
	go func() {
		_ = service.PublishAuthEvent(context.Background(), queue.AuthEvent{
			Kind: queue.EventUserCreated, Email: user.Email, UserID: user.ID,
			ActorEmail: actorEmail, Host: host, UserAgent: userAgent,
		})
	}()

	c.Response().Header().Set("Location", path.Join(h.Cfg.UserURI, user.ID))
	return c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) UpdateUser(c echo.Context) error {
	id := c.Param("id")
	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return malformedBody(c)
	}
	host := c.Request().Host
	userAgent := c.Request().UserAgent()

	required := apperr.NewFieldErrors()
	if req.Auth != nil && !auth.IsValidRole(*req.Auth) {
		required.Add("auth", apperr.MsgInvalidAuth)
	}
	if req.Password != nil {
		if violations := utils.ValidatePassword(*req.Password); len(violations) > 0 {
			required.Add("password", apperr.MsgInvalidPassword, violations...)
		}
	}
	if !required.Empty() {
		return badRequest(c, required)
	}

	actorEmail, actorAuth := actingPrincipal(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			h.Log.Warn("user not found", "id", id, "actor", actorEmail)
			return c.NoContent(http.StatusNotFound)
		}
		return err
	}

	if req.Auth != nil && auth.IsRoleEscalation(actorAuth, actorEmail, user.Email, *req.Auth) {
		h.Log.Warn("role escalation attempt", "actor", actorEmail, "actor_auth", actorAuth,
			"id", id, "email", user.Email, "requested_auth", *req.Auth,
			"host", host, "user_agent", userAgent)
		return c.NoContent(http.StatusForbidden)
	}

	updated, err := h.Users.Update(ctx, id, model.UserUpdates{
		Email:      req.Email,
		Auth:       req.Auth,
		FirstName:  req.FirstName,
		SecondName: req.SecondName,
		LastName:   req.LastName,
		Password:   req.Password,
	}, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, apperr.ErrUnprocessable) {
			h.Log.Warn("failed to update user", "id", id, "actor", actorEmail)
			return c.NoContent(http.StatusUnprocessableEntity)
		}
		return err
	}

	h.Log.Info("user updated", "id", id, "actor", actorEmail,
		"host", host, "user_agent", userAgent)
	go func() {
		_ = service.PublishAuthEvent(context.Background(), queue.AuthEvent{
			Kind: queue.EventUserUpdated, Email: updated.Email, UserID: id,
			ActorEmail: actorEmail, Host: host, UserAgent: userAgent,
		})
	}()

	return c.JSON(http.StatusOK, updated)
}

// DeleteUser removes a user; graph detachment takes the user's sessions
// with it.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id := c.Param("id")
	actorEmail, _ := actingPrincipal(c)
	host := c.Request().Host
	userAgent := c.Request().UserAgent()

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	deleted, err := h.Users.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrUnprocessable) {
			h.Log.Warn("failed to delete user", "id", id, "actor", actorEmail,
				"host", host, "user_agent", userAgent)
			return c.NoContent(http.StatusUnprocessableEntity)
		}
		return err
	}

	h.Log.Info("user deleted", "id", id, "actor", actorEmail,
		"host", host, "user_agent", userAgent)
	go func() {
		_ = service.PublishAuthEvent(context.Background(), queue.AuthEvent{
			Kind: queue.EventUserDeleted, Email: deleted.Email, UserID: id,
			ActorEmail: actorEmail, Host: host, UserAgent: userAgent,
		})
	}()

	return c.NoContent(http.StatusNoContent)
}
