package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/graph-user-auth/internal/apperr"
	"github.com/iliyamo/graph-user-auth/internal/config"
	"github.com/iliyamo/graph-user-auth/internal/middleware"
)

// unauthorized answers 401 with the configured challenge realm.
func unauthorized(c echo.Context, realm string) error {
	c.Response().Header().Set("WWW-Authenticate", fmt.Sprintf("xBasic realm=%q", realm))
	return c.NoContent(http.StatusUnauthorized)
}

// badRequest renders the accumulated field errors with status 400.
func badRequest(c echo.Context, fe *apperr.FieldErrors) error {
	return c.JSON(http.StatusBadRequest, fe)
}

// malformedBody answers 400 for a request body that failed to parse. It
// keeps the field-error shape so clients handle one 400 body format.
func malformedBody(c echo.Context) error {
	fe := apperr.NewFieldErrors()
	fe.Add("body", apperr.MsgMalformedBody)
	return badRequest(c, fe)
}

// setTokenCookie hands the raw session token to the client. The cookie is
// HttpOnly always; Secure and SameSite follow the deployment mode.
func setTokenCookie(c echo.Context, cfg config.Config, token string) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   cfg.CookieMaxMS / 1000,
		HttpOnly: true,
		Secure:   cfg.CookieSecure(),
		SameSite: cfg.CookieSameSite(),
	})
}

// clearTokenCookie expires the token cookie on the client.
func clearTokenCookie(c echo.Context, cfg config.Config) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.CookieSecure(),
		SameSite: cfg.CookieSameSite(),
	})
}

// tokenFromCookie returns the session token, or "" when the cookie is
// absent.
func tokenFromCookie(c echo.Context) string {
	cookie, err := c.Cookie(middleware.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
