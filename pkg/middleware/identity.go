package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"studynotes/pkg/apperr"
)

const (
	HeaderUserID    = "X-User-Id"
	HeaderUserEmail = "X-User-Email"

	ctxUserID = "uid"
	ctxEmail  = "email"
)

// Identity copies the user forwarded by the upstream identity proxy into the
// request context. Requests without one pass through anonymous.
func Identity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if uid := strings.TrimSpace(c.Request().Header.Get(HeaderUserID)); uid != "" {
				c.Set(ctxUserID, uid)
				c.Set(ctxEmail, strings.TrimSpace(c.Request().Header.Get(HeaderUserEmail)))
			}
			return next(c)
		}
	}
}

// RequireUser rejects anonymous requests with 401.
func RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if UserID(c) == "" {
				return apperr.Respond(c, &apperr.AuthenticationError{})
			}
			return next(c)
		}
	}
}

func UserID(c echo.Context) string {
	uid, _ := c.Get(ctxUserID).(string)
	return uid
}

func Email(c echo.Context) string {
	email, _ := c.Get(ctxEmail).(string)
	return email
}
