package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	DevCookie     = "NOTES_UID"
	DevDefaultUID = "dev-user"
)

// DevLogin fills in an identity from the NOTES_UID cookie when no proxy header
// was seen. Only mounted when dev login is enabled.
func DevLogin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if UserID(c) == "" {
				if ck, err := c.Cookie(DevCookie); err == nil && ck.Value != "" {
					c.Set(ctxUserID, ck.Value)
				}
			}
			return next(c)
		}
	}
}

// SetDevIdentity stores uid in the dev cookie and the current request.
func SetDevIdentity(c echo.Context, uid string) {
	if uid == "" {
		uid = DevDefaultUID
	}
	c.SetCookie(&http.Cookie{Name: DevCookie, Value: uid, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	c.Set(ctxUserID, uid)
}
