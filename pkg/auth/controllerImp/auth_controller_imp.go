package controllerImp

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"studynotes/pkg/auth/controller"
	"studynotes/pkg/middleware"
)

type authCtrl struct{}

func NewAuthController() controller.AuthController { return &authCtrl{} }

// DevLogin signs the browser in as ?uid= (or the default dev user) via cookie.
func (h *authCtrl) DevLogin(c echo.Context) error {
	middleware.SetDevIdentity(c, c.QueryParam("uid"))
	return c.JSON(http.StatusOK, echo.Map{"uid": middleware.UserID(c)})
}

func (h *authCtrl) WhoAmI(c echo.Context) error {
	uid := middleware.UserID(c)
	return c.JSON(http.StatusOK, echo.Map{
		"uid":           uid,
		"email":         middleware.Email(c),
		"authenticated": uid != "",
	})
}
