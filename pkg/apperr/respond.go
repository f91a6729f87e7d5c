package apperr

import (
	"errors"

	"github.com/labstack/echo/v4"
)

// Respond writes err as a JSON response using the taxonomy status mapping.
func Respond(c echo.Context, err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return c.JSON(Status(err), echo.Map{
			"success": false,
			"message": "Validation failed.",
			"errors":  ve.Fields,
		})
	}
	return c.JSON(Status(err), echo.Map{"success": false, "error": PublicMessage(err)})
}
