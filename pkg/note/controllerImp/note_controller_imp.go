package controllerImp

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"studynotes/pkg/apperr"
	"studynotes/pkg/middleware"
	"studynotes/pkg/note/controller"
	"studynotes/pkg/note/export"
	"studynotes/pkg/note/service"
	"studynotes/pkg/validation"
)

type NoteCtrl struct {
	s   service.NoteService
	log logrus.FieldLogger
}

var _ controller.NoteController = (*NoteCtrl)(nil)

func New(s service.NoteService, log logrus.FieldLogger) *NoteCtrl {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &NoteCtrl{s: s, log: log}
}

// Create answers in the save-action shape: {success, message, errors{title, content, _server}}.
func (h *NoteCtrl) Create(c echo.Context) error {
	var in validation.NoteInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": "Validation failed.",
			"errors":  echo.Map{"_server": []string{"Request body could not be read."}},
		})
	}

	n, err := h.s.Save(c.Request().Context(), middleware.UserID(c), middleware.Email(c), in)
	if err != nil {
		var (
			ve *apperr.ValidationError
			ae *apperr.AuthenticationError
		)
		switch {
		case errors.As(err, &ve):
			return apperr.Respond(c, err)
		case errors.As(err, &ae):
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"success": false,
				"message": "Authentication error.",
				"errors":  echo.Map{"_server": []string{"User not authenticated"}},
			})
		default:
			h.log.WithError(err).Error("save note failed")
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"success": false,
				"message": "Failed to save note to the database.",
				"errors":  echo.Map{"_server": []string{"An unexpected error occurred."}},
			})
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"message": "Note saved successfully.",
		"errors":  echo.Map{},
		"note":    n,
	})
}

func (h *NoteCtrl) List(c echo.Context) error {
	uid := middleware.UserID(c)
	if q := c.QueryParam("userId"); q != "" && q != uid {
		return apperr.Respond(c, &apperr.ForbiddenError{Reason: "cannot list another user's notes"})
	}
	notes, err := h.s.List(c.Request().Context(), uid)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"notes": notes})
}

func (h *NoteCtrl) Get(c echo.Context) error {
	n, err := h.s.Get(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"note": n})
}

func (h *NoteCtrl) Delete(c echo.Context) error {
	if err := h.s.Delete(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *NoteCtrl) Search(c echo.Context) error {
	k := 5
	if v := c.QueryParam("k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 50 {
			return apperr.Respond(c, apperr.Invalid("k", "K must be a number between 1 and 50"))
		}
		k = n
	}
	hits, err := h.s.Search(c.Request().Context(), middleware.UserID(c), c.QueryParam("q"), k)
	if err != nil {
		return h.fail(c, err)
	}
	if hits == nil {
		hits = []service.SearchHit{}
	}
	return c.JSON(http.StatusOK, echo.Map{"results": hits})
}

func (h *NoteCtrl) Export(c echo.Context) error {
	notes, err := h.s.List(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return h.fail(c, err)
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, notes); err != nil {
		h.log.WithError(err).Error("export notes failed")
		return apperr.Respond(c, err)
	}
	name := fmt.Sprintf("notes-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, export.ContentType, buf.Bytes())
}

func (h *NoteCtrl) fail(c echo.Context, err error) error {
	if apperr.Status(err) >= http.StatusInternalServerError {
		h.log.WithError(err).WithField("path", c.Path()).Error("note request failed")
	}
	return apperr.Respond(c, err)
}
