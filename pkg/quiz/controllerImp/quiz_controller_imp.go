package controllerImp

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"studynotes/pkg/apperr"
	"studynotes/pkg/middleware"
	"studynotes/pkg/quiz/controller"
	"studynotes/pkg/quiz/service"
)

type QuizCtrl struct {
	s   service.QuizService
	log logrus.FieldLogger
}

var _ controller.QuizController = (*QuizCtrl)(nil)

func New(s service.QuizService, log logrus.FieldLogger) *QuizCtrl {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &QuizCtrl{s: s, log: log}
}

func (h *QuizCtrl) Generate(c echo.Context) error {
	noteID := c.Param("noteId")
	quiz, err := h.s.Generate(c.Request().Context(), middleware.UserID(c), noteID)
	if err != nil {
		if apperr.Status(err) >= http.StatusInternalServerError {
			h.log.WithError(err).WithField("note_id", noteID).Error("quiz generation failed")
		}
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"quiz": quiz})
}
