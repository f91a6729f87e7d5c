package controllerImp

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"studynotes/pkg/ai"
	"studynotes/pkg/apperr"
	"studynotes/pkg/chat/controller"
	"studynotes/pkg/chat/service"
	"studynotes/pkg/middleware"
	"studynotes/pkg/validation"
)

// StreamErrorSentinel is the last line of a stream that broke after it started.
const StreamErrorSentinel = "[error] answer generation interrupted"

type ChatCtrl struct {
	s   service.ChatService
	log logrus.FieldLogger

	// anonymous lets requests without an identity name the user in the body
	anonymous bool
}

var _ controller.ChatController = (*ChatCtrl)(nil)

func New(s service.ChatService, log logrus.FieldLogger, allowAnonymous bool) *ChatCtrl {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ChatCtrl{s: s, log: log, anonymous: allowAnonymous}
}

func (h *ChatCtrl) Ask(c echo.Context) error {
	var in validation.ChatInput
	if err := c.Bind(&in); err != nil {
		return apperr.Respond(c, apperr.Invalid("body", "Request body must be a JSON object"))
	}
	if err := c.Validate(&in); err != nil {
		return apperr.Respond(c, err)
	}

	uid := in.UserID
	if authed := middleware.UserID(c); authed != "" {
		if uid != "" && uid != authed {
			return apperr.Respond(c, &apperr.ForbiddenError{Reason: "userId does not match the signed-in user"})
		}
		uid = authed
	} else if uid != "" && !h.anonymous {
		return apperr.Respond(c, &apperr.AuthenticationError{})
	}

	history := make([]ai.Message, 0, len(in.History))
	for _, t := range in.History {
		history = append(history, ai.Message{Role: t.Role, Content: t.Content})
	}

	ctx := c.Request().Context()
	fragments, err := h.s.Ask(ctx, service.AskRequest{UserID: uid, Question: in.Question, History: history})
	if err != nil {
		if apperr.Status(err) >= http.StatusInternalServerError {
			h.log.WithError(err).WithField("user_id", uid).Error("chat generation failed")
		}
		return apperr.Respond(c, err)
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, echo.MIMETextPlainCharsetUTF8)
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("X-Content-Type-Options", "nosniff")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	for f := range fragments {
		if f.Err != nil {
			h.log.WithError(f.Err).WithField("user_id", uid).Warn("chat stream interrupted")
			_, _ = res.Write([]byte("\n" + StreamErrorSentinel + "\n"))
			res.Flush()
			continue
		}
		if _, err := res.Write([]byte(f.Text)); err != nil {
			// client went away; the request context cancels the generator
			h.log.WithError(err).Debug("chat client disconnected")
			for range fragments {
			}
			return nil
		}
		res.Flush()
	}
	return nil
}
