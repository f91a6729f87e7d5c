package serviceImp

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"studynotes/pkg/ai"
	"studynotes/pkg/apperr"
	"studynotes/pkg/chat/service"
)

// AnswerGenerator streams a model answer.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, systemContext string, history []ai.Message, question string) (<-chan ai.Fragment, error)
}

type Svc struct {
	assembler *ContextAssembler
	gen       AnswerGenerator
	log       logrus.FieldLogger
}

var _ service.ChatService = (*Svc)(nil)

func New(assembler *ContextAssembler, gen AnswerGenerator, log logrus.FieldLogger) *Svc {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Svc{assembler: assembler, gen: gen, log: log}
}

func (s *Svc) Ask(ctx context.Context, req service.AskRequest) (<-chan ai.Fragment, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, apperr.Invalid("userId", "UserId is required")
	}
	if strings.TrimSpace(req.Question) == "" {
		return nil, apperr.Invalid("question", "Question is required")
	}

	notesContext, err := s.assembler.Assemble(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"user_id":       req.UserID,
		"context_chars": len(notesContext),
		"history":       len(req.History),
	}).Debug("chat context assembled")

	return s.gen.GenerateAnswer(ctx, SystemPrompt(notesContext), req.History, req.Question)
}

// SystemPrompt embeds notesContext verbatim between the fixed answering rules.
func SystemPrompt(notesContext string) string {
	return "You are a helpful study assistant. Answer the user's questions based on their notes.\n\n" +
		"The user's notes:\n" +
		notesContext +
		"\n\nAnswer using the content of these notes. If the notes do not contain relevant information, say so explicitly."
}
