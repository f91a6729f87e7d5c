package serviceImp

import (
	"context"

	"github.com/sirupsen/logrus"

	"studynotes/pkg/apperr"
	"studynotes/pkg/note/repository"
	"studynotes/pkg/quiz/service"
	"studynotes/pkg/quiz/types"
)

// QuizGenerator turns note content into a validated quiz.
type QuizGenerator interface {
	GenerateQuiz(ctx context.Context, noteContent string) (types.Quiz, error)
}

type Svc struct {
	notes repository.NoteRepository
	gen   QuizGenerator
	log   logrus.FieldLogger
}

var _ service.QuizService = (*Svc)(nil)

func New(notes repository.NoteRepository, gen QuizGenerator, log logrus.FieldLogger) *Svc {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Svc{notes: notes, gen: gen, log: log}
}

// Generate only reads the note's content; the title is not sent to the model.
// A note owned by someone else is reported as not found.
func (s *Svc) Generate(ctx context.Context, userID, noteID string) (types.Quiz, error) {
	if userID == "" {
		return nil, &apperr.AuthenticationError{}
	}
	n, err := s.notes.FindByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if n.AuthorID != userID {
		return nil, &apperr.NotFoundError{Resource: "note", ID: noteID}
	}

	quiz, err := s.gen.GenerateQuiz(ctx, n.Content)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"note_id": noteID, "questions": len(quiz)}).Info("quiz generated")
	return quiz, nil
}
