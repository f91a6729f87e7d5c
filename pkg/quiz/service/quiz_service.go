package service

import (
	"context"

	"studynotes/pkg/quiz/types"
)

type QuizService interface {
	// Generate builds a quiz from the content of one of the user's notes.
	Generate(ctx context.Context, userID, noteID string) (types.Quiz, error)
}
