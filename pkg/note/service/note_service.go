package service

import (
	"context"

	"studynotes/entities"
	"studynotes/pkg/validation"
)

// SearchHit is a note ranked against a free-text query.
type SearchHit struct {
	Note  entities.Note `json:"note"`
	Score float64       `json:"score"`
}

type NoteService interface {
	// Save validates in, records the author and stores the note. Embedding
	// enrichment is started afterwards and never fails the save.
	Save(ctx context.Context, userID, email string, in validation.NoteInput) (*entities.Note, error)
	List(ctx context.Context, userID string) ([]entities.Note, error)
	Get(ctx context.Context, userID, noteID string) (*entities.Note, error)
	Delete(ctx context.Context, userID, noteID string) error
	Search(ctx context.Context, userID, query string, k int) ([]SearchHit, error)
}
