package repository

import (
	"context"

	"studynotes/entities"
)

// NoteRepository persists notes and the users that own them. Lookups of missing
// rows return *apperr.NotFoundError; storage failures return *apperr.PersistenceError.
type NoteRepository interface {
	FindByID(ctx context.Context, id string) (*entities.Note, error)
	// FindByOwner returns newest first. limit <= 0 means no limit.
	FindByOwner(ctx context.Context, ownerID string, limit int) ([]entities.Note, error)
	FindEmbedded(ctx context.Context, ownerID string) ([]entities.Note, error)
	Insert(ctx context.Context, n *entities.Note) error
	UpdateEmbedding(ctx context.Context, id string, vec []float32) error
	DeleteByID(ctx context.Context, id string) error
	UpsertUser(ctx context.Context, id, email string) error
}
