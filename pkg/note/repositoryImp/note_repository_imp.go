package repositoryImp

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"studynotes/entities"
	"studynotes/pkg/apperr"
	"studynotes/pkg/note/repository"
)

type repo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.NoteRepository { return &repo{db} }

func (r *repo) FindByID(ctx context.Context, id string) (*entities.Note, error) {
	var n entities.Note
	err := r.db.WithContext(ctx).First(&n, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &apperr.NotFoundError{Resource: "note", ID: id}
	}
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "find note", Err: err}
	}
	return &n, nil
}

func (r *repo) FindByOwner(ctx context.Context, ownerID string, limit int) ([]entities.Note, error) {
	var ns []entities.Note
	q := r.db.WithContext(ctx).
		Where("author_id = ?", ownerID).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&ns).Error; err != nil {
		return nil, &apperr.PersistenceError{Op: "list notes", Err: err}
	}
	return ns, nil
}

func (r *repo) FindEmbedded(ctx context.Context, ownerID string) ([]entities.Note, error) {
	var ns []entities.Note
	err := r.db.WithContext(ctx).
		Where("author_id = ? AND embedding IS NOT NULL", ownerID).
		Order("created_at DESC").
		Find(&ns).Error
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "list embedded notes", Err: err}
	}
	return ns, nil
}

func (r *repo) Insert(ctx context.Context, n *entities.Note) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return &apperr.PersistenceError{Op: "insert note", Err: err}
	}
	return nil
}

func (r *repo) UpdateEmbedding(ctx context.Context, id string, vec []float32) error {
	v := pgvector.NewVector(vec)
	res := r.db.WithContext(ctx).Model(&entities.Note{}).Where("id = ?", id).Update("embedding", &v)
	if res.Error != nil {
		return &apperr.PersistenceError{Op: "update embedding", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return &apperr.NotFoundError{Resource: "note", ID: id}
	}
	return nil
}

func (r *repo) DeleteByID(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&entities.Note{}, "id = ?", id)
	if res.Error != nil {
		return &apperr.PersistenceError{Op: "delete note", Err: res.Error}
	}
	if res.RowsAffected == 0 {
		return &apperr.NotFoundError{Resource: "note", ID: id}
	}
	return nil
}

// UpsertUser creates the user row on first sight. A non-empty email overwrites the stored one.
func (r *repo) UpsertUser(ctx context.Context, id, email string) error {
	onConflict := clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}
	if email != "" {
		onConflict = clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "updated_at"}),
		}
	}
	u := entities.User{ID: id, Email: email}
	if err := r.db.WithContext(ctx).Clauses(onConflict).Create(&u).Error; err != nil {
		return &apperr.PersistenceError{Op: "upsert user", Err: err}
	}
	return nil
}
