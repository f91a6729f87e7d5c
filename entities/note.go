package entities

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

type Note struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	AuthorID  string    `gorm:"index;not null" json:"-"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`

	// nil until best-effort enrichment succeeds
	Embedding *pgvector.Vector `gorm:"type:text" json:"-"`
}

// HasEmbedding reports whether enrichment stored a vector for the note.
func (n *Note) HasEmbedding() bool {
	return n.Embedding != nil && len(n.Embedding.Slice()) > 0
}
