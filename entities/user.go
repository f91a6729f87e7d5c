package entities

import "time"

// User is keyed by the id the identity provider hands us.
type User struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
