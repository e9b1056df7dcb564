package models

import (
	"time"

	"github.com/google/uuid"
)

// Review represents a review one user left for another. Reviews are
// immutable once created; only the seeder's bulk reset removes them.
type Review struct {
	ID             uuid.UUID `json:"id" db:"id"`
	ReviewerID     uuid.UUID `json:"reviewer_id" db:"reviewer_id"`
	ReviewedUserID uuid.UUID `json:"reviewed_user_id" db:"reviewed_user_id"`
	Rating         int       `json:"rating" db:"rating"`
	Comment        string    `json:"comment" db:"comment"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
