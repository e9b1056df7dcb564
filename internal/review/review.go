package review

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nestlet/nestlet/internal/models"
	"github.com/nestlet/nestlet/internal/rating"
)

// Service errors
var (
	ErrUserNotFound   = errors.New("reviewed user not found")
	ErrSelfReview     = errors.New("users cannot review themselves")
	ErrInvalidRating  = errors.New("invalid rating: must be between 1 and 5")
	ErrCommentTooLong = errors.New("comment cannot exceed 500 characters")
)

// Comment length limit in characters
const MaxCommentLength = 500

// Service handles review submission and retrieval
type Service struct {
	db *pgxpool.Pool
}

// NewService creates a new review service
func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

// SubmitReviewRequest represents a request to submit a review
type SubmitReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=500"`
}

// SubmitReviewResponse carries the persisted review together with the
// reviewed user's recomputed rating summary
type SubmitReviewResponse struct {
	Review  models.Review  `json:"review"`
	Summary rating.Summary `json:"summary"`
}

// ReviewWithReviewer is a review enriched with the reviewer's public identity
type ReviewWithReviewer struct {
	ID               uuid.UUID `json:"id"`
	ReviewerID       uuid.UUID `json:"reviewer_id"`
	ReviewerUsername string    `json:"reviewer_username"`
	ReviewedUserID   uuid.UUID `json:"reviewed_user_id"`
	Rating           int       `json:"rating"`
	Comment          string    `json:"comment"`
	CreatedAt        time.Time `json:"created_at"`
}

// ReviewsResponse represents a user's reviews together with their aggregate
type ReviewsResponse struct {
	Reviews []ReviewWithReviewer `json:"reviews"`
	Count   int                  `json:"count"`
	Mean    float64              `json:"mean"`
}

// ValidateRating validates that the rating is within the acceptable range
func ValidateRating(r int) error {
	if r < 1 || r > 5 {
		return ErrInvalidRating
	}
	return nil
}

// ValidateComment validates the comment length
func ValidateComment(comment string) error {
	if utf8.RuneCountInString(comment) > MaxCommentLength {
		return ErrCommentTooLong
	}
	return nil
}

// Submit persists a new review and recomputes the reviewed user's cached
// rating summary in the same transaction. The reviewed user's row is
// locked for the duration of the transaction, so concurrent submissions
// for the same user serialize and the cache never loses an update.
// Handlers validate input before calling, but the service rejects
// out-of-range values again rather than trusting its caller.
func (s *Service) Submit(ctx context.Context, reviewerID, reviewedUserID uuid.UUID, req *SubmitReviewRequest) (*SubmitReviewResponse, error) {
	if err := ValidateRating(req.Rating); err != nil {
		return nil, err
	}
	if err := ValidateComment(req.Comment); err != nil {
		return nil, err
	}
	if reviewerID == reviewedUserID {
		return nil, ErrSelfReview
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the reviewed user's row. This doubles as the existence check
	// and serializes concurrent cache updates for the same user.
	var lockedID uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT id FROM users WHERE id = $1 FOR UPDATE
	`, reviewedUserID).Scan(&lockedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to lock reviewed user: %w", err)
	}

	var rev models.Review
	err = tx.QueryRow(ctx, `
		INSERT INTO reviews (reviewer_id, reviewed_user_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id, reviewer_id, reviewed_user_id, rating, comment, created_at
	`, reviewerID, reviewedUserID, req.Rating, req.Comment).Scan(
		&rev.ID, &rev.ReviewerID, &rev.ReviewedUserID, &rev.Rating,
		&rev.Comment, &rev.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	summary, err := s.aggregateForUser(ctx, tx, reviewedUserID)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE users SET avg_rating = $1, review_count = $2, updated_at = NOW()
		WHERE id = $3
	`, summary.Mean, summary.Count, reviewedUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to update rating cache: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &SubmitReviewResponse{Review: rev, Summary: summary}, nil
}

// GetForUser retrieves all reviews for a user, newest first, each enriched
// with the reviewer's username, together with the aggregate computed over
// the fetched set. An existing user with no reviews yields count 0, mean 0.
func (s *Service) GetForUser(ctx context.Context, userID uuid.UUID) (*ReviewsResponse, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)
	`, userID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}
	if !exists {
		return nil, ErrUserNotFound
	}

	rows, err := s.db.Query(ctx, `
		SELECT r.id, r.reviewer_id, u.username, r.reviewed_user_id,
			r.rating, r.comment, r.created_at
		FROM reviews r
		JOIN users u ON u.id = r.reviewer_id
		WHERE r.reviewed_user_id = $1
		ORDER BY r.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []ReviewWithReviewer
	var ratings []int
	for rows.Next() {
		var r ReviewWithReviewer
		err := rows.Scan(
			&r.ID, &r.ReviewerID, &r.ReviewerUsername, &r.ReviewedUserID,
			&r.Rating, &r.Comment, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, r)
		ratings = append(ratings, r.Rating)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reviews: %w", err)
	}

	summary := rating.AggregateRatings(ratings)

	return &ReviewsResponse{
		Reviews: reviews,
		Count:   summary.Count,
		Mean:    summary.Mean,
	}, nil
}

// aggregateForUser recomputes the rating summary from all persisted
// reviews for a user. Must run inside the submission transaction so the
// result reflects the freshly inserted row.
func (s *Service) aggregateForUser(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (rating.Summary, error) {
	rows, err := tx.Query(ctx, `
		SELECT rating FROM reviews WHERE reviewed_user_id = $1
	`, userID)
	if err != nil {
		return rating.Summary{}, fmt.Errorf("failed to load ratings: %w", err)
	}
	defer rows.Close()

	var ratings []int
	for rows.Next() {
		var r int
		if err := rows.Scan(&r); err != nil {
			return rating.Summary{}, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, r)
	}

	if err := rows.Err(); err != nil {
		return rating.Summary{}, fmt.Errorf("failed to iterate ratings: %w", err)
	}

	return rating.AggregateRatings(ratings), nil
}
