package review

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestValidateRating(t *testing.T) {
	for _, r := range []int{1, 2, 3, 4, 5} {
		if err := ValidateRating(r); err != nil {
			t.Fatalf("Rating %d should be valid: %v", r, err)
		}
	}
	for _, r := range []int{0, -1, 6, 100} {
		if err := ValidateRating(r); !errors.Is(err, ErrInvalidRating) {
			t.Fatalf("Rating %d should be invalid, got: %v", r, err)
		}
	}
}

func TestValidateComment(t *testing.T) {
	if err := ValidateComment(""); err != nil {
		t.Fatalf("Empty comment should be valid: %v", err)
	}
	if err := ValidateComment(strings.Repeat("a", MaxCommentLength)); err != nil {
		t.Fatalf("Comment at the limit should be valid: %v", err)
	}
	if err := ValidateComment(strings.Repeat("a", MaxCommentLength+1)); !errors.Is(err, ErrCommentTooLong) {
		t.Fatalf("Comment over the limit should be invalid, got: %v", err)
	}
	// Limit counts characters, not bytes
	if err := ValidateComment(strings.Repeat("é", MaxCommentLength)); err != nil {
		t.Fatalf("Multibyte comment at the limit should be valid: %v", err)
	}
}

// Validation failures must be rejected before any storage access: the
// service here has no database behind it.
func TestSubmitRejectsBeforePersistence(t *testing.T) {
	ctx := context.Background()
	service := NewService(nil)

	reviewer := uuid.New()
	reviewed := uuid.New()

	_, err := service.Submit(ctx, reviewer, reviewed, &SubmitReviewRequest{Rating: 0})
	if !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("Expected ErrInvalidRating, got: %v", err)
	}

	_, err = service.Submit(ctx, reviewer, reviewed, &SubmitReviewRequest{Rating: 6})
	if !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("Expected ErrInvalidRating, got: %v", err)
	}

	_, err = service.Submit(ctx, reviewer, reviewed, &SubmitReviewRequest{
		Rating:  4,
		Comment: strings.Repeat("x", MaxCommentLength+1),
	})
	if !errors.Is(err, ErrCommentTooLong) {
		t.Fatalf("Expected ErrCommentTooLong, got: %v", err)
	}

	_, err = service.Submit(ctx, reviewer, reviewer, &SubmitReviewRequest{Rating: 4})
	if !errors.Is(err, ErrSelfReview) {
		t.Fatalf("Expected ErrSelfReview, got: %v", err)
	}
}
