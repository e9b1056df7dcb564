package rating

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nestlet/nestlet/internal/models"
	"pgregory.net/rapid"
)

// TestAggregateEmptySet tests that an empty review set yields a zero
// summary and no division-by-zero fault.
func TestAggregateEmptySet(t *testing.T) {
	s := Aggregate(nil)
	if s.Count != 0 {
		t.Fatalf("Expected count 0, got %d", s.Count)
	}
	if s.Mean != 0 {
		t.Fatalf("Expected mean 0, got %f", s.Mean)
	}

	s = Aggregate([]models.Review{})
	if s.Count != 0 || s.Mean != 0 {
		t.Fatalf("Expected zero summary, got %+v", s)
	}
}

// TestAggregateMeanBounds tests that for any set of valid ratings the
// mean equals the arithmetic average and lies within [1,5].
func TestAggregateMeanBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ratings := rapid.SliceOfN(rapid.IntRange(1, 5), 1, 200).Draw(rt, "ratings")

		s := AggregateRatings(ratings)

		if s.Count != len(ratings) {
			t.Fatalf("PROPERTY VIOLATION: count %d != len %d", s.Count, len(ratings))
		}

		total := 0
		for _, r := range ratings {
			total += r
		}
		want := float64(total) / float64(len(ratings))

		if math.Abs(s.Mean-want) > 1e-9 {
			t.Fatalf("PROPERTY VIOLATION: mean %f != average %f", s.Mean, want)
		}
		if s.Mean < 1 || s.Mean > 5 {
			t.Fatalf("PROPERTY VIOLATION: mean %f outside [1,5]", s.Mean)
		}
	})
}

// TestAggregateOrderInvariance tests that the aggregate does not depend
// on the order of the input set.
func TestAggregateOrderInvariance(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ratings := rapid.SliceOfN(rapid.IntRange(1, 5), 1, 50).Draw(rt, "ratings")

		forward := AggregateRatings(ratings)

		reversed := make([]int, len(ratings))
		for i, r := range ratings {
			reversed[len(ratings)-1-i] = r
		}
		backward := AggregateRatings(reversed)

		if forward != backward {
			t.Fatalf("PROPERTY VIOLATION: %+v != %+v", forward, backward)
		}
	})
}

// TestAggregatePurity tests that Aggregate never mutates its input.
func TestAggregatePurity(t *testing.T) {
	reviews := []models.Review{
		{ID: uuid.New(), Rating: 5, CreatedAt: time.Now()},
		{ID: uuid.New(), Rating: 3, CreatedAt: time.Now()},
	}

	before := make([]models.Review, len(reviews))
	copy(before, reviews)

	_ = Aggregate(reviews)
	_ = Aggregate(reviews)

	for i := range reviews {
		if reviews[i] != before[i] {
			t.Fatalf("Input mutated at index %d", i)
		}
	}
}

// TestAggregateMalformedRating tests that a missing rating (zero value
// on a legacy row) contributes 0 to the sum instead of failing.
func TestAggregateMalformedRating(t *testing.T) {
	s := AggregateRatings([]int{0, 4})
	if s.Count != 2 {
		t.Fatalf("Expected count 2, got %d", s.Count)
	}
	if s.Mean != 2.0 {
		t.Fatalf("Expected mean 2.0, got %f", s.Mean)
	}
}

// TestAggregateScenario walks the canonical two-review scenario: a first
// 5-star review then a 3-star review for the same user.
func TestAggregateScenario(t *testing.T) {
	first := AggregateRatings([]int{5})
	if first.Count != 1 || first.Mean != 5.0 {
		t.Fatalf("Expected {1, 5.0}, got %+v", first)
	}

	second := AggregateRatings([]int{5, 3})
	if second.Count != 2 || second.Mean != 4.0 {
		t.Fatalf("Expected {2, 4.0}, got %+v", second)
	}
}
