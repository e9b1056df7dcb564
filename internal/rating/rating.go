package rating

import (
	"github.com/nestlet/nestlet/internal/models"
)

// Summary is the aggregate of the ratings a user has received.
type Summary struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
}

// Aggregate computes the count and mean rating over a set of reviews for
// one reviewed user. The order of the input does not affect the result.
// An empty set yields a zero Summary; division by zero never escapes.
func Aggregate(reviews []models.Review) Summary {
	ratings := make([]int, len(reviews))
	for i, r := range reviews {
		ratings[i] = r.Rating
	}
	return AggregateRatings(ratings)
}

// AggregateRatings computes the summary over raw rating values.
// A missing rating (zero value on malformed legacy rows) contributes 0
// to the sum instead of failing; persistence-side validation keeps new
// rows inside [1,5] so this cannot silently skew the mean.
func AggregateRatings(ratings []int) Summary {
	count := len(ratings)
	if count == 0 {
		return Summary{}
	}

	total := 0
	for _, r := range ratings {
		total += r
	}

	return Summary{
		Count: count,
		Mean:  float64(total) / float64(count),
	}
}
