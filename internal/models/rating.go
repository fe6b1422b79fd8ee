package models

import (
	"fmt"
	"math"

	"github.com/dmitrijs2005/brewlog/internal/common"
)

const (
	MinRating = 0
	MaxRating = 5
)

// Rating is a score between MinRating and MaxRating inclusive. Halves are
// allowed.
type Rating float64

// Validate returns common.ErrInvalidRating unless r is a number in [0, 5].
func (r Rating) Validate() error {
	if math.IsNaN(float64(r)) || r < MinRating || r > MaxRating {
		return fmt.Errorf("%w: got %v", common.ErrInvalidRating, float64(r))
	}
	return nil
}

// Stars renders the rating as filled and empty stars, rounding halves up.
func (r Rating) Stars() string {
	full := int(float64(r) + 0.5)
	if full < MinRating {
		full = MinRating
	}
	if full > MaxRating {
		full = MaxRating
	}
	out := make([]rune, 0, MaxRating)
	for i := 0; i < MaxRating; i++ {
		if i < full {
			out = append(out, '★')
		} else {
			out = append(out, '☆')
		}
	}
	return string(out)
}
