package reviews

import "gorm.io/gorm"

// SortMode selects the ORDER BY strategy for a review listing. Unknown values
// are rejected at the boundary instead of silently falling back to smart.
type SortMode string

const (
	SortSmart         SortMode = "smart"
	SortNewest        SortMode = "newest"
	SortOldest        SortMode = "oldest"
	SortHighestRating SortMode = "highest-rating"
	SortLowestRating  SortMode = "lowest-rating"
	SortMostVerified  SortMode = "most-verified"
)

func (m SortMode) Valid() bool {
	switch m {
	case SortSmart, SortNewest, SortOldest,
		SortHighestRating, SortLowestRating, SortMostVerified:
		return true
	}
	return false
}

// apply adds the ORDER BY pair for this mode. Each mode has a documented
// tie-break so paging stays stable.
func (m SortMode) apply(q *gorm.DB) *gorm.DB {
	switch m {
	case SortSmart:
		return q.Order("sort_score DESC").Order("created_at DESC")
	case SortNewest:
		return q.Order("created_at DESC")
	case SortOldest:
		return q.Order("created_at ASC")
	case SortHighestRating:
		return q.Order("rating DESC").Order("sort_score DESC")
	case SortLowestRating:
		return q.Order("rating ASC").Order("created_at DESC")
	case SortMostVerified:
		return q.Order("total_votes DESC").Order("created_at DESC")
	}
	return q
}
