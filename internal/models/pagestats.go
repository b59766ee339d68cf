package models

import "time"

// PageStats is the per-subject aggregate row: review count, average rating and
// the per-star histogram. It is a full recompute from active reviews on every
// relevant write, so concurrent refreshes are last-writer-wins safe.
type PageStats struct {
	ID            int       `gorm:"primaryKey" json:"-"`
	SubjectID     int       `gorm:"uniqueIndex;not null" json:"subject_id"`
	ReviewCount   int       `gorm:"default:0" json:"review_count"`
	AverageRating float64   `gorm:"default:0" json:"average_rating"`
	Star1         int       `gorm:"default:0" json:"star_1"`
	Star2         int       `gorm:"default:0" json:"star_2"`
	Star3         int       `gorm:"default:0" json:"star_3"`
	Star4         int       `gorm:"default:0" json:"star_4"`
	Star5         int       `gorm:"default:0" json:"star_5"`
	UpdatedAt     time.Time `json:"updated_at"`
}
