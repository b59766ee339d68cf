package models

import (
	"time"

	"github.com/wikireviews/backend/internal/scoring"
)

// VerificationVote tracks one voter's current verdict on one review. The
// unique index is the storage-level guarantee behind one vote per user per
// review; application checks alone are not trusted.
type VerificationVote struct {
	ID        int             `gorm:"primaryKey" json:"id"`
	ReviewID  int             `gorm:"uniqueIndex:idx_review_voter;not null" json:"review_id"`
	VoterID   int             `gorm:"uniqueIndex:idx_review_voter;not null" json:"voter_id"`
	Verdict   scoring.Verdict `gorm:"not null" json:"verdict"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
