package models

import (
	"time"

	"github.com/wikireviews/backend/internal/scoring"
)

// ReviewStatus is the lifecycle state of a review. Deletes are soft only.
type ReviewStatus string

const (
	ReviewStatusActive  ReviewStatus = "active"
	ReviewStatusDeleted ReviewStatus = "deleted"
)

func (s ReviewStatus) Valid() bool {
	return s == ReviewStatusActive || s == ReviewStatusDeleted
}

// Review is one user's star rating and write-up of a wiki page, together with
// its community verification tallies and the derived score fields.
//
// Exactly one of AuthorID / (SessionToken, IPHash) identifies the author:
// registered users carry an id, anonymous users a session cookie token plus a
// hashed origin IP.
//
// The six verdict counters, TotalVotes and the two derived scores are owned by
// the verification ledger; the repository only seeds them at creation and
// never mutates them afterwards.
type Review struct {
	ID        int `gorm:"primaryKey" json:"id"`
	SubjectID int `gorm:"index;not null" json:"subject_id"`

	AuthorID     *int   `gorm:"index" json:"author_id,omitempty"`
	AuthorName   string `json:"author_name"`
	SessionToken string `gorm:"index" json:"-"`
	IPHash       string `json:"-"`

	Rating     int    `gorm:"not null" json:"rating"`
	Experience string `json:"experience"`
	Body       string `json:"body"`

	Status ReviewStatus `gorm:"index;default:active" json:"status"`

	TrueCount         int `gorm:"default:0" json:"true_count"`
	MostlyTrueCount   int `gorm:"default:0" json:"mostly_true_count"`
	MixedCount        int `gorm:"default:0" json:"mixed_count"`
	MostlyFalseCount  int `gorm:"default:0" json:"mostly_false_count"`
	FalseCount        int `gorm:"default:0" json:"false_count"`
	InconclusiveCount int `gorm:"default:0" json:"inconclusive_count"`

	// Denormalized sum of the six counters, kept for ORDER BY most-verified.
	TotalVotes int `gorm:"default:0" json:"total_votes"`

	VerifyScore  float64 `gorm:"default:0" json:"verify_score"`
	SortScore    float64 `gorm:"index" json:"sort_score"`
	VerifyLocked bool    `gorm:"default:false" json:"verify_locked"`

	FlagCount         int `gorm:"default:0" json:"flag_count"`
	OutdatedFlagCount int `gorm:"default:0" json:"outdated_flag_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Counts snapshots the verdict tallies for the score calculator.
func (r *Review) Counts() scoring.VoteCounts {
	return scoring.VoteCounts{
		True:         r.TrueCount,
		MostlyTrue:   r.MostlyTrueCount,
		Mixed:        r.MixedCount,
		MostlyFalse:  r.MostlyFalseCount,
		False:        r.FalseCount,
		Inconclusive: r.InconclusiveCount,
	}
}

// ApplyVerdict adjusts the counter for one verdict by delta (+1 or -1).
func (r *Review) ApplyVerdict(v scoring.Verdict, delta int) {
	switch v {
	case scoring.VerdictTrue:
		r.TrueCount += delta
	case scoring.VerdictMostlyTrue:
		r.MostlyTrueCount += delta
	case scoring.VerdictMixed:
		r.MixedCount += delta
	case scoring.VerdictMostlyFalse:
		r.MostlyFalseCount += delta
	case scoring.VerdictFalse:
		r.FalseCount += delta
	case scoring.VerdictInconclusive:
		r.InconclusiveCount += delta
	}
}

// AuthoredBy reports whether the given registered user wrote this review.
func (r *Review) AuthoredBy(userID int) bool {
	return r.AuthorID != nil && *r.AuthorID == userID
}
