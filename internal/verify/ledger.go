// Package verify owns verification vote state: one row per (review, voter),
// the review's verdict counters, and the derived score fields. It is the only
// writer of those counters; every mutation runs as one transactional unit so
// concurrent votes on the same review never lose an increment.
package verify

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wikireviews/backend/internal/models"
	"github.com/wikireviews/backend/internal/scoring"
)

// Summary is the verification state returned after every vote mutation.
type Summary struct {
	Status scoring.Status `json:"status"`
	Total  int            `json:"total"`
	Score  float64        `json:"score"`
}

type Ledger struct {
	db     *gorm.DB
	params scoring.Params

	// Now is the injected clock; tests override it.
	Now func() time.Time
}

func NewLedger(db *gorm.DB, params scoring.Params) *Ledger {
	return &Ledger{db: db, params: params, Now: time.Now}
}

// CanVerify is the pure voting gate: registered voter, active unlocked
// review, voter is not the author. Handlers use it to decide whether to
// surface voting UI; Cast and Withdraw re-evaluate it inside the
// transaction, so a display-time answer is never trusted at mutation time.
func CanVerify(review *models.Review, voterID int) error {
	if voterID <= 0 {
		return ErrNotRegistered
	}
	if review.Status != models.ReviewStatusActive {
		return ErrReviewNotFound
	}
	if review.VerifyLocked {
		return ErrVerificationLocked
	}
	if review.AuthoredBy(voterID) {
		return ErrSelfVote
	}
	return nil
}

// Cast records or replaces voterID's verdict on a review and returns the
// refreshed verification summary. Re-submitting the identical verdict is a
// success with no writes at all.
func (l *Ledger) Cast(reviewID, voterID int, verdict scoring.Verdict) (Summary, error) {
	if !verdict.Valid() {
		return Summary{}, ErrInvalidVerdict
	}
	var out Summary
	err := l.db.Transaction(func(tx *gorm.DB) error {
		review, err := l.lockReview(tx, reviewID)
		if err != nil {
			return err
		}
		if err := CanVerify(review, voterID); err != nil {
			return err
		}

		var existing models.VerificationVote
		findErr := tx.Where("review_id = ? AND voter_id = ?", reviewID, voterID).
			First(&existing).Error

		action := models.ActionVerifyCast
		switch {
		case findErr == nil:
			if existing.Verdict == verdict {
				out = l.summarize(review)
				return nil
			}
			previous := existing.Verdict
			existing.Verdict = verdict
			existing.UpdatedAt = l.Now()
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			review.ApplyVerdict(previous, -1)
			review.ApplyVerdict(verdict, +1)
			action = models.ActionVerifyChange
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			vote := models.VerificationVote{ReviewID: reviewID, VoterID: voterID, Verdict: verdict}
			if err := tx.Create(&vote).Error; err != nil {
				if isDuplicateKey(err) {
					return ErrConflict
				}
				return err
			}
			review.ApplyVerdict(verdict, +1)
		default:
			return findErr
		}

		if err := l.persistScores(tx, review); err != nil {
			return err
		}
		if err := models.LogAction(tx, reviewID, &voterID, "", action, "",
			map[string]any{"verdict": verdict}); err != nil {
			return err
		}
		out = l.summarize(review)
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	return out, nil
}

// Withdraw removes voterID's live vote and rolls its counter back.
func (l *Ledger) Withdraw(reviewID, voterID int) (Summary, error) {
	var out Summary
	err := l.db.Transaction(func(tx *gorm.DB) error {
		review, err := l.lockReview(tx, reviewID)
		if err != nil {
			return err
		}
		if err := CanVerify(review, voterID); err != nil {
			return err
		}

		var vote models.VerificationVote
		if err := tx.Where("review_id = ? AND voter_id = ?", reviewID, voterID).
			First(&vote).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVoteNotFound
			}
			return err
		}
		if err := tx.Delete(&vote).Error; err != nil {
			return err
		}
		review.ApplyVerdict(vote.Verdict, -1)

		if err := l.persistScores(tx, review); err != nil {
			return err
		}
		if err := models.LogAction(tx, reviewID, &voterID, "", models.ActionVerifyWithdraw, "",
			map[string]any{"verdict": vote.Verdict}); err != nil {
			return err
		}
		out = l.summarize(review)
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	return out, nil
}

// Lock freezes verification voting on a review. Tallies and scores are left
// untouched; only future vote transitions are refused. Idempotent.
func (l *Ledger) Lock(reviewID, actorID int) error {
	return l.setLocked(reviewID, actorID, true)
}

// Unlock restores normal voting.
func (l *Ledger) Unlock(reviewID, actorID int) error {
	return l.setLocked(reviewID, actorID, false)
}

func (l *Ledger) setLocked(reviewID, actorID int, locked bool) error {
	return l.db.Transaction(func(tx *gorm.DB) error {
		review, err := l.lockReview(tx, reviewID)
		if err != nil {
			return err
		}
		if review.VerifyLocked == locked {
			return nil
		}
		if err := tx.Model(&models.Review{}).Where("id = ?", reviewID).
			Update("verify_locked", locked).Error; err != nil {
			return err
		}
		action := models.ActionVerifyLock
		if !locked {
			action = models.ActionVerifyUnlock
		}
		return models.LogAction(tx, reviewID, &actorID, "", action, "", nil)
	})
}

// Summarize reports the current verification summary without mutating.
func (l *Ledger) Summarize(reviewID int) (Summary, error) {
	var review models.Review
	if err := l.db.First(&review, reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Summary{}, ErrReviewNotFound
		}
		return Summary{}, err
	}
	return l.summarize(&review), nil
}

func (l *Ledger) summarize(review *models.Review) Summary {
	return Summary{
		Status: scoring.VerificationStatus(review.VerifyScore, review.TotalVotes, l.params.PendingThreshold),
		Total:  review.TotalVotes,
		Score:  review.VerifyScore,
	}
}

// lockReview reads the review row under an exclusive row lock so the
// counter-update-and-recompute sequence is serialized per review.
func (l *Ledger) lockReview(tx *gorm.DB, reviewID int) (*models.Review, error) {
	var review models.Review
	if err := forUpdate(tx).First(&review, reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return &review, nil
}

// persistScores recomputes the derived fields from the in-transaction
// counters and writes counters and scores back in one UPDATE.
func (l *Ledger) persistScores(tx *gorm.DB, review *models.Review) error {
	counts := review.Counts()
	review.TotalVotes = counts.Total()
	review.VerifyScore = scoring.VerificationScore(counts)
	ageDays := l.Now().Sub(review.CreatedAt).Hours() / 24
	review.SortScore = scoring.SortScore(review.VerifyScore, review.TotalVotes, ageDays, l.params)

	return tx.Model(&models.Review{}).Where("id = ?", review.ID).Updates(map[string]any{
		"true_count":         review.TrueCount,
		"mostly_true_count":  review.MostlyTrueCount,
		"mixed_count":        review.MixedCount,
		"mostly_false_count": review.MostlyFalseCount,
		"false_count":        review.FalseCount,
		"inconclusive_count": review.InconclusiveCount,
		"total_votes":        review.TotalVotes,
		"verify_score":       review.VerifyScore,
		"sort_score":         review.SortScore,
	}).Error
}

// forUpdate applies SELECT ... FOR UPDATE on dialects that support it.
// SQLite (tests) serializes writers on its own and rejects the clause.
func forUpdate(tx *gorm.DB) *gorm.DB {
	switch tx.Dialector.Name() {
	case "postgres", "mysql":
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
