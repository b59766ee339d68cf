// Package reviews owns review records and the per-page aggregate statistics.
// It writes content and lifecycle fields only; verdict counters and derived
// scores belong to the verification ledger, the repository just seeds them
// at creation time.
package reviews

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wikireviews/backend/internal/identity"
	"github.com/wikireviews/backend/internal/models"
	"github.com/wikireviews/backend/internal/scoring"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Repository struct {
	db     *gorm.DB
	params scoring.Params

	// Now is the injected clock; tests override it.
	Now func() time.Time
}

func NewRepository(db *gorm.DB, params scoring.Params) *Repository {
	return &Repository{db: db, params: params, Now: time.Now}
}

// CreateInput is pre-validated content; bounds checking happens in the
// validate package before it reaches the repository.
type CreateInput struct {
	SubjectID    int
	AuthorID     *int
	AuthorName   string
	SessionToken string
	IPHash       string
	Rating       int
	Experience   string
	Body         string
}

// Create inserts a review seeded with zero tallies, a zero verification
// score and the fixed seed sort score, then recomputes the page aggregates.
func (r *Repository) Create(input CreateInput) (*models.Review, error) {
	review := models.Review{
		SubjectID:    input.SubjectID,
		AuthorID:     input.AuthorID,
		AuthorName:   input.AuthorName,
		SessionToken: input.SessionToken,
		IPHash:       input.IPHash,
		Rating:       input.Rating,
		Experience:   input.Experience,
		Body:         input.Body,
		Status:       models.ReviewStatusActive,
		SortScore:    scoring.SeedSortScore(r.params),
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&review).Error; err != nil {
			return err
		}
		if err := models.LogAction(tx, review.ID, input.AuthorID, input.IPHash,
			models.ActionCreate, "", nil); err != nil {
			return err
		}
		return r.refreshStats(tx, input.SubjectID)
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// UpdateInput carries the content fields an author may change. Nil means
// leave as-is.
type UpdateInput struct {
	Rating     *int
	AuthorName *string
	Experience *string
	Body       *string
}

// Update mutates content fields only. Verdict counters and derived scores are
// never touched here. The aggregate refresh runs only when the rating moved.
func (r *Repository) Update(id int, input UpdateInput, editor identity.Identity) (*models.Review, error) {
	var review models.Review
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&review, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReviewNotFound
			}
			return err
		}
		if review.Status != models.ReviewStatusActive {
			return ErrReviewNotFound
		}
		if !ownedBy(&review, editor) {
			return ErrUnauthorized
		}

		updates := map[string]any{}
		ratingChanged := false
		if input.Rating != nil && *input.Rating != review.Rating {
			updates["rating"] = *input.Rating
			review.Rating = *input.Rating
			ratingChanged = true
		}
		if input.AuthorName != nil {
			updates["author_name"] = *input.AuthorName
			review.AuthorName = *input.AuthorName
		}
		if input.Experience != nil {
			updates["experience"] = *input.Experience
			review.Experience = *input.Experience
		}
		if input.Body != nil {
			updates["body"] = *input.Body
			review.Body = *input.Body
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&models.Review{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		if err := models.LogAction(tx, id, actorPtr(editor), editor.IPHash,
			models.ActionUpdate, "", nil); err != nil {
			return err
		}
		if ratingChanged {
			return r.refreshStats(tx, review.SubjectID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// Delete soft-deletes a review and recomputes the page aggregates.
// Verification vote history is retained.
func (r *Repository) Delete(id int, actor identity.Identity, reason string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var review models.Review
		if err := tx.First(&review, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReviewNotFound
			}
			return err
		}
		if review.Status != models.ReviewStatusActive {
			return ErrReviewNotFound
		}
		if !actor.Admin && !ownedBy(&review, actor) {
			return ErrUnauthorized
		}
		if err := tx.Model(&models.Review{}).Where("id = ?", id).
			Update("status", models.ReviewStatusDeleted).Error; err != nil {
			return err
		}
		if err := models.LogAction(tx, id, actorPtr(actor), actor.IPHash,
			models.ActionDelete, reason, nil); err != nil {
			return err
		}
		return r.refreshStats(tx, review.SubjectID)
	})
}

// Get returns one review by id regardless of status.
func (r *Repository) Get(id int) (*models.Review, error) {
	var review models.Review
	if err := r.db.First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return &review, nil
}

// ListOptions shapes one page of a subject's reviews.
type ListOptions struct {
	Sort   SortMode
	Limit  int
	Offset int
	// Status filters by lifecycle state; empty means active only.
	Status models.ReviewStatus
}

// ListForSubject reads one ordered page. Sort order comes straight from the
// persisted sort_score; nothing is recomputed at read time.
func (r *Repository) ListForSubject(subjectID int, opts ListOptions) ([]models.Review, error) {
	if opts.Sort == "" {
		opts.Sort = SortSmart
	}
	if !opts.Sort.Valid() {
		return nil, ErrInvalidSortMode
	}
	status := opts.Status
	if status == "" {
		status = models.ReviewStatusActive
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	q := r.db.Where("subject_id = ? AND status = ?", subjectID, status)
	q = opts.Sort.apply(q)

	var out []models.Review
	if err := q.Limit(limit).Offset(opts.Offset).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// StatsForSubject reads the aggregate row; a subject with no reviews yet
// gets a zero-valued row rather than an error.
func (r *Repository) StatsForSubject(subjectID int) (*models.PageStats, error) {
	var stats models.PageStats
	err := r.db.Where("subject_id = ?", subjectID).First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.PageStats{SubjectID: subjectID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Flag marks a review as disputed or outdated. One flag per identity per
// review, deduplicated through an indexed action-log lookup on
// (action, review_id, actor or ip hash).
func (r *Repository) Flag(id int, actor identity.Identity, outdated bool, reason string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var review models.Review
		if err := tx.First(&review, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReviewNotFound
			}
			return err
		}
		if review.Status != models.ReviewStatusActive {
			return ErrReviewNotFound
		}

		dup := tx.Model(&models.ActionLog{}).
			Where("action = ? AND review_id = ?", models.ActionFlag, id)
		if actor.Registered {
			dup = dup.Where("actor_id = ?", actor.UserID)
		} else {
			dup = dup.Where("ip_hash = ?", actor.IPHash)
		}
		var seen int64
		if err := dup.Count(&seen).Error; err != nil {
			return err
		}
		if seen > 0 {
			return ErrAlreadyFlagged
		}

		updates := map[string]any{"flag_count": gorm.Expr("flag_count + 1")}
		if outdated {
			updates["outdated_flag_count"] = gorm.Expr("outdated_flag_count + 1")
		}
		if err := tx.Model(&models.Review{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		return models.LogAction(tx, id, actorPtr(actor), actor.IPHash,
			models.ActionFlag, reason, map[string]any{"outdated": outdated})
	})
}

// refreshStats fully recomputes the subject's aggregate row from active
// reviews. Full recompute keeps it idempotent and safe to run concurrently
// with itself; last writer wins.
func (r *Repository) refreshStats(tx *gorm.DB, subjectID int) error {
	var agg struct {
		ReviewCount   int
		AverageRating float64
	}
	err := tx.Model(&models.Review{}).
		Select("COUNT(*) AS review_count, COALESCE(AVG(rating), 0) AS average_rating").
		Where("subject_id = ? AND status = ?", subjectID, models.ReviewStatusActive).
		Scan(&agg).Error
	if err != nil {
		return err
	}

	var buckets []struct {
		Rating int
		N      int
	}
	err = tx.Model(&models.Review{}).
		Select("rating, COUNT(*) AS n").
		Where("subject_id = ? AND status = ?", subjectID, models.ReviewStatusActive).
		Group("rating").
		Scan(&buckets).Error
	if err != nil {
		return err
	}

	stats := models.PageStats{
		SubjectID:     subjectID,
		ReviewCount:   agg.ReviewCount,
		AverageRating: agg.AverageRating,
		UpdatedAt:     r.Now(),
	}
	for _, b := range buckets {
		switch b.Rating {
		case 1:
			stats.Star1 = b.N
		case 2:
			stats.Star2 = b.N
		case 3:
			stats.Star3 = b.N
		case 4:
			stats.Star4 = b.N
		case 5:
			stats.Star5 = b.N
		}
	}

	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "subject_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"review_count", "average_rating",
			"star1", "star2", "star3", "star4", "star5",
			"updated_at",
		}),
	}).Create(&stats).Error
}

func ownedBy(review *models.Review, ident identity.Identity) bool {
	if review.AuthorID != nil {
		return ident.Registered && *review.AuthorID == ident.UserID
	}
	return review.SessionToken != "" && review.SessionToken == ident.SessionToken
}

func actorPtr(ident identity.Identity) *int {
	if !ident.Registered {
		return nil
	}
	id := ident.UserID
	return &id
}
