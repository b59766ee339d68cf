package reviews

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/wikireviews/backend/internal/identity"
	"github.com/wikireviews/backend/internal/models"
	"github.com/wikireviews/backend/internal/scoring"
)

func testParams() scoring.Params {
	return scoring.Params{
		VerificationWeight:  0.5,
		RecencyWeight:       0.3,
		HalfLifeDays:        30,
		StaleThresholdDays:  180,
		StalePenalty:        0.5,
		ConfidenceThreshold: 10,
		ConfidenceWeight:    0.1,
		PendingThreshold:    3,
	}
}

func newTestRepo(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Review{},
		&models.VerificationVote{},
		&models.PageStats{},
		&models.ActionLog{},
	))
	return NewRepository(db, testParams()), db
}

func registered(userID int) identity.Identity {
	return identity.Identity{UserID: userID, Registered: true}
}

func anonymous(token, ipHash string) identity.Identity {
	return identity.Identity{SessionToken: token, IPHash: ipHash}
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func TestCreateSeedsScores(t *testing.T) {
	repo, db := newTestRepo(t)
	params := testParams()

	review, err := repo.Create(CreateInput{
		SubjectID: 10,
		AuthorID:  intPtr(1),
		Rating:    5,
		Body:      "solid page",
	})
	require.NoError(t, err)

	got := reloadReview(t, db, review.ID)
	assert.Equal(t, models.ReviewStatusActive, got.Status)
	assert.False(t, got.VerifyLocked)
	assert.Zero(t, got.TotalVotes)
	assert.Zero(t, got.VerifyScore)
	// Seed is the fixed neutral-verification / max-freshness value, not the
	// general formula evaluated at age zero.
	assert.InDelta(t, params.VerificationWeight*0.5+params.RecencyWeight*1.0, got.SortScore, 1e-12)

	// Creation is audited and aggregates refreshed.
	var entries int64
	db.Model(&models.ActionLog{}).Where("action = ?", models.ActionCreate).Count(&entries)
	assert.EqualValues(t, 1, entries)

	stats, err := repo.StatsForSubject(10)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ReviewCount)
	assert.InDelta(t, 5.0, stats.AverageRating, 1e-9)
	assert.Equal(t, 1, stats.Star5)
}

func TestSeedScoreTracksConfiguredWeights(t *testing.T) {
	repo, db := newTestRepo(t)
	custom := testParams()
	custom.VerificationWeight = 0.8
	custom.RecencyWeight = 0.15
	repo.params = custom

	review, err := repo.Create(CreateInput{SubjectID: 1, AuthorID: intPtr(1), Rating: 3})
	require.NoError(t, err)

	got := reloadReview(t, db, review.ID)
	assert.InDelta(t, 0.8*0.5+0.15, got.SortScore, 1e-12)
}

func TestUpdateContentOnly(t *testing.T) {
	repo, db := newTestRepo(t)
	review, err := repo.Create(CreateInput{SubjectID: 10, AuthorID: intPtr(1), Rating: 5, Body: "original"})
	require.NoError(t, err)

	// Simulate ledger-owned state so we can prove Update leaves it alone.
	require.NoError(t, db.Model(&models.Review{}).Where("id = ?", review.ID).Updates(map[string]any{
		"true_count": 2, "total_votes": 2, "verify_score": 2.0,
	}).Error)

	updated, err := repo.Update(review.ID, UpdateInput{
		Rating: intPtr(3),
		Body:   strPtr("edited"),
	}, registered(1))
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Rating)
	assert.Equal(t, "edited", updated.Body)

	got := reloadReview(t, db, review.ID)
	assert.Equal(t, 2, got.TrueCount)
	assert.Equal(t, 2, got.TotalVotes)
	assert.InDelta(t, 2.0, got.VerifyScore, 1e-9)

	// Rating change refreshed the aggregates.
	stats, err := repo.StatsForSubject(10)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, stats.AverageRating, 1e-9)
	assert.Equal(t, 1, stats.Star3)
	assert.Zero(t, stats.Star5)
}

func TestUpdateRequiresOwnership(t *testing.T) {
	repo, _ := newTestRepo(t)
	review, err := repo.Create(CreateInput{SubjectID: 10, AuthorID: intPtr(1), Rating: 5})
	require.NoError(t, err)

	_, err = repo.Update(review.ID, UpdateInput{Rating: intPtr(1)}, registered(2))
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAnonymousOwnershipBySession(t *testing.T) {
	repo, _ := newTestRepo(t)
	review, err := repo.Create(CreateInput{
		SubjectID:    10,
		SessionToken: "tok-a",
		IPHash:       identity.HashIP("10.0.0.1"),
		Rating:       4,
	})
	require.NoError(t, err)

	_, err = repo.Update(review.ID, UpdateInput{Rating: intPtr(2)}, anonymous("tok-b", "x"))
	assert.ErrorIs(t, err, ErrUnauthorized)

	updated, err := repo.Update(review.ID, UpdateInput{Rating: intPtr(2)}, anonymous("tok-a", "x"))
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Rating)
}

func TestSoftDelete(t *testing.T) {
	repo, db := newTestRepo(t)
	review, err := repo.Create(CreateInput{SubjectID: 10, AuthorID: intPtr(1), Rating: 5})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(review.ID, registered(1), "no longer relevant"))

	// Row survives with deleted status; aggregates drop it.
	got := reloadReview(t, db, review.ID)
	assert.Equal(t, models.ReviewStatusDeleted, got.Status)

	stats, err := repo.StatsForSubject(10)
	require.NoError(t, err)
	assert.Zero(t, stats.ReviewCount)

	var entry models.ActionLog
	require.NoError(t, db.Where("action = ?", models.ActionDelete).First(&entry).Error)
	assert.Equal(t, "no longer relevant", entry.Reason)

	// Deleting twice reports not found.
	assert.ErrorIs(t, repo.Delete(review.ID, registered(1), ""), ErrReviewNotFound)
}

func TestAdminMayDeleteAnyReview(t *testing.T) {
	repo, _ := newTestRepo(t)
	review, err := repo.Create(CreateInput{SubjectID: 10, AuthorID: intPtr(1), Rating: 5})
	require.NoError(t, err)

	admin := identity.Identity{UserID: 42, Registered: true, Admin: true}
	require.NoError(t, repo.Delete(review.ID, admin, "policy"))
}

func TestListSortModes(t *testing.T) {
	repo, db := newTestRepo(t)

	seed := func(rating int, sortScore float64, totalVotes int, created time.Time) int {
		review := models.Review{
			SubjectID:  10,
			AuthorID:   intPtr(1),
			Rating:     rating,
			Status:     models.ReviewStatusActive,
			SortScore:  sortScore,
			TotalVotes: totalVotes,
			CreatedAt:  created,
		}
		require.NoError(t, db.Create(&review).Error)
		return review.ID
	}

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := seed(5, 0.9, 3, base)                   // high score, oldest
	b := seed(3, 0.5, 10, base.Add(time.Hour))   // most votes
	c := seed(5, 0.7, 1, base.Add(2*time.Hour))  // newest five-star
	d := seed(1, 0.95, 0, base.Add(3*time.Hour)) // top sort score, lowest rating

	ids := func(list []models.Review) []int {
		out := make([]int, len(list))
		for i, r := range list {
			out[i] = r.ID
		}
		return out
	}

	list, err := repo.ListForSubject(10, ListOptions{Sort: SortSmart})
	require.NoError(t, err)
	assert.Equal(t, []int{d, a, c, b}, ids(list))

	list, err = repo.ListForSubject(10, ListOptions{Sort: SortNewest})
	require.NoError(t, err)
	assert.Equal(t, []int{d, c, b, a}, ids(list))

	list, err = repo.ListForSubject(10, ListOptions{Sort: SortOldest})
	require.NoError(t, err)
	assert.Equal(t, []int{a, b, c, d}, ids(list))

	// Equal ratings tie-break on sort score.
	list, err = repo.ListForSubject(10, ListOptions{Sort: SortHighestRating})
	require.NoError(t, err)
	assert.Equal(t, []int{a, c, b, d}, ids(list))

	list, err = repo.ListForSubject(10, ListOptions{Sort: SortLowestRating})
	require.NoError(t, err)
	assert.Equal(t, []int{d, b, c, a}, ids(list))

	list, err = repo.ListForSubject(10, ListOptions{Sort: SortMostVerified})
	require.NoError(t, err)
	assert.Equal(t, []int{b, a, c, d}, ids(list))
}

func TestListRejectsUnknownSortMode(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.ListForSubject(10, ListOptions{Sort: SortMode("best")})
	assert.ErrorIs(t, err, ErrInvalidSortMode)
}

func TestListPaging(t *testing.T) {
	repo, _ := newTestRepo(t)
	for i := 0; i < 5; i++ {
		_, err := repo.Create(CreateInput{SubjectID: 10, AuthorID: intPtr(1), Rating: 5})
		require.NoError(t, err)
	}

	page, err := repo.ListForSubject(10, ListOptions{Sort: SortOldest, Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	tail, err := repo.ListForSubject(10, ListOptions{Sort: SortOldest, Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, tail, 1)
}

func TestStatsHistogram(t *testing.T) {
	repo, _ := newTestRepo(t)
	for _, rating := range []int{5, 5, 4, 2, 1} {
		_, err := repo.Create(CreateInput{SubjectID: 10, AuthorID: intPtr(1), Rating: rating})
		require.NoError(t, err)
	}

	stats, err := repo.StatsForSubject(10)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.ReviewCount)
	assert.InDelta(t, 3.4, stats.AverageRating, 1e-9)
	assert.Equal(t, 1, stats.Star1)
	assert.Equal(t, 1, stats.Star2)
	assert.Zero(t, stats.Star3)
	assert.Equal(t, 1, stats.Star4)
	assert.Equal(t, 2, stats.Star5)
}

func TestStatsForUnknownSubject(t *testing.T) {
	repo, _ := newTestRepo(t)
	stats, err := repo.StatsForSubject(999)
	require.NoError(t, err)
	assert.Zero(t, stats.ReviewCount)
	assert.Zero(t, stats.AverageRating)
}

func TestFlagDeduplicates(t *testing.T) {
	repo, db := newTestRepo(t)
	review, err := repo.Create(CreateInput{SubjectID: 10, AuthorID: intPtr(1), Rating: 5})
	require.NoError(t, err)

	// Registered flagger: once only.
	require.NoError(t, repo.Flag(review.ID, registered(2), false, "wrong facts"))
	assert.ErrorIs(t, repo.Flag(review.ID, registered(2), false, "again"), ErrAlreadyFlagged)

	// Anonymous flaggers dedup on hashed IP, not on the whole log payload.
	ipA := identity.HashIP("203.0.113.7")
	require.NoError(t, repo.Flag(review.ID, anonymous("tok-1", ipA), true, ""))
	assert.ErrorIs(t, repo.Flag(review.ID, anonymous("tok-2", ipA), true, ""), ErrAlreadyFlagged)

	ipB := identity.HashIP("203.0.113.8")
	require.NoError(t, repo.Flag(review.ID, anonymous("tok-3", ipB), false, ""))

	got := reloadReview(t, db, review.ID)
	assert.Equal(t, 3, got.FlagCount)
	assert.Equal(t, 1, got.OutdatedFlagCount)
}

func reloadReview(t *testing.T, db *gorm.DB, id int) *models.Review {
	t.Helper()
	var review models.Review
	require.NoError(t, db.First(&review, id).Error)
	return &review
}
