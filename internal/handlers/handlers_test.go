package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

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
		PendingThreshold:    1,
	}
}

// asUser stands in for the JWT middleware and stamps the caller's claims
// onto the request context.
func asUser(userID int, admin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID > 0 {
			c.Set("user_id", userID)
			c.Set("is_admin", admin)
		}
		c.Set("session_token", "test-session")
		c.Set("ip_hash", "test-hash")
		c.Next()
	}
}

func newTestRouter(t *testing.T, userID int, admin bool) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	h := NewHandler(db, testParams())
	r := gin.New()
	r.Use(asUser(userID, admin))
	r.GET("/api/pages/:id/reviews", h.Review.GetReviews)
	r.GET("/api/pages/:id/stats", h.Review.GetStats)
	r.POST("/api/pages/:id/reviews", h.Review.CreateReview)
	r.PUT("/api/reviews/:id", h.Review.UpdateReview)
	r.DELETE("/api/reviews/:id", h.Review.DeleteReview)
	r.POST("/api/reviews/:id/flag", h.Review.FlagReview)
	r.POST("/api/reviews/:id/verify", h.Verify.CastVote)
	r.DELETE("/api/reviews/:id/verify", h.Verify.WithdrawVote)
	r.POST("/api/reviews/:id/lock", h.Verify.LockVerification)
	r.DELETE("/api/reviews/:id/lock", h.Verify.UnlockVerification)
	return r, db
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedReviewRow(t *testing.T, db *gorm.DB, authorID int) int {
	t.Helper()
	id := authorID
	review := models.Review{
		SubjectID: 10,
		AuthorID:  &id,
		Rating:    4,
		Status:    models.ReviewStatusActive,
	}
	require.NoError(t, db.Create(&review).Error)
	return review.ID
}

func TestCreateReviewAnonymous(t *testing.T) {
	r, db := newTestRouter(t, 0, false)

	w := do(r, http.MethodPost, "/api/pages/10/reviews", `{"rating":5,"author_name":"Ada","body":"well sourced"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.Review
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Nil(t, created.AuthorID)
	assert.Equal(t, 5, created.Rating)

	var stored models.Review
	require.NoError(t, db.First(&stored, created.ID).Error)
	assert.Equal(t, "test-session", stored.SessionToken)
	assert.Equal(t, "test-hash", stored.IPHash)
}

func TestCreateReviewValidation(t *testing.T) {
	r, _ := newTestRouter(t, 1, false)

	w := do(r, http.MethodPost, "/api/pages/10/reviews", `{"body":"no rating"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/pages/10/reviews", `{"rating":7}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "rating")
}

func TestGetReviewsRejectsUnknownSort(t *testing.T) {
	r, _ := newTestRouter(t, 0, false)

	w := do(r, http.MethodGet, "/api/pages/10/reviews?sort=best", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "sort mode")
}

func TestGetReviewsEmptyPage(t *testing.T) {
	r, _ := newTestRouter(t, 0, false)

	w := do(r, http.MethodGet, "/api/pages/10/reviews", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestDeletedFilterIsAdminOnly(t *testing.T) {
	r, _ := newTestRouter(t, 1, false)
	w := do(r, http.MethodGet, "/api/pages/10/reviews?status=deleted", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin, _ := newTestRouter(t, 1, true)
	w = do(admin, http.MethodGet, "/api/pages/10/reviews?status=deleted", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateForeignReview(t *testing.T) {
	r, db := newTestRouter(t, 2, false)
	id := seedReviewRow(t, db, 1)

	w := do(r, http.MethodPut, "/api/reviews/"+itoa(id), `{"rating":1}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteAndNotFound(t *testing.T) {
	r, db := newTestRouter(t, 1, false)
	id := seedReviewRow(t, db, 1)

	w := do(r, http.MethodDelete, "/api/reviews/"+itoa(id), `{"reason":"outdated"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodDelete, "/api/reviews/"+itoa(id), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVerifyLifecycleOverHTTP(t *testing.T) {
	r, db := newTestRouter(t, 2, false)
	id := seedReviewRow(t, db, 1)
	path := "/api/reviews/" + itoa(id) + "/verify"

	w := do(r, http.MethodPost, path, `{"verdict":"true"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var summary struct {
		Status scoring.Status `json:"status"`
		Total  int            `json:"total"`
		Score  float64        `json:"score"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, scoring.StatusAccurate, summary.Status)
	assert.Equal(t, 1, summary.Total)

	w = do(r, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVerifyRejectsSelfAndBadVerdict(t *testing.T) {
	r, db := newTestRouter(t, 1, false)
	id := seedReviewRow(t, db, 1)
	path := "/api/reviews/" + itoa(id) + "/verify"

	w := do(r, http.MethodPost, path, `{"verdict":"true"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodPost, path, `{"verdict":"fake"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVerifyRequiresAuthentication(t *testing.T) {
	r, db := newTestRouter(t, 0, false)
	id := seedReviewRow(t, db, 1)

	w := do(r, http.MethodPost, "/api/reviews/"+itoa(id)+"/verify", `{"verdict":"true"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLockBlocksVoting(t *testing.T) {
	admin, db := newTestRouter(t, 9, true)
	id := seedReviewRow(t, db, 1)

	w := do(admin, http.MethodPost, "/api/reviews/"+itoa(id)+"/lock", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(admin, http.MethodPost, "/api/reviews/"+itoa(id)+"/verify", `{"verdict":"true"}`)
	assert.Equal(t, http.StatusLocked, w.Code)

	w = do(admin, http.MethodDelete, "/api/reviews/"+itoa(id)+"/lock", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(admin, http.MethodPost, "/api/reviews/"+itoa(id)+"/verify", `{"verdict":"true"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFlagConflict(t *testing.T) {
	r, db := newTestRouter(t, 2, false)
	id := seedReviewRow(t, db, 1)
	path := "/api/reviews/" + itoa(id) + "/flag"

	w := do(r, http.MethodPost, path, `{"outdated":true,"reason":"page was rewritten"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, path, `{"outdated":true}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestStatsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, 1, false)

	w := do(r, http.MethodPost, "/api/pages/10/reviews", `{"rating":4}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(r, http.MethodGet, "/api/pages/10/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	var stats models.PageStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.ReviewCount)
	assert.Equal(t, 1, stats.Star4)
}

func itoa(id int) string {
	return strconv.Itoa(id)
}
