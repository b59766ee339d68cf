package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wikireviews/backend/internal/middleware"
	"github.com/wikireviews/backend/internal/models"
	"github.com/wikireviews/backend/internal/reviews"
	"github.com/wikireviews/backend/internal/validate"
)

type ReviewHandler struct {
	repo *reviews.Repository
}

func NewReviewHandler(repo *reviews.Repository) *ReviewHandler {
	return &ReviewHandler{repo: repo}
}

// GetReviews returns one ordered page of a subject's reviews
func (h *ReviewHandler) GetReviews(c *gin.Context) {
	subjectID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page id"})
		return
	}

	opts := reviews.ListOptions{
		Sort:   reviews.SortMode(c.DefaultQuery("sort", string(reviews.SortSmart))),
		Limit:  atoiOrZero(c.Query("limit")),
		Offset: atoiOrZero(c.Query("offset")),
	}
	// Deleted reviews stay visible to admins only.
	if c.Query("status") == string(models.ReviewStatusDeleted) {
		if isAdmin, _ := c.Get("is_admin"); isAdmin != true {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		opts.Status = models.ReviewStatusDeleted
	}

	list, err := h.repo.ListForSubject(subjectID, opts)
	if err != nil {
		fail(c, err)
		return
	}
	if list == nil {
		list = []models.Review{}
	}
	c.JSON(http.StatusOK, list)
}

// GetStats returns the aggregate statistics for a subject page
func (h *ReviewHandler) GetStats(c *gin.Context) {
	subjectID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page id"})
		return
	}
	stats, err := h.repo.StatsForSubject(subjectID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// CreateReview submits a new review, from a registered user or anonymously
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	subjectID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page id"})
		return
	}

	var input struct {
		Rating     int    `json:"rating" binding:"required"`
		AuthorName string `json:"author_name"`
		Experience string `json:"experience"`
		Body       string `json:"body"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Rating is required"})
		return
	}

	content, err := validate.Review(validate.ReviewContent{
		Rating:     input.Rating,
		AuthorName: input.AuthorName,
		Experience: input.Experience,
		Body:       input.Body,
	})
	if err != nil {
		fail(c, err)
		return
	}

	ident := middleware.Caller(c)
	create := reviews.CreateInput{
		SubjectID:  subjectID,
		AuthorName: content.AuthorName,
		Rating:     content.Rating,
		Experience: content.Experience,
		Body:       content.Body,
	}
	if ident.Registered {
		id := ident.UserID
		create.AuthorID = &id
	} else {
		create.SessionToken = ident.SessionToken
		create.IPHash = ident.IPHash
	}

	review, err := h.repo.Create(create)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

// UpdateReview edits content fields of the caller's own review
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid review id"})
		return
	}

	var input struct {
		Rating     *int    `json:"rating"`
		AuthorName *string `json:"author_name"`
		Experience *string `json:"experience"`
		Body       *string `json:"body"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validate.ReviewPartial(input.Rating, input.AuthorName, input.Experience, input.Body); err != nil {
		fail(c, err)
		return
	}

	review, err := h.repo.Update(id, reviews.UpdateInput{
		Rating:     input.Rating,
		AuthorName: input.AuthorName,
		Experience: input.Experience,
		Body:       input.Body,
	}, middleware.Caller(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

// DeleteReview soft-deletes a review with a reason
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid review id"})
		return
	}

	var input struct {
		Reason string `json:"reason"`
	}
	// Reason body is optional
	_ = c.ShouldBindJSON(&input)

	if err := h.repo.Delete(id, middleware.Caller(c), input.Reason); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Review deleted successfully"})
}

// FlagReview marks a review as disputed or outdated, once per identity
func (h *ReviewHandler) FlagReview(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid review id"})
		return
	}

	var input struct {
		Outdated bool   `json:"outdated"`
		Reason   string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&input)

	if err := h.repo.Flag(id, middleware.Caller(c), input.Outdated, input.Reason); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Review flagged"})
}

func atoiOrZero(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
