package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wikireviews/backend/internal/config"
	"github.com/wikireviews/backend/internal/reviews"
	"github.com/wikireviews/backend/internal/validate"
	"github.com/wikireviews/backend/internal/verify"
)

// fail maps core error kinds onto HTTP responses. The core supplies the kind
// and minimal context; user-facing wording lives here.
func fail(c *gin.Context, err error) {
	var fieldErr validate.FieldError
	switch {
	case errors.As(err, &fieldErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "field": fieldErr.Field, "reason": fieldErr.Reason})
	case errors.Is(err, reviews.ErrReviewNotFound), errors.Is(err, verify.ErrReviewNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
	case errors.Is(err, verify.ErrVoteNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "No vote to withdraw"})
	case errors.Is(err, verify.ErrVerificationLocked):
		c.JSON(http.StatusLocked, gin.H{"error": "Verification is locked on this review"})
	case errors.Is(err, verify.ErrSelfVote):
		c.JSON(http.StatusForbidden, gin.H{"error": "You cannot verify your own review"})
	case errors.Is(err, verify.ErrNotRegistered):
		c.JSON(http.StatusForbidden, gin.H{"error": "Only registered users can verify"})
	case errors.Is(err, reviews.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only modify your own reviews"})
	case errors.Is(err, verify.ErrInvalidVerdict):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown verdict"})
	case errors.Is(err, reviews.ErrInvalidSortMode):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown sort mode"})
	case errors.Is(err, verify.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Concurrent update, please retry"})
	case errors.Is(err, reviews.ErrAlreadyFlagged):
		c.JSON(http.StatusConflict, gin.H{"error": "You already flagged this review"})
	default:
		config.LogError(config.GetLogger(), "handlers", "fail", c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
