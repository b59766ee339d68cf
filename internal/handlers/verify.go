package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/wikireviews/backend/internal/scoring"
	"github.com/wikireviews/backend/internal/verify"
)

type VerifyHandler struct {
	ledger *verify.Ledger
}

func NewVerifyHandler(ledger *verify.Ledger) *VerifyHandler {
	return &VerifyHandler{ledger: ledger}
}

func extractUserID(c *gin.Context) (int, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case uint:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// CastVote records or replaces the caller's verdict on a review and returns
// the refreshed verification summary
func (h *VerifyHandler) CastVote(c *gin.Context) {
	reviewID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid review id"})
		return
	}

	voterID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Verdict string `json:"verdict" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Verdict is required"})
		return
	}

	verdict := scoring.Verdict(input.Verdict)
	if !verdict.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown verdict"})
		return
	}

	summary, err := h.ledger.Cast(reviewID, voterID, verdict)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// WithdrawVote removes the caller's live vote on a review
func (h *VerifyHandler) WithdrawVote(c *gin.Context) {
	reviewID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid review id"})
		return
	}

	voterID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	summary, err := h.ledger.Withdraw(reviewID, voterID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// LockVerification freezes voting on a review (admin)
func (h *VerifyHandler) LockVerification(c *gin.Context) {
	h.setLock(c, true)
}

// UnlockVerification restores voting on a review (admin)
func (h *VerifyHandler) UnlockVerification(c *gin.Context) {
	h.setLock(c, false)
}

func (h *VerifyHandler) setLock(c *gin.Context, locked bool) {
	reviewID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid review id"})
		return
	}

	actorID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if locked {
		err = h.ledger.Lock(reviewID, actorID)
	} else {
		err = h.ledger.Unlock(reviewID, actorID)
	}
	if err != nil {
		fail(c, err)
		return
	}

	message := "Verification locked"
	if !locked {
		message = "Verification unlocked"
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}
