package handlers

import (
	"gorm.io/gorm"

	"github.com/wikireviews/backend/internal/reviews"
	"github.com/wikireviews/backend/internal/scoring"
	"github.com/wikireviews/backend/internal/verify"
)

// Handler combines all handler types
type Handler struct {
	Auth   *AuthHandler
	Review *ReviewHandler
	Verify *VerifyHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(db *gorm.DB, params scoring.Params) *Handler {
	return &Handler{
		Auth:   NewAuthHandler(db),
		Review: NewReviewHandler(reviews.NewRepository(db, params)),
		Verify: NewVerifyHandler(verify.NewLedger(db, params)),
	}
}
