package verify

import "errors"

var (
	ErrReviewNotFound     = errors.New("review not found")
	ErrVoteNotFound       = errors.New("verification vote not found")
	ErrVerificationLocked = errors.New("verification is locked on this review")
	ErrSelfVote           = errors.New("authors cannot verify their own review")
	ErrNotRegistered      = errors.New("only registered users can verify")
	ErrInvalidVerdict     = errors.New("unknown verdict")
	ErrConflict           = errors.New("concurrent vote mutation, retry")
)
