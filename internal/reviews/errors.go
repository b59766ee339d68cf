package reviews

import "errors"

var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrUnauthorized    = errors.New("not allowed to modify this review")
	ErrInvalidSortMode = errors.New("unknown sort mode")
	ErrAlreadyFlagged  = errors.New("review already flagged by this identity")
)
