// Package validate bounds-checks review content before it reaches the
// repository. The scoring core assumes content arriving there is already
// clean.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var v = validator.New()

// ReviewContent is the cleaned, bounds-checked shape of user content.
type ReviewContent struct {
	Rating     int    `validate:"required,min=1,max=5"`
	AuthorName string `validate:"max=80"`
	Experience string `validate:"max=500"`
	Body       string `validate:"max=5000"`
}

// FieldError reports which field failed and why, for the API surface to
// render; the core only ever sees the typed failure.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ReviewPartial bounds-checks only the fields present in a content edit.
func ReviewPartial(rating *int, authorName, experience, body *string) error {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return FieldError{Field: "rating", Reason: "must be between 1 and 5"}
	}
	if authorName != nil && len(strings.TrimSpace(*authorName)) > 80 {
		return FieldError{Field: "author_name", Reason: "failed max constraint"}
	}
	if experience != nil && len(strings.TrimSpace(*experience)) > 500 {
		return FieldError{Field: "experience", Reason: "failed max constraint"}
	}
	if body != nil && len(strings.TrimSpace(*body)) > 5000 {
		return FieldError{Field: "body", Reason: "failed max constraint"}
	}
	return nil
}

// Review trims and bounds-checks content. Returns the cleaned content or the
// first field-level failure.
func Review(content ReviewContent) (ReviewContent, error) {
	content.AuthorName = strings.TrimSpace(content.AuthorName)
	content.Experience = strings.TrimSpace(content.Experience)
	content.Body = strings.TrimSpace(content.Body)

	if err := v.Struct(content); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return content, FieldError{
				Field:  strings.ToLower(first.Field()),
				Reason: fmt.Sprintf("failed %s constraint", first.Tag()),
			}
		}
		return content, err
	}
	return content, nil
}
