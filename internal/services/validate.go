package services

import (
	"errors"
	"fmt"
	"strings"
)

// IncompleteError lists the scale questions that have no numeric answer.
type IncompleteError struct {
	Missing []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("incomplete answers: %s", strings.Join(e.Missing, ", "))
}

// AsIncomplete extracts the missing-question list from err, if any.
func AsIncomplete(err error) (*IncompleteError, bool) {
	var ie *IncompleteError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// ValidateAnswers requires a numeric answer for every scale question, and that
// answer must be one of the question's option values. Multiple-choice and text
// questions are optional.
func ValidateAnswers(t *AssessmentTemplate, answers AnswerSet) error {
	if t == nil {
		return ErrTemplateNotFound
	}
	var missing, outOfRange []string
	for _, q := range t.Questions {
		if q.Type != QuestionScale {
			continue
		}
		v, ok := answers.ScaleValue(q.ID)
		switch {
		case !ok:
			missing = append(missing, q.ID)
		case !q.AcceptsScaleValue(v):
			outOfRange = append(outOfRange, q.ID)
		}
	}
	if len(outOfRange) > 0 {
		return NewInvalidError("answer is not an option value: " + strings.Join(outOfRange, ", "))
	}
	if len(missing) == 0 {
		return nil
	}
	ie := &IncompleteError{Missing: missing}
	return &ServiceError{Code: ErrorInvalid, Message: ie.Error(), Err: ie}
}
