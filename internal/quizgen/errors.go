package quizgen

import (
	"fmt"

	"github.com/abhisek/quizzly/internal/quiz"
)

// ErrModelUnavailable means a model call failed or timed out before any
// usable reply came back. It is terminal for the request.
type ErrModelUnavailable struct {
	Err error
}

func (e *ErrModelUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model unavailable: %v", e.Err)
	}
	return "model unavailable"
}

func (e *ErrModelUnavailable) Unwrap() error { return e.Err }

// ErrUnrepairableResponse means the model's reply was still unusable after
// the repair attempt. RawText is the last reply; ParseErr is set when it
// was not JSON, otherwise Violations lists what failed.
type ErrUnrepairableResponse struct {
	RawText    string
	Violations []quiz.ValidationError
	ParseErr   error
}

func (e *ErrUnrepairableResponse) Error() string {
	if e.ParseErr != nil {
		return fmt.Sprintf("unrepairable model response: %v", e.ParseErr)
	}
	return fmt.Sprintf("unrepairable model response: %d violation(s)", len(e.Violations))
}

func (e *ErrUnrepairableResponse) Unwrap() error { return e.ParseErr }

// Details renders the failure for API callers and logs.
func (e *ErrUnrepairableResponse) Details() string {
	if e.ParseErr != nil {
		return "reply is not valid JSON: " + e.ParseErr.Error()
	}
	return quiz.FormatViolations(e.Violations)
}
