package quiz

import "fmt"

// ScoringErrorKind classifies why a set of answers could not be scored.
type ScoringErrorKind string

const (
	ScoringMissingAnswer ScoringErrorKind = "MissingAnswer"
	ScoringUnknownChoice ScoringErrorKind = "UnknownChoice"
)

// ScoringError describes an answer set that does not fit the quiz.
type ScoringError struct {
	Kind       ScoringErrorKind
	QuestionID string
	ChoiceID   string
	Message    string
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Score totals the points of the selected choices per personality type
// and picks the winners. Ties keep every tied type, ordered as the types
// were declared in the quiz.
func Score(q *Quiz, answers []AnswerSelection) (*ScoreResult, error) {
	if q == nil {
		return nil, &ScoringError{Kind: ScoringMissingAnswer, Message: "no quiz to score"}
	}
	byQuestion := make(map[string]AnswerSelection, len(answers))
	for _, a := range answers {
		if q.Question(a.QuestionID) == nil {
			return nil, &ScoringError{
				Kind:       ScoringMissingAnswer,
				QuestionID: a.QuestionID,
				Message:    fmt.Sprintf("answer references unknown question %q", a.QuestionID),
			}
		}
		if _, dup := byQuestion[a.QuestionID]; dup {
			return nil, &ScoringError{
				Kind:       ScoringMissingAnswer,
				QuestionID: a.QuestionID,
				Message:    fmt.Sprintf("question %q answered more than once", a.QuestionID),
			}
		}
		byQuestion[a.QuestionID] = a
	}

	for _, qu := range q.Questions {
		if _, ok := byQuestion[qu.ID]; !ok {
			return nil, &ScoringError{
				Kind:       ScoringMissingAnswer,
				QuestionID: qu.ID,
				Message:    fmt.Sprintf("question %q has no answer", qu.ID),
			}
		}
	}

	totals := make(map[string]int, len(q.PersonalityTypes))
	for _, t := range q.PersonalityTypes {
		totals[t.ID] = 0
	}

	for i := range q.Questions {
		qu := &q.Questions[i]
		a := byQuestion[qu.ID]
		c := qu.Choice(a.ChoiceID)
		if c == nil {
			return nil, &ScoringError{
				Kind:       ScoringUnknownChoice,
				QuestionID: qu.ID,
				ChoiceID:   a.ChoiceID,
				Message:    fmt.Sprintf("choice %q does not belong to question %q", a.ChoiceID, qu.ID),
			}
		}
		typeID, pts := c.ScoredType()
		totals[typeID] += pts
	}

	return &ScoreResult{
		Totals:  totals,
		Winners: winners(q.PersonalityTypes, totals),
	}, nil
}

func winners(types []PersonalityType, totals map[string]int) []string {
	best := -1
	for _, t := range types {
		if totals[t.ID] > best {
			best = totals[t.ID]
		}
	}
	var out []string
	for _, t := range types {
		if totals[t.ID] == best {
			out = append(out, t.ID)
		}
	}
	return out
}
