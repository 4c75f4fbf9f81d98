// Package quiz defines the personality quiz content contract: the quiz
// shape, the validator that turns untrusted model output into a usable
// quiz, and the scoring engine that resolves answers to a result.
package quiz

// Shape constants for a generated quiz.
const (
	QuestionCount  = 4
	ChoiceCount    = 4
	MinChoiceScore = 0
	MaxChoiceScore = 4
)

// PersonalityType is one labeled category a quiz result can resolve to.
type PersonalityType struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// Choice is one selectable answer. Scores holds exactly one entry,
// keyed by the personality type it awards points to.
type Choice struct {
	ID     string         `json:"id" yaml:"id"`
	Text   string         `json:"text" yaml:"text"`
	Scores map[string]int `json:"scores" yaml:"scores"`
}

// ScoredType returns the personality type id and points of the choice's
// single score entry.
func (c Choice) ScoredType() (string, int) {
	for id, pts := range c.Scores {
		return id, pts
	}
	return "", 0
}

// Question is a single quiz question with its ordered choices.
type Question struct {
	ID      string   `json:"id" yaml:"id"`
	Text    string   `json:"text" yaml:"text"`
	Choices []Choice `json:"choices" yaml:"choices"`
}

// Choice returns the choice with the given id, or nil.
func (q *Question) Choice(id string) *Choice {
	for i := range q.Choices {
		if q.Choices[i].ID == id {
			return &q.Choices[i]
		}
	}
	return nil
}

// Quiz is a validated personality quiz.
type Quiz struct {
	Title            string            `json:"title" yaml:"title"`
	Description      string            `json:"description" yaml:"description"`
	PersonalityTypes []PersonalityType `json:"personalityTypes" yaml:"personalityTypes"`
	Questions        []Question        `json:"questions" yaml:"questions"`
}

// PersonalityType returns the declared type with the given id, or nil.
func (q *Quiz) PersonalityType(id string) *PersonalityType {
	for i := range q.PersonalityTypes {
		if q.PersonalityTypes[i].ID == id {
			return &q.PersonalityTypes[i]
		}
	}
	return nil
}

// Question returns the question with the given id, or nil.
func (q *Quiz) Question(id string) *Question {
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return &q.Questions[i]
		}
	}
	return nil
}

// FirstQuestionText returns the text of the first question, or "".
func (q *Quiz) FirstQuestionText() string {
	if q == nil || len(q.Questions) == 0 {
		return ""
	}
	return q.Questions[0].Text
}

// Envelope is the top-level object the model is asked to return.
type Envelope struct {
	Quiz *Quiz `json:"quiz"`
}

// AnswerSelection is the choice a user picked for one question.
type AnswerSelection struct {
	QuestionID string `json:"questionId"`
	ChoiceID   string `json:"choiceId"`
}

// ScoreResult is the outcome of scoring a completed quiz.
type ScoreResult struct {
	Totals  map[string]int `json:"totals"`
	Winners []string       `json:"winners"`
}

// Primary returns the first winner in declaration order.
func (r *ScoreResult) Primary() string {
	if r == nil || len(r.Winners) == 0 {
		return ""
	}
	return r.Winners[0]
}
