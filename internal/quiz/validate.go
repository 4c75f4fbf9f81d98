package quiz

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Kind classifies a validation finding.
type Kind string

const (
	KindMissingField                Kind = "MissingField"
	KindInvalidType                 Kind = "InvalidType"
	KindDuplicateID                 Kind = "DuplicateId"
	KindInvalidCount                Kind = "InvalidCount"
	KindUnknownPersonalityType      Kind = "UnknownPersonalityType"
	KindUnreferencedPersonalityType Kind = "UnreferencedPersonalityType"
	KindScoreOutOfRange             Kind = "ScoreOutOfRange"
	KindDegenerateQuestion          Kind = "DegenerateQuestion"
)

// ValidationError is a single finding against a quiz candidate.
// Warnings do not prevent the candidate from being accepted.
type ValidationError struct {
	Kind    Kind   `json:"kind"`
	Path    string `json:"path"`
	Message string `json:"message"`
	Warning bool   `json:"warning,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s at %s: %s", e.Kind, e.Path, e.Message)
}

// Report holds every finding of one validation run, in check order.
type Report struct {
	Violations []ValidationError `json:"violations"`
}

// Failed reports whether any finding is a hard failure.
func (r Report) Failed() bool {
	for _, v := range r.Violations {
		if !v.Warning {
			return true
		}
	}
	return false
}

// Errors returns the hard failures.
func (r Report) Errors() []ValidationError {
	return r.filter(false)
}

// Warnings returns the findings that do not block acceptance.
func (r Report) Warnings() []ValidationError {
	return r.filter(true)
}

func (r Report) filter(warning bool) []ValidationError {
	var out []ValidationError
	for _, v := range r.Violations {
		if v.Warning == warning {
			out = append(out, v)
		}
	}
	return out
}

// String renders one finding per line.
func (r Report) String() string {
	return FormatViolations(r.Violations)
}

// FormatViolations renders findings one per line, prefixed with "- ".
func FormatViolations(vs []ValidationError) string {
	var b strings.Builder
	for _, v := range vs {
		b.WriteString("- ")
		if v.Warning {
			b.WriteString("warning: ")
		}
		b.WriteString(v.Error())
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// Validate checks an untrusted candidate (typically decoded model output)
// against the quiz contract. It collects every finding instead of stopping
// at the first. The normalized quiz is returned only when no hard failure
// was found.
func Validate(candidate any) (*Quiz, Report) {
	w := &walker{}
	q := w.root(candidate)
	if q == nil || w.report.Failed() {
		return nil, w.report
	}
	return q, w.report
}

type walker struct {
	report Report
}

func (w *walker) fail(kind Kind, path, format string, args ...any) {
	w.report.Violations = append(w.report.Violations, ValidationError{
		Kind:    kind,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	})
}

func (w *walker) warn(kind Kind, path, format string, args ...any) {
	w.report.Violations = append(w.report.Violations, ValidationError{
		Kind:    kind,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
		Warning: true,
	})
}

func (w *walker) root(candidate any) *Quiz {
	root, ok := candidate.(map[string]any)
	if !ok {
		w.fail(KindInvalidType, "$", "response must be a JSON object, got %s", typeName(candidate))
		return nil
	}
	raw, present := root["quiz"]
	if !present || raw == nil {
		w.fail(KindMissingField, "quiz", "quiz is required")
		return nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		w.fail(KindInvalidType, "quiz", "quiz must be an object, got %s", typeName(raw))
		return nil
	}

	q := &Quiz{
		Title:       w.requireString(obj, "quiz", "title"),
		Description: w.requireString(obj, "quiz", "description"),
	}

	var declared map[string]bool
	q.PersonalityTypes, declared = w.personalityTypes(obj)

	referenced := make(map[string]bool)
	q.Questions = w.questions(obj, declared, referenced)

	for i, t := range q.PersonalityTypes {
		if t.ID != "" && !referenced[t.ID] {
			w.fail(KindUnreferencedPersonalityType,
				fmt.Sprintf("quiz.personalityTypes[%d]", i),
				"personality type %q is not scored by any choice", t.ID)
		}
	}
	return q
}

func (w *walker) personalityTypes(obj map[string]any) ([]PersonalityType, map[string]bool) {
	const path = "quiz.personalityTypes"
	declared := make(map[string]bool)

	arr, ok := w.requireArray(obj, "quiz", "personalityTypes")
	if !ok {
		return nil, declared
	}
	if len(arr) == 0 {
		w.fail(KindInvalidCount, path, "at least one personality type is required")
		return nil, declared
	}

	seen := make(map[string]int, len(arr))
	out := make([]PersonalityType, 0, len(arr))
	for i, el := range arr {
		p := fmt.Sprintf("%s[%d]", path, i)
		t, ok := el.(map[string]any)
		if !ok {
			w.fail(KindInvalidType, p, "personality type must be an object, got %s", typeName(el))
			continue
		}
		pt := PersonalityType{
			ID:          w.requireString(t, p, "id"),
			Name:        w.requireString(t, p, "name"),
			Description: w.requireString(t, p, "description"),
		}
		if pt.ID != "" {
			if first, dup := seen[pt.ID]; dup {
				w.fail(KindDuplicateID, p+".id",
					"personality type id %q already declared at %s[%d]", pt.ID, path, first)
			} else {
				seen[pt.ID] = i
				declared[pt.ID] = true
			}
		}
		out = append(out, pt)
	}
	return out, declared
}

func (w *walker) questions(obj map[string]any, declared, referenced map[string]bool) []Question {
	const path = "quiz.questions"

	arr, ok := w.requireArray(obj, "quiz", "questions")
	if !ok {
		return nil
	}
	if len(arr) != QuestionCount {
		w.fail(KindInvalidCount, path, "expected %d questions, got %d", QuestionCount, len(arr))
	}

	seen := make(map[string]int, len(arr))
	out := make([]Question, 0, len(arr))
	for i, el := range arr {
		p := fmt.Sprintf("%s[%d]", path, i)
		qo, ok := el.(map[string]any)
		if !ok {
			w.fail(KindInvalidType, p, "question must be an object, got %s", typeName(el))
			continue
		}
		qu := Question{
			ID:   w.requireString(qo, p, "id"),
			Text: w.requireString(qo, p, "text"),
		}
		if qu.ID != "" {
			if first, dup := seen[qu.ID]; dup {
				w.fail(KindDuplicateID, p+".id",
					"question id %q already used at %s[%d]", qu.ID, path, first)
			} else {
				seen[qu.ID] = i
			}
		}
		qu.Choices = w.choices(qo, p, qu.ID, declared, referenced)
		out = append(out, qu)
	}
	return out
}

func (w *walker) choices(qo map[string]any, qpath, questionID string, declared, referenced map[string]bool) []Choice {
	arr, ok := w.requireArray(qo, qpath, "choices")
	if !ok {
		return nil
	}
	if len(arr) != ChoiceCount {
		w.fail(KindInvalidCount, qpath+".choices",
			"question %q must have %d choices, got %d", questionID, ChoiceCount, len(arr))
	}

	seen := make(map[string]int, len(arr))
	out := make([]Choice, 0, len(arr))
	var scoredTypes []string
	allScored := true

	for j, el := range arr {
		p := fmt.Sprintf("%s.choices[%d]", qpath, j)
		co, ok := el.(map[string]any)
		if !ok {
			w.fail(KindInvalidType, p, "choice must be an object, got %s", typeName(el))
			allScored = false
			continue
		}
		c := Choice{
			ID:   w.requireString(co, p, "id"),
			Text: w.requireString(co, p, "text"),
		}
		if c.ID != "" {
			if first, dup := seen[c.ID]; dup {
				w.fail(KindDuplicateID, p+".id",
					"choice id %q already used in question %q at index %d", c.ID, questionID, first)
			} else {
				seen[c.ID] = j
			}
		}

		typeID, scores, ok := w.scores(co, p, c.ID, declared, referenced)
		if ok {
			scoredTypes = append(scoredTypes, typeID)
		} else {
			allScored = false
		}
		c.Scores = scores
		out = append(out, c)
	}

	if allScored && len(scoredTypes) > 1 && allSame(scoredTypes) {
		w.warn(KindDegenerateQuestion, qpath,
			"every choice of question %q scores %q; points should be spread across personality types",
			questionID, scoredTypes[0])
	}
	return out
}

// scores validates a choice's scores object. It returns the scored type,
// the normalized map and whether the entry is fully valid.
func (w *walker) scores(co map[string]any, cpath, choiceID string, declared, referenced map[string]bool) (string, map[string]int, bool) {
	p := cpath + ".scores"

	raw, present := co["scores"]
	if !present || raw == nil {
		w.fail(KindMissingField, p, "choice %q has no scores", choiceID)
		return "", nil, false
	}
	m, ok := raw.(map[string]any)
	if !ok {
		w.fail(KindInvalidType, p, "scores of choice %q must be an object, got %s", choiceID, typeName(raw))
		return "", nil, false
	}
	if len(m) != 1 {
		w.fail(KindInvalidCount, p,
			"choice %q must score exactly one personality type, got %d", choiceID, len(m))
		return "", nil, false
	}

	for key, val := range m {
		typeID := strings.TrimSpace(key)
		valid := true

		if !declared[typeID] {
			w.fail(KindUnknownPersonalityType, p,
				"choice %q scores undeclared personality type %q", choiceID, typeID)
			valid = false
		} else {
			referenced[typeID] = true
		}

		f, isNum := numberValue(val)
		switch {
		case !isNum:
			w.fail(KindInvalidType, p+"."+typeID,
				"score of choice %q must be an integer, got %s", choiceID, typeName(val))
			return typeID, nil, false
		case f != math.Trunc(f):
			w.fail(KindInvalidType, p+"."+typeID,
				"score of choice %q must be an integer, got %v", choiceID, f)
			return typeID, nil, false
		case f < MinChoiceScore || f > MaxChoiceScore:
			w.fail(KindScoreOutOfRange, p+"."+typeID,
				"choice %q awards %v points; scores must be between %d and %d",
				choiceID, f, MinChoiceScore, MaxChoiceScore)
			return typeID, nil, false
		}
		return typeID, map[string]int{typeID: int(f)}, valid
	}
	return "", nil, false
}

func (w *walker) requireString(obj map[string]any, parent, key string) string {
	p := parent + "." + key
	raw, present := obj[key]
	if !present || raw == nil {
		w.fail(KindMissingField, p, "%s is required", key)
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		w.fail(KindInvalidType, p, "%s must be a string, got %s", key, typeName(raw))
		return ""
	}
	s = strings.TrimSpace(s)
	if s == "" {
		w.fail(KindMissingField, p, "%s must not be empty", key)
	}
	return s
}

func (w *walker) requireArray(obj map[string]any, parent, key string) ([]any, bool) {
	p := parent + "." + key
	raw, present := obj[key]
	if !present || raw == nil {
		w.fail(KindMissingField, p, "%s is required", key)
		return nil, false
	}
	arr, ok := raw.([]any)
	if !ok {
		w.fail(KindInvalidType, p, "%s must be an array, got %s", key, typeName(raw))
		return nil, false
	}
	return arr, true
}

func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	if _, ok := numberValue(v); ok {
		return "number"
	}
	return fmt.Sprintf("%T", v)
}

func allSame(ids []string) bool {
	for _, id := range ids[1:] {
		if id != ids[0] {
			return false
		}
	}
	return true
}
