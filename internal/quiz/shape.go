package quiz

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Decode parses raw model text as exactly one JSON value. Numbers are
// kept as json.Number so integer checks see the original text. Prose
// around the JSON is an error, not something to strip.
func Decode(text string) (any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("empty response")
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("invalid JSON: unexpected content after the JSON value")
	}
	return v, nil
}

// IsStructurallyValid reports whether candidate has the quiz shape:
// every required field present with the right JSON type. It does not
// check counts, ranges, uniqueness or cross references.
func IsStructurallyValid(candidate any) bool {
	root, ok := candidate.(map[string]any)
	if !ok {
		return false
	}
	q, ok := root["quiz"].(map[string]any)
	if !ok {
		return false
	}
	if !hasStrings(q, "title", "description") {
		return false
	}

	types, ok := q["personalityTypes"].([]any)
	if !ok {
		return false
	}
	for _, t := range types {
		obj, ok := t.(map[string]any)
		if !ok || !hasStrings(obj, "id", "name", "description") {
			return false
		}
	}

	questions, ok := q["questions"].([]any)
	if !ok {
		return false
	}
	for _, qu := range questions {
		obj, ok := qu.(map[string]any)
		if !ok || !hasStrings(obj, "id", "text") {
			return false
		}
		choices, ok := obj["choices"].([]any)
		if !ok {
			return false
		}
		for _, c := range choices {
			co, ok := c.(map[string]any)
			if !ok || !hasStrings(co, "id", "text") {
				return false
			}
			scores, ok := co["scores"].(map[string]any)
			if !ok {
				return false
			}
			for _, v := range scores {
				if !isNumber(v) {
					return false
				}
			}
		}
	}
	return true
}

// ToCandidate converts a typed quiz back into the untyped envelope the
// validator accepts.
func ToCandidate(q *Quiz) any {
	if q == nil {
		return map[string]any{}
	}

	types := make([]any, len(q.PersonalityTypes))
	for i, t := range q.PersonalityTypes {
		types[i] = map[string]any{
			"id":          t.ID,
			"name":        t.Name,
			"description": t.Description,
		}
	}

	questions := make([]any, len(q.Questions))
	for i, qu := range q.Questions {
		choices := make([]any, len(qu.Choices))
		for j, c := range qu.Choices {
			scores := make(map[string]any, len(c.Scores))
			for k, v := range c.Scores {
				scores[k] = v
			}
			choices[j] = map[string]any{
				"id":     c.ID,
				"text":   c.Text,
				"scores": scores,
			}
		}
		questions[i] = map[string]any{
			"id":      qu.ID,
			"text":    qu.Text,
			"choices": choices,
		}
	}

	return map[string]any{
		"quiz": map[string]any{
			"title":            q.Title,
			"description":      q.Description,
			"personalityTypes": types,
			"questions":        questions,
		},
	}
}

func hasStrings(obj map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := obj[k].(string); !ok {
			return false
		}
	}
	return true
}

func isNumber(v any) bool {
	switch v.(type) {
	case json.Number, float64, float32, int, int64, int32:
		return true
	}
	return false
}
