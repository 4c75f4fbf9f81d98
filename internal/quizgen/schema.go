package quizgen

import (
	"github.com/abhisek/quizzly/internal/llm"
	"github.com/abhisek/quizzly/internal/quiz"
)

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

// QuizSchema is the JSON schema sent in structured output mode. Scores are
// an open-ended object keyed by type id, so the schema is not strict.
var QuizSchema = &llm.Schema{
	Name:        "personality-quiz",
	Description: "A personality quiz with typed results and scored choices",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"quiz": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title":       stringProp("Quiz title shown to players"),
					"description": stringProp("One or two sentences introducing the quiz"),
					"personalityTypes": map[string]any{
						"type":     "array",
						"minItems": 1,
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"id":          stringProp("Short stable id, e.g. analyst"),
								"name":        stringProp("Display name of the result"),
								"description": stringProp("What this result says about the player"),
							},
							"required": []any{"id", "name", "description"},
						},
					},
					"questions": map[string]any{
						"type":     "array",
						"minItems": quiz.QuestionCount,
						"maxItems": quiz.QuestionCount,
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"id":   stringProp("Question id unique in the quiz, e.g. q1"),
								"text": stringProp("The question"),
								"choices": map[string]any{
									"type":     "array",
									"minItems": quiz.ChoiceCount,
									"maxItems": quiz.ChoiceCount,
									"items": map[string]any{
										"type": "object",
										"properties": map[string]any{
											"id":   stringProp("Choice id unique in its question, e.g. q1a"),
											"text": stringProp("The answer text"),
											"scores": map[string]any{
												"type":          "object",
												"description":   "Exactly one entry: personality type id to points",
												"minProperties": 1,
												"maxProperties": 1,
												"additionalProperties": map[string]any{
													"type":    "integer",
													"minimum": quiz.MinChoiceScore,
													"maximum": quiz.MaxChoiceScore,
												},
											},
										},
										"required": []any{"id", "text", "scores"},
									},
								},
							},
							"required": []any{"id", "text", "choices"},
						},
					},
				},
				"required": []any{"title", "description", "personalityTypes", "questions"},
			},
		},
		"required": []any{"quiz"},
	},
}
