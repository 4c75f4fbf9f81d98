package quizgen

import (
	"fmt"
	"strings"

	"github.com/abhisek/quizzly/internal/quiz"
)

// NamePlaceholder stands in for a blank quiz name in the prompt.
const NamePlaceholder = "(not provided)"

// suggestedTypeCount is a prompt hint only; the validator accepts any
// non-empty set of types.
const suggestedTypeCount = 4

const systemPrompt = `You design personality quizzes for a web application that parses your reply as JSON.

Output rules:
- Reply with a single JSON object and nothing else. No markdown fences, no commentary.
- Match the requested shape exactly. Do not add or drop fields.
- No trailing commas.

Content rules:
- Keep the language neutral and suitable for a general adult audience.
- Make no medical or mental health claims.
- Avoid copyrighted characters or brands unless the quiz name asks for them.
- Questions must be clear, short and distinct from one another.
- Choices must be balanced and plausible.

Scoring model:
- Every choice awards integer points from 0 to 4 to exactly one personality type.
- Across the quiz, every personality type must be reachable from at least one choice.
- Within a question, spread the choices over several personality types.
- The application computes totals itself. Do not explain scoring.`

// shapeExample is the JSON layout shown to the model.
const shapeExample = `{
  "quiz": {
    "title": string,
    "description": string,
    "personalityTypes": [
      { "id": string, "name": string, "description": string }
    ],
    "questions": [
      {
        "id": string,
        "text": string,
        "choices": [
          { "id": string, "text": string, "scores": { "<personalityTypeId>": integer } }
        ]
      }
    ]
  }
}`

// NormalizeName trims name and substitutes NamePlaceholder when it is blank.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return NamePlaceholder
	}
	return name
}

// buildUserMessage constructs the first user message for a quiz name.
func buildUserMessage(quizName string) string {
	var b strings.Builder

	b.WriteString("Create a personality quiz.\n\n")
	fmt.Fprintf(&b, "Quiz name: %s\n", NormalizeName(quizName))
	b.WriteString("Audience: general adults\n")
	b.WriteString("Tone: thoughtful and modern\n")
	b.WriteString("Question style: situations and preferences\n")
	fmt.Fprintf(&b, "Personality types: %d distinct types\n", suggestedTypeCount)

	b.WriteString("\nReturn JSON in exactly this shape:\n\n")
	b.WriteString(shapeExample)

	b.WriteString("\n\nRules:\n")
	fmt.Fprintf(&b, "- Exactly %d questions, each with exactly %d choices.\n", quiz.QuestionCount, quiz.ChoiceCount)
	b.WriteString(`- Use short stable ids such as "q1", "q1a", "analyst".` + "\n")
	b.WriteString("- Question ids are unique in the quiz; choice ids are unique in their question.\n")
	b.WriteString("- Each scores object has exactly one key, and that key is a declared personality type id.\n")
	fmt.Fprintf(&b, "- Score values are integers from %d to %d.\n", quiz.MinChoiceScore, quiz.MaxChoiceScore)
	b.WriteString("- Every personality type is scored by at least one choice.\n")
	b.WriteString("- Write original question and choice text.\n")
	b.WriteString("- Output the JSON object only.")

	return b.String()
}

// buildRepairMessage asks the model to fix its previous reply. parseErr is
// set when the reply was not JSON; otherwise violations lists the failed
// checks.
func buildRepairMessage(parseErr error, violations []quiz.ValidationError) string {
	var b strings.Builder

	b.WriteString("Your previous reply cannot be used.\n\n")
	if parseErr != nil {
		fmt.Fprintf(&b, "It is not a single valid JSON object: %v\n", parseErr)
	} else {
		b.WriteString("It breaks these rules:\n")
		b.WriteString(quiz.FormatViolations(violations))
		b.WriteString("\n")
	}
	b.WriteString("\nReply again with the complete corrected quiz as one JSON object in the same shape. ")
	b.WriteString("Output the JSON only, with no explanation.")

	return b.String()
}
