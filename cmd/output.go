package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/quizzly/internal/quiz"
	"github.com/abhisek/quizzly/internal/store"
	"github.com/abhisek/quizzly/internal/ui/theme"
)

// writeAs renders v as json or yaml, or calls text for the default format.
func writeAs(w io.Writer, format string, v any, text func(io.Writer)) error {
	switch strings.ToLower(format) {
	case "", "text":
		text(w)
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q: use text, json or yaml", format)
	}
}

// printQuiz renders a quiz for reading, including each choice's points.
func printQuiz(w io.Writer, q *quiz.Quiz) {
	fmt.Fprintln(w, theme.Title.Render(q.Title))
	if q.Description != "" {
		fmt.Fprintln(w, theme.Subtitle.Render(q.Description))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Personality types:")
	for _, t := range q.PersonalityTypes {
		fmt.Fprintf(w, "  %s  %s\n", theme.ChoiceKey.Render(t.ID), t.Name)
		if t.Description != "" {
			fmt.Fprintf(w, "      %s\n", theme.Hint.Render(t.Description))
		}
	}

	for i, qu := range q.Questions {
		fmt.Fprintf(w, "\n%s\n", theme.Question.Render(fmt.Sprintf("%d. %s", i+1, qu.Text)))
		for j, c := range qu.Choices {
			typ, pts := c.ScoredType()
			fmt.Fprintf(w, "   %s) %s %s\n",
				theme.ChoiceKey.Render(theme.ChoiceLabel(j)), c.Text,
				theme.Points.Render(fmt.Sprintf("[%s +%d]", typ, pts)))
		}
	}
}

func printViolations(w io.Writer, vs []quiz.ValidationError) {
	for _, v := range vs {
		style := theme.Failure
		if v.Warning {
			style = theme.Warning
		}
		fmt.Fprintln(w, style.Render(quiz.FormatViolations([]quiz.ValidationError{v})))
	}
}

func printRecord(w io.Writer, rec *store.Record) {
	fmt.Fprintf(w, "ID:       %s\n", rec.ID)
	fmt.Fprintf(w, "Name:     %s\n", rec.Name)
	fmt.Fprintf(w, "Created:  %s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	if rec.OwnerEmail != nil {
		fmt.Fprintf(w, "Owner:    %s\n", *rec.OwnerEmail)
	} else if rec.OwnerUID != nil {
		fmt.Fprintf(w, "Owner:    %s\n", *rec.OwnerUID)
	}
	fmt.Fprintln(w)
	if rec.Quiz == nil {
		fmt.Fprintln(w, theme.Hint.Render("(no generated quiz)"))
		if rec.FirstQuestionText != "" {
			fmt.Fprintf(w, "First question: %s\n", rec.FirstQuestionText)
		}
		return
	}
	printQuiz(w, rec.Quiz)
}
