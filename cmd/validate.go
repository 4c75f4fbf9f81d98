package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizzly/internal/quiz"
	"github.com/abhisek/quizzly/internal/ui/theme"
)

var errInvalidQuiz = errors.New("quiz is invalid")

var validateCmd = &cobra.Command{
	Use:   "validate <file|->",
	Short: "Check a quiz JSON document against the quiz rules",
	Long: "Validate reads a quiz document ({\"quiz\": {...}}) from a file, or from stdin " +
		"when the argument is \"-\", and reports every rule it breaks.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		return runValidate(cmd.OutOrStdout(), text)
	},
}

func readInput(cmd *cobra.Command, path string) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(cmd.InOrStdin())
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read quiz: %w", err)
	}
	return string(b), nil
}

// runValidate prints the validation report for text. It returns
// errInvalidQuiz when the document is rejected.
func runValidate(w io.Writer, text string) error {
	candidate, err := quiz.Decode(text)
	if err != nil {
		fmt.Fprintln(w, theme.Failure.Render("Not a JSON object: "+err.Error()))
		return errInvalidQuiz
	}

	q, report := quiz.Validate(candidate)
	printViolations(w, report.Violations)
	if q == nil {
		fmt.Fprintln(w, theme.Failure.Render(fmt.Sprintf("Invalid: %d error(s).", len(report.Errors()))))
		return errInvalidQuiz
	}

	msg := "Valid."
	if n := len(report.Warnings()); n > 0 {
		msg = fmt.Sprintf("Valid with %d warning(s).", n)
	}
	fmt.Fprintln(w, theme.Winner.Render(msg))
	return nil
}
