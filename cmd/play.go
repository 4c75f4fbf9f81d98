package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizzly/internal/quiz"
	"github.com/abhisek/quizzly/internal/store"
	"github.com/abhisek/quizzly/internal/ui/theme"
)

var playCmd = &cobra.Command{
	Use:   "play <record-id|file>",
	Short: "Take a quiz in the terminal",
	Long: "Play asks each question of a stored quiz, or of a quiz JSON file, " +
		"and shows which personality type the answers point to.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := loadPlayable(cmd, args[0])
		if err != nil {
			return err
		}
		_, err = playQuiz(cmd.InOrStdin(), cmd.OutOrStdout(), q)
		return err
	},
}

// loadPlayable reads a quiz from a file when ref names one, otherwise
// from the record store.
func loadPlayable(cmd *cobra.Command, ref string) (*quiz.Quiz, error) {
	if _, err := os.Stat(ref); err == nil {
		text, err := readInput(cmd, ref)
		if err != nil {
			return nil, err
		}
		candidate, err := quiz.Decode(text)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", ref, err)
		}
		q, report := quiz.Validate(candidate)
		if q == nil {
			return nil, fmt.Errorf("%s is not a valid quiz:\n%s", ref, report)
		}
		return q, nil
	}

	rec, err := fetchRecord(cmd, ref)
	if err != nil {
		return nil, err
	}
	if rec.Quiz == nil {
		return nil, fmt.Errorf("record %s has no generated quiz", rec.ID)
	}
	return rec.Quiz, nil
}

// playQuiz asks every question on out, reads choices from in and prints
// the result.
func playQuiz(in io.Reader, out io.Writer, q *quiz.Quiz) (*quiz.ScoreResult, error) {
	sc := bufio.NewScanner(in)

	fmt.Fprintln(out, theme.Title.Render(q.Title))
	if q.Description != "" {
		fmt.Fprintln(out, theme.Subtitle.Render(q.Description))
	}

	answers := make([]quiz.AnswerSelection, 0, len(q.Questions))
	for i, qu := range q.Questions {
		fmt.Fprintf(out, "\n%s\n", theme.Question.Render(fmt.Sprintf("%d/%d  %s", i+1, len(q.Questions), qu.Text)))
		for j, c := range qu.Choices {
			fmt.Fprintf(out, "  %s) %s\n", theme.ChoiceKey.Render(theme.ChoiceLabel(j)), c.Text)
		}

		choice, err := askChoice(sc, out, len(qu.Choices))
		if err != nil {
			return nil, err
		}
		answers = append(answers, quiz.AnswerSelection{QuestionID: qu.ID, ChoiceID: qu.Choices[choice].ID})
	}

	res, err := quiz.Score(q, answers)
	if err != nil {
		return nil, err
	}
	printScore(out, q, res)
	return res, nil
}

// askChoice prompts until the answer is a valid letter or number.
func askChoice(sc *bufio.Scanner, out io.Writer, n int) (int, error) {
	for {
		fmt.Fprint(out, theme.Hint.Render(fmt.Sprintf("Your answer (a-%s): ", theme.ChoiceLabel(n-1))))
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return 0, err
			}
			return 0, errors.New("quiz abandoned")
		}
		if i, ok := parseChoice(sc.Text(), n); ok {
			return i, nil
		}
		fmt.Fprintln(out, theme.Warning.Render("Pick one of the listed choices."))
	}
}

// parseChoice accepts "b", "B" or "2" for the second of n choices.
func parseChoice(s string, n int) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i - 1, i >= 1 && i <= n
	}
	if len(s) == 1 {
		i := int(s[0] - 'a')
		return i, i >= 0 && i < n
	}
	return 0, false
}

func printScore(out io.Writer, q *quiz.Quiz, res *quiz.ScoreResult) {
	var b strings.Builder
	names := make([]string, 0, len(res.Winners))
	for _, id := range res.Winners {
		if t := q.PersonalityType(id); t != nil {
			names = append(names, t.Name)
		}
	}
	b.WriteString(theme.Winner.Render("You are: " + strings.Join(names, " / ")))
	if t := q.PersonalityType(res.Primary()); t != nil && t.Description != "" {
		b.WriteString("\n" + t.Description)
	}
	b.WriteString("\n")
	for _, t := range q.PersonalityTypes {
		fmt.Fprintf(&b, "\n%-24s %s", t.Name, theme.Points.Render(strconv.Itoa(res.Totals[t.ID])))
	}
	fmt.Fprintf(out, "\n%s\n", theme.Card.Render(b.String()))
}

// fetchRecord loads one record through the configured backend.
func fetchRecord(cmd *cobra.Command, id string) (*store.Record, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cmd, cfg, false)
	if err != nil {
		return nil, err
	}
	b, err := openBackend(cmd.Context(), cfg, log, nil)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	rec, err := b.records.Get(cmd.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("no quiz with id %q", id)
	}
	return rec, err
}
