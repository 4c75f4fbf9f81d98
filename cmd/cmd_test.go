package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/quizzly/internal/quiz"
)

func fixtureJSON() string {
	var qs []string
	for i := 1; i <= quiz.QuestionCount; i++ {
		qs = append(qs, fmt.Sprintf(`{"id":"q%[1]d","text":"Question %[1]d?","choices":[
			{"id":"q%[1]da","text":"A","scores":{"analyst":4}},
			{"id":"q%[1]db","text":"B","scores":{"explorer":3}},
			{"id":"q%[1]dc","text":"C","scores":{"analyst":1}},
			{"id":"q%[1]dd","text":"D","scores":{"explorer":2}}]}`, i))
	}
	return `{"quiz":{"title":"Which Thinker Are You?","description":"Four questions.",
		"personalityTypes":[
			{"id":"analyst","name":"The Analyst","description":"Plans first."},
			{"id":"explorer","name":"The Explorer","description":"Goes first."}],
		"questions":[` + strings.Join(qs, ",") + `]}}`
}

func fixtureQuiz(t *testing.T) *quiz.Quiz {
	t.Helper()
	candidate, err := quiz.Decode(fixtureJSON())
	require.NoError(t, err)
	q, report := quiz.Validate(candidate)
	require.NotNil(t, q, report.String())
	return q
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"a", 0, true},
		{" B ", 1, true},
		{"d", 3, true},
		{"1", 0, true},
		{"4", 3, true},
		{"e", 0, false},
		{"5", 0, false},
		{"0", 0, false},
		{"", 0, false},
		{"ab", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseChoice(tt.in, 4)
		assert.Equal(t, tt.ok, ok, "parseChoice(%q) ok", tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, "parseChoice(%q)", tt.in)
		}
	}
}

func TestPlayQuiz_AllAnalyst(t *testing.T) {
	q := fixtureQuiz(t)
	var out bytes.Buffer

	res, err := playQuiz(strings.NewReader("a\na\n1\nA\n"), &out, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"analyst"}, res.Winners)
	assert.Equal(t, 16, res.Totals["analyst"])
	assert.Contains(t, out.String(), "You are: The Analyst")
	assert.Contains(t, out.String(), "Plans first.")
}

func TestPlayQuiz_RepromptsOnBadInput(t *testing.T) {
	q := fixtureQuiz(t)
	var out bytes.Buffer

	res, err := playQuiz(strings.NewReader("z\nb\nb\nb\nb\n"), &out, q)
	require.NoError(t, err)
	assert.Equal(t, 12, res.Totals["explorer"])
	assert.Equal(t, 1, strings.Count(out.String(), "Pick one of the listed choices."))
}

func TestPlayQuiz_TieListsBothInDeclarationOrder(t *testing.T) {
	q := fixtureQuiz(t)
	var out bytes.Buffer

	// analyst 4+1, explorer 3+2
	res, err := playQuiz(strings.NewReader("a\nb\nc\nd\n"), &out, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"analyst", "explorer"}, res.Winners)
	assert.Contains(t, out.String(), "The Analyst / The Explorer")
}

func TestPlayQuiz_EOFAbandons(t *testing.T) {
	q := fixtureQuiz(t)
	_, err := playQuiz(strings.NewReader("a\n"), &bytes.Buffer{}, q)
	assert.EqualError(t, err, "quiz abandoned")
}

func TestRunValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, runValidate(&out, fixtureJSON()))
		assert.Contains(t, out.String(), "Valid.")
	})

	t.Run("not json", func(t *testing.T) {
		var out bytes.Buffer
		err := runValidate(&out, "here is your quiz")
		assert.True(t, errors.Is(err, errInvalidQuiz))
		assert.Contains(t, out.String(), "Not a JSON object")
	})

	t.Run("rule violations", func(t *testing.T) {
		text := strings.Replace(fixtureJSON(), `{"analyst":4}`, `{"analyst":9}`, 1)
		var out bytes.Buffer
		err := runValidate(&out, text)
		assert.True(t, errors.Is(err, errInvalidQuiz))
		assert.Contains(t, out.String(), "ScoreOutOfRange")
		assert.Contains(t, out.String(), "Invalid: 1 error(s).")
	})
}

func TestWriteAs(t *testing.T) {
	v := map[string]any{"recordId": "abc"}

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, writeAs(&out, "json", v, nil))
		var got map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, "abc", got["recordId"])
	})

	t.Run("yaml", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, writeAs(&out, "YAML", v, nil))
		var got map[string]any
		require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, "abc", got["recordId"])
	})

	t.Run("text", func(t *testing.T) {
		var out bytes.Buffer
		called := false
		require.NoError(t, writeAs(&out, "", v, func(w io.Writer) { called = true }))
		assert.True(t, called)
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Error(t, writeAs(&bytes.Buffer{}, "xml", v, nil))
	})
}

func TestPrintQuiz_ShowsPoints(t *testing.T) {
	var out bytes.Buffer
	printQuiz(&out, fixtureQuiz(t))
	s := out.String()
	assert.Contains(t, s, "Which Thinker Are You?")
	assert.Contains(t, s, "[analyst +4]")
	assert.Contains(t, s, "[explorer +2]")
}
