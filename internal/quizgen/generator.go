// Package quizgen turns a quiz name into a validated personality quiz with
// one model call and at most one repair call.
package quizgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/quizzly/internal/llm"
	"github.com/abhisek/quizzly/internal/logger"
	"github.com/abhisek/quizzly/internal/quiz"
)

// Purposes attached to model calls for event logging.
const (
	PurposeGenerate = "quiz-gen"
	PurposeRepair   = "quiz-repair"
)

// Outcomes reported to a Recorder.
const (
	OutcomeOK               = "ok"
	OutcomeRepaired         = "repaired"
	OutcomeModelUnavailable = "model_unavailable"
	OutcomeUnrepairable     = "unrepairable"
)

// Generator produces personality quizzes.
type Generator interface {
	// Generate returns a validated quiz for quizName, or
	// *ErrModelUnavailable / *ErrUnrepairableResponse.
	Generate(ctx context.Context, quizName string) (*Result, error)
}

// Result is a successful generation.
type Result struct {
	Quiz *quiz.Quiz
	// RawText is the model reply the quiz was decoded from.
	RawText  string
	Warnings []quiz.ValidationError
	// Attempts is 1, or 2 when the repair call produced the quiz.
	Attempts int
	Model    string
}

// Recorder receives generation telemetry. Implementations must be safe for
// concurrent use.
type Recorder interface {
	ObserveGeneration(outcome string, attempts int, elapsed time.Duration)
	ObserveModelCall(purpose string, err error)
}

// Option customizes an LLMGenerator.
type Option func(*LLMGenerator)

// WithLogger sets the generator's logger.
func WithLogger(l *logger.Logger) Option {
	return func(g *LLMGenerator) { g.log = l }
}

// WithRecorder sets the telemetry sink.
func WithRecorder(r Recorder) Option {
	return func(g *LLMGenerator) { g.recorder = r }
}

// LLMGenerator implements Generator using an llm.Provider.
type LLMGenerator struct {
	provider llm.Provider
	config   Config
	log      *logger.Logger
	recorder Recorder
}

// New creates a new LLMGenerator with the given provider and config.
func New(provider llm.Provider, cfg Config, opts ...Option) *LLMGenerator {
	g := &LLMGenerator{provider: provider, config: cfg, log: logger.Nop()}
	for _, opt := range opts {
		opt(g)
	}
	if g.config.Timeout <= 0 {
		g.config.Timeout = DefaultConfig().Timeout
	}
	g.log = g.log.With("component", "quizgen")
	return g
}

// Generate runs Requesting → Parsing → Validating, with one Repairing pass
// when the first reply is unusable.
func (g *LLMGenerator) Generate(ctx context.Context, quizName string) (*Result, error) {
	start := time.Now()
	name := NormalizeName(quizName)
	log := g.log.With("quiz_name", name)

	messages := []llm.Message{
		{Role: llm.RoleUser, Content: buildUserMessage(name)},
	}

	first, err := g.call(ctx, llm.Call{Purpose: PurposeGenerate, Attempt: 1, Subject: name}, messages)
	if err != nil {
		log.Warn("model call failed", "attempt", 1, "error", err)
		g.observe(OutcomeModelUnavailable, 1, start)
		return nil, &ErrModelUnavailable{Err: err}
	}

	q, report, parseErr := evaluate(first.text)
	if q != nil {
		log.Info("quiz generated", "attempts", 1, "warnings", len(report.Warnings()))
		g.observe(OutcomeOK, 1, start)
		return &Result{Quiz: q, RawText: first.text, Warnings: report.Warnings(), Attempts: 1, Model: first.model}, nil
	}

	log.Warn("repairing model reply",
		"parse_error", errString(parseErr), "violations", len(report.Errors()))

	previous := first.text
	if strings.TrimSpace(previous) == "" {
		previous = "(empty reply)"
	}
	messages = append(messages,
		llm.Message{Role: llm.RoleAssistant, Content: previous},
		llm.Message{Role: llm.RoleUser, Content: buildRepairMessage(parseErr, report.Errors())},
	)

	second, err := g.call(ctx, llm.Call{Purpose: PurposeRepair, Attempt: 2, Subject: name}, messages)
	if err != nil {
		log.Warn("model call failed", "attempt", 2, "error", err)
		g.observe(OutcomeModelUnavailable, 2, start)
		return nil, &ErrModelUnavailable{Err: err}
	}

	q, report, parseErr = evaluate(second.text)
	if q != nil {
		log.Info("quiz generated", "attempts", 2, "warnings", len(report.Warnings()))
		g.observe(OutcomeRepaired, 2, start)
		return &Result{Quiz: q, RawText: second.text, Warnings: report.Warnings(), Attempts: 2, Model: second.model}, nil
	}

	log.Warn("model reply unrepairable",
		"parse_error", errString(parseErr), "violations", len(report.Errors()))
	g.observe(OutcomeUnrepairable, 2, start)
	return nil, &ErrUnrepairableResponse{
		RawText:    second.text,
		Violations: report.Errors(),
		ParseErr:   parseErr,
	}
}

type reply struct {
	text  string
	model string
}

// call performs one bounded model call. Content-level provider errors
// still yield a reply so the caller can judge and repair it.
func (g *LLMGenerator) call(ctx context.Context, labels llm.Call, messages []llm.Message) (reply, error) {
	ctx, cancel := context.WithTimeout(llm.WithCall(ctx, labels), g.config.Timeout)
	defer cancel()

	req := llm.Request{
		System:      systemPrompt,
		Messages:    messages,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
		JSON:        true,
	}
	if g.config.StructuredOutput {
		req.Schema = QuizSchema
	}

	resp, err := g.provider.Generate(ctx, req)
	if g.recorder != nil {
		g.recorder.ObserveModelCall(labels.Purpose, err)
	}
	if err != nil {
		if content, ok := llm.ReplyContent(err); ok {
			return reply{text: string(content), model: g.provider.ModelID()}, nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return reply{}, fmt.Errorf("model call timed out after %s: %w", g.config.Timeout, err)
		}
		return reply{}, err
	}

	model := resp.Model
	if model == "" {
		model = g.provider.ModelID()
	}
	return reply{text: resp.Text(), model: model}, nil
}

func (g *LLMGenerator) observe(outcome string, attempts int, start time.Time) {
	if g.recorder != nil {
		g.recorder.ObserveGeneration(outcome, attempts, time.Since(start))
	}
}

// evaluate decodes and validates one reply. The quiz is nil unless the
// reply is acceptable.
func evaluate(text string) (*quiz.Quiz, quiz.Report, error) {
	candidate, err := quiz.Decode(text)
	if err != nil {
		return nil, quiz.Report{}, err
	}
	q, report := quiz.Validate(candidate)
	return q, report, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
