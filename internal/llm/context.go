package llm

import "context"

// Call labels a single model call for logs and the event table.
type Call struct {
	// Purpose is what the call is for, e.g. "quiz-gen" or "quiz-repair".
	Purpose string

	// Attempt is the pipeline attempt this call belongs to, starting at 1.
	// Transport retries inside one attempt do not change it.
	Attempt int

	// Subject is the quiz name the call is about. Empty for ad hoc calls.
	Subject string
}

type callKey struct{}

// WithCall attaches call labels to ctx.
func WithCall(ctx context.Context, c Call) context.Context {
	return context.WithValue(ctx, callKey{}, c)
}

// CallFrom returns the labels attached by WithCall. A context without
// labels yields Purpose "unknown".
func CallFrom(ctx context.Context) Call {
	c, _ := ctx.Value(callKey{}).(Call)
	if c.Purpose == "" {
		c.Purpose = "unknown"
	}
	return c
}

// logFields renders the labels as logger key/value pairs, skipping the
// ones that are unset.
func (c Call) logFields() []any {
	fields := []any{"purpose", c.Purpose}
	if c.Attempt > 0 {
		fields = append(fields, "attempt", c.Attempt)
	}
	if c.Subject != "" {
		fields = append(fields, "quiz_name", c.Subject)
	}
	return fields
}
