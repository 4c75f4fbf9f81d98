package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/quizzly/internal/logger"
	"github.com/abhisek/quizzly/internal/store"
)

// LoggingProvider is a decorator that logs every model request and,
// when a repo is configured, records it as an event.
type LoggingProvider struct {
	inner     Provider
	provider  string
	eventRepo store.EventRepo
	log       *logger.Logger
}

// WithLogging wraps a Provider with request logging. repo and log may be nil.
func WithLogging(p Provider, providerName string, repo store.EventRepo, log *logger.Logger) Provider {
	if log == nil {
		log = logger.Nop()
	}
	return &LoggingProvider{
		inner:     p,
		provider:  providerName,
		eventRepo: repo,
		log:       log.With("component", "llm", "provider", providerName),
	}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	call := CallFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	latencyMs := time.Since(start).Milliseconds()

	data := store.LLMRequestEventData{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     call.Purpose,
		LatencyMs:   latencyMs,
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}

	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			data.Model = resp.Model
		}
		data.ResponseBody = string(resp.Content)
	}

	if err != nil {
		data.ErrorMessage = err.Error()
		fields := append(call.logFields(), "model", data.Model, "latency_ms", latencyMs, "error", err)
		l.log.Warn("model request failed", fields...)
	} else {
		fields := append(call.logFields(), "model", data.Model, "latency_ms", latencyMs,
			"input_tokens", data.InputTokens, "output_tokens", data.OutputTokens)
		l.log.Debug("model request", fields...)
	}

	if l.eventRepo == nil {
		return resp, err
	}

	// Record the event but don't fail the request if recording fails.
	// The request context may already be spent, so use a detached one.
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if logErr := l.eventRepo.AppendLLMRequest(recCtx, data); logErr != nil {
		l.log.Warn("failed to record model request event", "error", logErr)
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// serializeRequest builds a readable representation of the model request.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, m := range req.Messages {
		b.WriteString(fmt.Sprintf("[%s]\n", m.Role))
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}

	if req.Schema != nil {
		schemaDef, err := json.Marshal(req.Schema.Definition)
		if err == nil {
			b.WriteString(fmt.Sprintf("[schema: %s]\n", req.Schema.Name))
			b.WriteString(string(schemaDef))
			b.WriteString("\n")
		}
	}

	return b.String()
}
