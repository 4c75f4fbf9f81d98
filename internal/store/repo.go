package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/abhisek/quizzly/internal/quiz"
)

var (
	// ErrNotFound is returned when no record exists for the requested id.
	ErrNotFound = errors.New("quiz not found")
	// ErrNameRequired is returned when a record is created without a name.
	ErrNameRequired = errors.New("quiz name is required")
	// ErrIDRequired is returned for lookups with an empty id.
	ErrIDRequired = errors.New("quiz id is required")
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // id > After
	Before  int64     // id < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // exact match when set
}

// Record is a persisted quiz with its display metadata.
type Record struct {
	ID                string     `json:"id" yaml:"id"`
	Name              string     `json:"name" yaml:"name"`
	FirstQuestionText string     `json:"firstQuestionText" yaml:"firstQuestionText"`
	Quiz              *quiz.Quiz `json:"quiz,omitempty" yaml:"quiz,omitempty"`
	RawModelText      string     `json:"rawModelText,omitempty" yaml:"rawModelText,omitempty"`
	OwnerUID          *string    `json:"ownerUid" yaml:"ownerUid"`
	OwnerEmail        *string    `json:"ownerEmail" yaml:"ownerEmail"`
	CreatedAt         time.Time  `json:"createdAt" yaml:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt" yaml:"updatedAt"`
}

// NewRecord holds the caller-supplied fields for Create.
type NewRecord struct {
	Name              string
	FirstQuestionText string
	Quiz              *quiz.Quiz
	RawModelText      string
	OwnerUID          *string
	OwnerEmail        *string
}

// Normalize trims the name and fills FirstQuestionText from the quiz
// when the caller left it empty. Empty owner strings become nil.
func (n NewRecord) Normalize() (NewRecord, error) {
	n.Name = strings.TrimSpace(n.Name)
	if n.Name == "" {
		return n, ErrNameRequired
	}
	if strings.TrimSpace(n.FirstQuestionText) == "" {
		n.FirstQuestionText = n.Quiz.FirstQuestionText()
	}
	n.OwnerUID = nonEmpty(n.OwnerUID)
	n.OwnerEmail = nonEmpty(n.OwnerEmail)
	return n, nil
}

// NormalizeID trims id and rejects empty values.
func NormalizeID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrIDRequired
	}
	return id, nil
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// RecordRepo persists quiz records.
type RecordRepo interface {
	// Create stores a new record with a fresh id and timestamps.
	Create(ctx context.Context, rec NewRecord) (*Record, error)

	// Get returns the record for id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// Touch bumps updated_at, or returns ErrNotFound.
	Touch(ctx context.Context, id string) error

	// List returns the most recent records first.
	List(ctx context.Context, limit int) ([]Record, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	ID        int
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsageStats aggregates token usage for one purpose.
type LLMUsageStats struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// LLMModelUsage aggregates token usage for one model.
type LLMModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)

	// GetLLMEvent returns a single event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)

	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)
	LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error)
}
