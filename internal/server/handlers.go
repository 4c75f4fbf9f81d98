package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/quizzly/internal/logger"
	"github.com/abhisek/quizzly/internal/quiz"
	"github.com/abhisek/quizzly/internal/quizgen"
	"github.com/abhisek/quizzly/internal/store"
)

// Owner identity is asserted by an upstream auth layer.
const (
	headerOwnerUID   = "X-Owner-Uid"
	headerOwnerEmail = "X-Owner-Email"
)

const (
	maxBodyBytes = 1 << 20
	saveTimeout  = 5 * time.Second
)

const (
	msgInvalidBody  = "Invalid JSON body."
	msgMissingKey   = "Missing model API key in server environment."
	msgServerError  = "Server error."
	msgModelFailed  = "Model request failed."
	msgUnusableQuiz = "Model returned an unusable quiz."
	msgNotFound     = "Quiz not found"
)

type quizHandler struct {
	generator quizgen.Generator
	records   store.RecordRepo
	log       *logger.Logger
}

type generateResponse struct {
	OK       bool                   `json:"ok"`
	Text     string                 `json:"text"`
	Quiz     *quiz.Quiz             `json:"quiz"`
	Warnings []quiz.ValidationError `json:"warnings"`
	RecordID string                 `json:"recordId,omitempty"`
}

// generate handles POST /api/quiz-generate.
func (h *quizHandler) generate(c *gin.Context) {
	if h.generator == nil {
		fail(c, http.StatusInternalServerError, msgMissingKey)
		return
	}

	body, err := readObject(c)
	if err != nil {
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}
	name, _ := body["quizName"].(string)
	name = strings.TrimSpace(name)

	res, err := h.generator.Generate(c.Request.Context(), name)
	if err != nil {
		var unavailable *quizgen.ErrModelUnavailable
		var unrepairable *quizgen.ErrUnrepairableResponse
		switch {
		case errors.As(err, &unavailable):
			details := unavailable.Error()
			if unavailable.Err != nil {
				details = unavailable.Err.Error()
			}
			failWithDetails(c, http.StatusBadGateway, msgModelFailed, details)
		case errors.As(err, &unrepairable):
			failWithDetails(c, http.StatusBadGateway, msgUnusableQuiz, unrepairable.Details())
		default:
			h.log.Error("quiz generation failed", "error", err)
			failWithDetails(c, http.StatusInternalServerError, msgServerError, err.Error())
		}
		return
	}

	warnings := res.Warnings
	if warnings == nil {
		warnings = []quiz.ValidationError{}
	}
	c.JSON(http.StatusOK, generateResponse{
		OK:       true,
		Text:     res.RawText,
		Quiz:     res.Quiz,
		Warnings: warnings,
		RecordID: h.save(c, name, res),
	})
}

// save persists a generated quiz. Failures are logged and never change
// the generation response.
func (h *quizHandler) save(c *gin.Context, name string, res *quizgen.Result) string {
	if h.records == nil {
		return ""
	}
	if name == "" {
		name = res.Quiz.Title
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), saveTimeout)
	defer cancel()

	rec, err := h.records.Create(ctx, store.NewRecord{
		Name:         name,
		Quiz:         res.Quiz,
		RawModelText: res.RawText,
		OwnerUID:     ownerHeader(c, headerOwnerUID),
		OwnerEmail:   ownerHeader(c, headerOwnerEmail),
	})
	if err != nil {
		h.log.Warn("saving quiz record failed", "error", err)
		return ""
	}
	return rec.ID
}

type createRecordRequest struct {
	Name              string          `json:"name"`
	FirstQuestionText string          `json:"firstQuestionText"`
	Quiz              json.RawMessage `json:"quiz"`
	RawModelText      string          `json:"rawModelText"`
}

type recordResponse struct {
	OK     bool          `json:"ok"`
	Record *store.Record `json:"record"`
}

// createRecord handles POST /api/quizzes. A supplied quiz must pass
// validation.
func (h *quizHandler) createRecord(c *gin.Context) {
	var req createRecordRequest
	if err := json.NewDecoder(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)).Decode(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}

	var q *quiz.Quiz
	if raw := bytes.TrimSpace(req.Quiz); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		candidate, err := quiz.Decode(string(raw))
		if err != nil {
			failWithDetails(c, http.StatusBadRequest, "Invalid quiz.", err.Error())
			return
		}
		valid, report := quiz.Validate(candidate)
		if valid == nil {
			failWithDetails(c, http.StatusBadRequest, "Invalid quiz.", quiz.FormatViolations(report.Errors()))
			return
		}
		q = valid
	}

	rec, err := h.records.Create(c.Request.Context(), store.NewRecord{
		Name:              req.Name,
		FirstQuestionText: req.FirstQuestionText,
		Quiz:              q,
		RawModelText:      req.RawModelText,
		OwnerUID:          ownerHeader(c, headerOwnerUID),
		OwnerEmail:        ownerHeader(c, headerOwnerEmail),
	})
	if errors.Is(err, store.ErrNameRequired) {
		fail(c, http.StatusBadRequest, "Quiz name is required")
		return
	}
	if err != nil {
		h.log.Error("creating quiz record failed", "error", err)
		fail(c, http.StatusInternalServerError, msgServerError)
		return
	}
	c.JSON(http.StatusCreated, recordResponse{OK: true, Record: rec})
}

// getRecord handles GET /api/quizzes/:id.
func (h *quizHandler) getRecord(c *gin.Context) {
	rec, ok := h.loadRecord(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, recordResponse{OK: true, Record: rec})
}

type scoreRequest struct {
	Answers []quiz.AnswerSelection `json:"answers"`
}

type scoreResponse struct {
	OK     bool              `json:"ok"`
	Result *quiz.ScoreResult `json:"result"`
	// Winner is the first winner, for clients that show a single result.
	Winner *quiz.PersonalityType `json:"winner,omitempty"`
}

// scoreRecord handles POST /api/quizzes/:id/score.
func (h *quizHandler) scoreRecord(c *gin.Context) {
	var req scoreRequest
	if err := json.NewDecoder(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)).Decode(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}

	rec, ok := h.loadRecord(c)
	if !ok {
		return
	}
	if rec.Quiz == nil {
		fail(c, http.StatusConflict, "Quiz has no generated content.")
		return
	}

	result, err := quiz.Score(rec.Quiz, req.Answers)
	if err != nil {
		var scoreErr *quiz.ScoringError
		if errors.As(err, &scoreErr) {
			failWithDetails(c, http.StatusBadRequest, "Answers do not fit the quiz.", scoreErr.Error())
			return
		}
		h.log.Error("scoring failed", "id", rec.ID, "error", err)
		fail(c, http.StatusInternalServerError, msgServerError)
		return
	}
	// updatedAt records the last play; a failed bump does not fail scoring.
	if err := h.records.Touch(c.Request.Context(), rec.ID); err != nil {
		h.log.Warn("touching quiz record failed", "id", rec.ID, "error", err)
	}
	c.JSON(http.StatusOK, scoreResponse{
		OK:     true,
		Result: result,
		Winner: rec.Quiz.PersonalityType(result.Primary()),
	})
}

func (h *quizHandler) loadRecord(c *gin.Context) (*store.Record, bool) {
	rec, err := h.records.Get(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		fail(c, http.StatusNotFound, msgNotFound)
		return nil, false
	case errors.Is(err, store.ErrIDRequired):
		fail(c, http.StatusBadRequest, "Quiz id is required")
		return nil, false
	case err != nil:
		h.log.Error("reading quiz record failed", "error", err)
		fail(c, http.StatusInternalServerError, msgServerError)
		return nil, false
	}
	return rec, true
}

// hello handles GET /api/hello.
func hello(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		name = "Quizzly"
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": fmt.Sprintf("Hello, %s!!!", name)})
}

// preflight answers OPTIONS on the generate endpoint for clients that do
// not send an Origin header.
func preflight(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
	c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
	c.Status(http.StatusNoContent)
}

// readObject reads the request body as a JSON object. An empty body is an
// empty object.
func readObject(c *gin.Context) (map[string]any, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("body is not a JSON object")
	}
	return obj, nil
}

func ownerHeader(c *gin.Context, name string) *string {
	v := strings.TrimSpace(c.GetHeader(name))
	if v == "" {
		return nil
	}
	return &v
}
