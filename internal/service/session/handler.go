// Package session runs the text pipeline on behalf of a caller session and
// forwards the result to the persistence sink.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"convi-text-pipeline/internal/models"
	"convi-text-pipeline/internal/observability/logging"
	"convi-text-pipeline/internal/schema"
	"convi-text-pipeline/internal/service/pipeline"
	"convi-text-pipeline/internal/service/turn"
)

var (
	ErrEmptyTranscript    = errors.New("transcript is empty")
	ErrTranscriptTooLarge = errors.New("transcript exceeds size limit")
	ErrTooManyTurns       = errors.New("transcript exceeds turn limit")
)

// Audit event names.
const (
	EventStarted   = "pipeline.started"
	EventFailed    = "pipeline.failed"
	EventCompleted = "pipeline.completed"
)

// Limits bounds the work a single request may cause. Both limits are
// checked before the pipeline runs.
type Limits struct {
	MaxTranscriptBytes int
	MaxTurns           int
}

// DefaultLimits returns sensible default limits.
func DefaultLimits() Limits {
	return Limits{
		MaxTranscriptBytes: 1 << 20, // 1 MiB
		MaxTurns:           2000,
	}
}

// Runner runs the pipeline over one transcript.
type Runner interface {
	RunWithObserver(ctx context.Context, transcript string, observe pipeline.TurnObserver) (*models.TextPipelineOutput, error)
}

// Sink receives results after a successful run. Implementations must not
// panic and report failure only through their return values.
type Sink interface {
	SaveTurns(ctx context.Context, sessionId string, turns []models.ProcessedTurn) bool
	SaveAnalytics(ctx context.Context, sessionId string, analysis any) bool
	LogEvent(ctx context.Context, sessionId, event, detail string)
}

// Request is one transcript submitted for processing.
type Request struct {
	SessionID  string `json:"session_id,omitempty"`
	Transcript string `json:"transcript"`
}

// Handler validates requests, runs the pipeline and persists the output.
type Handler struct {
	runner    Runner
	sink      Sink
	validator *schema.Validator
	limits    Limits
}

// NewHandler creates a handler with default limits.
func NewHandler(runner Runner, sink Sink) *Handler {
	return NewHandlerWithLimits(runner, sink, DefaultLimits())
}

// NewHandlerWithLimits creates a handler with custom limits.
func NewHandlerWithLimits(runner Runner, sink Sink, limits Limits) *Handler {
	return &Handler{
		runner:    runner,
		sink:      sink,
		validator: schema.New(),
		limits:    limits,
	}
}

// Limits returns the limits the handler enforces.
func (h *Handler) Limits() Limits {
	return h.limits
}

// Process runs the pipeline for req.
func (h *Handler) Process(ctx context.Context, req Request) (*models.TextPipelineOutput, error) {
	return h.ProcessStream(ctx, req, nil)
}

// ProcessStream is Process with a per-turn callback.
func (h *Handler) ProcessStream(ctx context.Context, req Request, observe pipeline.TurnObserver) (*models.TextPipelineOutput, error) {
	if strings.TrimSpace(req.Transcript) == "" {
		return nil, ErrEmptyTranscript
	}
	if h.limits.MaxTranscriptBytes > 0 && len(req.Transcript) > h.limits.MaxTranscriptBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTranscriptTooLarge, len(req.Transcript), h.limits.MaxTranscriptBytes)
	}

	sessionId := req.SessionID
	if sessionId == "" {
		sessionId = uuid.NewString()
	}
	logger := logging.WithSession(sessionId)

	// persistence outlives the caller's request
	sinkCtx := context.WithoutCancel(ctx)

	h.sink.LogEvent(sinkCtx, sessionId, EventStarted, fmt.Sprintf("%d bytes", len(req.Transcript)))

	if err := h.checkTurns(req.Transcript); err != nil {
		h.sink.LogEvent(sinkCtx, sessionId, EventFailed, err.Error())
		return nil, err
	}

	start := time.Now()
	out, err := h.runner.RunWithObserver(pipeline.WithSessionID(ctx, sessionId), req.Transcript, observe)
	if err != nil {
		logger.Warn().Err(err).Msg("Pipeline run failed")
		h.sink.LogEvent(sinkCtx, sessionId, EventFailed, err.Error())
		return nil, err
	}

	if err := h.validator.Validate(out); err != nil {
		logger.Error().Err(err).Msg("Pipeline output violates contract")
	}

	if !h.sink.SaveTurns(sinkCtx, sessionId, out.Turns) {
		logger.Warn().Msg("Failed to save turns")
	}
	if !h.sink.SaveAnalytics(sinkCtx, sessionId, Summarize(out)) {
		logger.Warn().Msg("Failed to save analytics")
	}
	h.sink.LogEvent(sinkCtx, sessionId, EventCompleted,
		fmt.Sprintf("turns=%d speakers=%d elapsed=%s", len(out.Turns), out.SpeakerCount, time.Since(start).Round(time.Millisecond)))

	return out, nil
}

// checkTurns rejects transcripts with more than MaxTurns turns before any
// enrichment work starts. Parse errors are left for the runner to report.
func (h *Handler) checkTurns(transcript string) error {
	if h.limits.MaxTurns <= 0 {
		return nil
	}
	turns, err := turn.Parse(transcript)
	if err != nil {
		return nil
	}
	if len(turns) > h.limits.MaxTurns {
		return fmt.Errorf("%w: %d turns (max %d)", ErrTooManyTurns, len(turns), h.limits.MaxTurns)
	}
	return nil
}

// Summarize builds the analytics record for out.
func Summarize(out *models.TextPipelineOutput) models.RunSummary {
	s := models.RunSummary{
		DominantLanguage: out.DominantLanguage,
		SpeakerCount:     out.SpeakerCount,
		TurnCount:        len(out.Turns),
		TurnsByRole:      make(map[string]int),
		EntitiesByLabel:  make(map[string]int),
	}
	for _, pt := range out.Turns {
		s.TurnsByRole[pt.Role.String()]++
	}
	for _, e := range out.AllEntities {
		s.EntitiesByLabel[e.Label]++
	}
	return s
}
