// Package pipeline sequences parsing, speaker allocation, enrichment and
// entity deduplication into a single transcript run.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"convi-text-pipeline/internal/models"
	"convi-text-pipeline/internal/observability/logging"
	"convi-text-pipeline/internal/observability/metrics"
	"convi-text-pipeline/internal/service/enrich"
	"convi-text-pipeline/internal/service/entity"
	"convi-text-pipeline/internal/service/speaker"
	"convi-text-pipeline/internal/service/turn"
)

// TurnObserver is called with each turn as soon as it is assembled.
type TurnObserver func(models.ProcessedTurn)

// Orchestrator runs the text pipeline. A single Orchestrator may serve
// concurrent runs; every run owns its own speaker registry.
type Orchestrator struct {
	resolver *speaker.Resolver
	adapter  *enrich.Adapter
	metrics  *metrics.Metrics
}

// New creates an orchestrator. A nil resolver uses speaker.DefaultResolver and
// nil metrics uses metrics.DefaultMetrics.
func New(resolver *speaker.Resolver, adapter *enrich.Adapter, m *metrics.Metrics) *Orchestrator {
	if resolver == nil {
		resolver = speaker.DefaultResolver
	}
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Orchestrator{resolver: resolver, adapter: adapter, metrics: m}
}

// Run processes transcript and returns the assembled output.
// It fails only when the transcript contains no speaker turns.
func (o *Orchestrator) Run(ctx context.Context, transcript string) (*models.TextPipelineOutput, error) {
	return o.RunWithObserver(ctx, transcript, nil)
}

// RunWithObserver is Run with a callback invoked once per turn, in order.
func (o *Orchestrator) RunWithObserver(ctx context.Context, transcript string, observe TurnObserver) (*models.TextPipelineOutput, error) {
	start := time.Now()
	sessionId := sessionFromContext(ctx)
	logger := logging.WithSession(sessionId)

	o.metrics.RecordRunStart()
	logger.Info().Int("bytes", len(transcript)).Msg("Text pipeline started")

	raw, err := turn.Parse(transcript)
	if err != nil {
		o.metrics.RecordRunEnd("parse", time.Since(start).Seconds(), 0)
		logger.Warn().Err(err).Msg("Transcript parse failed")
		return nil, fmt.Errorf("parse transcript: %w", err)
	}
	logger.Info().Int("turns", len(raw)).Msg("Transcript parsed")

	texts := make([]string, len(raw))
	for i, rt := range raw {
		texts[i] = rt.Text
	}
	dominant := o.adapter.Dominant(ctx, texts)
	logger.Info().Str("dominantLanguage", dominant).Msg("Dominant language detected")

	registry := speaker.NewRegistry()
	turns := make([]models.ProcessedTurn, 0, len(raw))
	var collected []models.NamedEntity

	for i, rt := range raw {
		pt := o.processTurn(ctx, i, rt, registry, logging.WithTurn(sessionId, i))
		turns = append(turns, pt)
		collected = append(collected, pt.Entities...)
		o.metrics.RecordTurn(pt.Role.String())
		if observe != nil {
			observe(pt)
		}
	}

	unique := entity.Dedupe(collected)
	o.metrics.RecordEntities(len(collected), len(unique))

	out := &models.TextPipelineOutput{
		SessionID:        sessionId,
		RawTranscript:    transcript,
		DominantLanguage: dominant,
		Turns:            turns,
		AllEntities:      unique,
		SpeakerCount:     registry.Count(),
	}

	o.metrics.RecordRunEnd("", time.Since(start).Seconds(), out.SpeakerCount)
	logger.Info().
		Int("turns", len(out.Turns)).
		Int("speakers", out.SpeakerCount).
		Int("uniqueEntities", len(out.AllEntities)).
		Dur("elapsed", time.Since(start)).
		Msg("Text pipeline completed")

	return out, nil
}

func (o *Orchestrator) processTurn(ctx context.Context, index int, rt models.RawTurn, registry *speaker.Registry, logger zerolog.Logger) models.ProcessedTurn {
	role := o.resolver.Resolve(rt.Label)
	speakerId := registry.Allocate(rt.Label, role)

	detected := o.adapter.Detect(ctx, rt.Text)
	cleaned := enrich.Clean(rt.Text)
	res := o.adapter.Enrich(ctx, cleaned, detected.Language)

	logger.Debug().
		Str("label", rt.Label).
		Str("speakerId", speakerId).
		Str("role", role.String()).
		Str("language", detected.Language).
		Float64("confidence", detected.Confidence).
		Int("tokens", len(res.Tokens)).
		Int("entities", len(res.Entities)).
		Msg("Turn processed")

	return models.ProcessedTurn{
		TurnIndex:          index,
		SpeakerLabel:       rt.Label,
		SpeakerID:          speakerId,
		Role:               role,
		OriginalText:       rt.Text,
		CleanedText:        res.CleanedText,
		LemmatizedText:     res.LemmatizedText,
		Language:           detected.Language,
		LanguageConfidence: detected.Confidence,
		Entities:           res.Entities,
		Tokens:             res.Tokens,
	}
}
