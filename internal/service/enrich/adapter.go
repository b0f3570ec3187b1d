// Package enrich wraps the external language-detection and NLP collaborators.
// Collaborator failures never propagate: the Adapter degrades each call to a
// local fallback so a run always completes.
package enrich

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"convi-text-pipeline/internal/models"
	"convi-text-pipeline/internal/observability/metrics"
)

// Detection is a language-identification result.
type Detection struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// Result is the NLP output for one turn.
type Result struct {
	CleanedText    string               `json:"cleaned_text"`
	LemmatizedText string               `json:"lemmatized_text"`
	Tokens         []string             `json:"tokens"`
	Entities       []models.NamedEntity `json:"entities"`
}

// LanguageDetector identifies the language of text.
type LanguageDetector interface {
	// Detect returns the language of a single text with a confidence in [0,1].
	Detect(ctx context.Context, text string) (Detection, error)

	// Dominant returns the language most representative of all texts together.
	Dominant(ctx context.Context, texts []string) (string, error)
}

// Processor tokenizes, lemmatizes and extracts named entities.
type Processor interface {
	// Process analyses already-cleaned text in the given language.
	// Entity offsets are character offsets into text.
	Process(ctx context.Context, text, language string) (Result, error)
}

// Config holds adapter configuration.
type Config struct {
	// DefaultLanguage is used when detection fails.
	DefaultLanguage string
	// SupportedLanguages are the languages the Processor has models for.
	SupportedLanguages []string
	// FallbackLanguage is passed to the Processor for unsupported languages.
	FallbackLanguage string
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		DefaultLanguage:    "en",
		SupportedLanguages: []string{"en", "hi", "zh", "fr", "de", "es", "ar", "ja"},
		FallbackLanguage:   "en",
	}
}

// Adapter is the boundary between the pipeline and its NLP collaborators.
// It is safe for concurrent use when the collaborators are.
type Adapter struct {
	detector  LanguageDetector
	processor Processor
	cfg       Config
	supported map[string]bool
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewAdapter creates an adapter over the given collaborators.
func NewAdapter(detector LanguageDetector, processor Processor, cfg Config, m *metrics.Metrics) *Adapter {
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = DefaultConfig().DefaultLanguage
	}
	if cfg.FallbackLanguage == "" {
		cfg.FallbackLanguage = cfg.DefaultLanguage
	}
	if m == nil {
		m = metrics.DefaultMetrics
	}
	supported := make(map[string]bool, len(cfg.SupportedLanguages))
	for _, l := range cfg.SupportedLanguages {
		supported[strings.ToLower(strings.TrimSpace(l))] = true
	}
	return &Adapter{
		detector:  detector,
		processor: processor,
		cfg:       cfg,
		supported: supported,
		metrics:   m,
		logger:    log.With().Str("component", "enrich").Logger(),
	}
}

// Detect returns the language of text, or the default language with zero
// confidence when the detector fails.
func (a *Adapter) Detect(ctx context.Context, text string) Detection {
	start := time.Now()
	d, err := guard(func() (Detection, error) { return a.detector.Detect(ctx, text) })
	if err == nil && d.Language == "" {
		err = fmt.Errorf("detector returned no language")
	}
	a.metrics.RecordEnrichment("detect", err != nil, time.Since(start).Seconds())
	if err != nil {
		a.logger.Warn().Err(err).Msg("Language detection failed, using default language")
		return Detection{Language: a.cfg.DefaultLanguage, Confidence: 0}
	}
	d.Confidence = clamp01(d.Confidence)
	return d
}

// Dominant returns the call-level language, or the default language on failure.
func (a *Adapter) Dominant(ctx context.Context, texts []string) string {
	start := time.Now()
	lang, err := guard(func() (string, error) { return a.detector.Dominant(ctx, texts) })
	if err == nil && lang == "" {
		err = fmt.Errorf("detector returned no dominant language")
	}
	a.metrics.RecordEnrichment("dominant", err != nil, time.Since(start).Seconds())
	if err != nil {
		a.logger.Warn().Err(err).Msg("Dominant language detection failed, using default language")
		return a.cfg.DefaultLanguage
	}
	return lang
}

// Enrich runs the NLP processor over cleaned text. On failure it returns the
// degraded result: lemmas equal the cleaned text, tokens are its whitespace
// split, and there are no entities.
func (a *Adapter) Enrich(ctx context.Context, cleaned, language string) Result {
	start := time.Now()
	nlpLang := a.NLPLanguage(language)
	res, err := guard(func() (Result, error) { return a.processor.Process(ctx, cleaned, nlpLang) })
	a.metrics.RecordEnrichment("nlp", err != nil, time.Since(start).Seconds())
	if err != nil {
		a.logger.Error().Err(err).Str("language", nlpLang).Msg("NLP processing failed, using fallback")
		return Fallback(cleaned)
	}

	res.CleanedText = cleaned
	if res.Tokens == nil {
		res.Tokens = []string{}
	}
	if res.Entities == nil {
		res.Entities = []models.NamedEntity{}
	}
	return res
}

// NLPLanguage maps a detected language to one the processor supports.
func (a *Adapter) NLPLanguage(language string) string {
	if a.supported[strings.ToLower(language)] {
		return language
	}
	return a.cfg.FallbackLanguage
}

// Fallback builds the degraded NLP result for cleaned text.
func Fallback(cleaned string) Result {
	tokens := strings.Fields(cleaned)
	if tokens == nil {
		tokens = []string{}
	}
	return Result{
		CleanedText:    cleaned,
		LemmatizedText: cleaned,
		Tokens:         tokens,
		Entities:       []models.NamedEntity{},
	}
}

// guard converts a collaborator panic into an error.
func guard[T any](call func() (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("collaborator panic: %v", r)
		}
	}()
	return call()
}

func clamp01(v float64) float64 {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
