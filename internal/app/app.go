// Package app wires configuration into the running service components.
package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"convi-text-pipeline/internal/config"
	"convi-text-pipeline/internal/events"
	"convi-text-pipeline/internal/models"
	"convi-text-pipeline/internal/observability/logging"
	"convi-text-pipeline/internal/observability/metrics"
	"convi-text-pipeline/internal/service/enrich"
	"convi-text-pipeline/internal/service/enrich/google"
	"convi-text-pipeline/internal/service/enrich/langid"
	"convi-text-pipeline/internal/service/enrich/mock"
	"convi-text-pipeline/internal/service/enrich/remote"
	"convi-text-pipeline/internal/service/pipeline"
	"convi-text-pipeline/internal/service/session"
	"convi-text-pipeline/internal/service/speaker"
)

// Application holds process-wide state for the service.
type Application struct {
	StartupTime  time.Time
	Logger       zerolog.Logger
	Cfg          *config.Config
	Metrics      *metrics.Metrics
	Publisher    *events.Publisher
	Orchestrator *pipeline.Orchestrator
	Sessions     *session.Handler

	closers []func() error
	ready   atomic.Bool
}

// New constructs the application from cfg. Logging must already be initialised.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	a := &Application{
		Cfg:     cfg,
		Metrics: metrics.DefaultMetrics,
		Logger:  logging.WithComponent("application"),
	}

	var aliases map[string]models.Role
	if cfg.Pipeline.RoleAliasesFile != "" {
		var err error
		aliases, err = speaker.LoadAliases(cfg.Pipeline.RoleAliasesFile)
		if err != nil {
			return nil, err
		}
		a.Logger.Info().
			Str("file", cfg.Pipeline.RoleAliasesFile).
			Int("aliases", len(aliases)).
			Msg("Loaded role aliases")
	}

	detector, processor, err := a.buildBackend(ctx, cfg.Enrich)
	if err != nil {
		return nil, err
	}

	adapter := enrich.NewAdapter(detector, processor, enrich.Config{
		DefaultLanguage:    cfg.Enrich.DefaultLanguage,
		SupportedLanguages: cfg.Enrich.SupportedLanguages,
		FallbackLanguage:   cfg.Enrich.DefaultLanguage,
	}, a.Metrics)

	a.Orchestrator = pipeline.New(speaker.NewResolver(aliases), adapter, a.Metrics)

	a.Publisher = events.New(&events.Config{
		Brokers:        cfg.Kafka.Brokers,
		TopicTurns:     cfg.Kafka.TopicTurns,
		TopicAnalytics: cfg.Kafka.TopicAnalytics,
		TopicAudit:     cfg.Kafka.TopicAudit,
		Principal:      cfg.Kafka.Principal,
		Enabled:        cfg.Kafka.Enabled,
	})
	a.closers = append(a.closers, a.Publisher.Close)

	a.Sessions = session.NewHandlerWithLimits(a.Orchestrator, a.Publisher, session.Limits{
		MaxTranscriptBytes: cfg.Pipeline.MaxTranscriptBytes,
		MaxTurns:           cfg.Pipeline.MaxTurns,
	})

	a.Logger.Info().
		Str("provider", cfg.Enrich.Provider).
		Bool("kafka", a.Publisher.Enabled()).
		Msg("Text pipeline application created")
	return a, nil
}

// buildBackend returns the detector and processor for the configured provider.
func (a *Application) buildBackend(ctx context.Context, cfg config.EnrichConfig) (enrich.LanguageDetector, enrich.Processor, error) {
	observer := func(language string, err error, elapsed time.Duration) {
		a.Metrics.RecordModelLoad(language, err, elapsed.Seconds())
		if err != nil {
			a.Logger.Warn().Err(err).Str("language", language).Msg("Model load failed")
			return
		}
		a.Logger.Info().Str("language", language).Dur("elapsed", elapsed).Msg("Model loaded")
	}

	switch cfg.Provider {
	case "mock":
		return langid.New(cfg.DefaultLanguage, nil), mock.New(mock.DefaultConfig(), observer), nil
	case "remote":
		c := remote.New(remote.Config{
			BaseURL:         cfg.RemoteURL,
			Timeout:         cfg.RequestTimeout,
			RetryMaxElapsed: cfg.RetryMaxElapsed,
		}, observer)
		return c, c, nil
	case "google":
		p, err := google.New(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("create google language client: %w", err)
		}
		a.closers = append(a.closers, p.Close)
		return langid.New(cfg.DefaultLanguage, nil), p, nil
	default:
		return nil, nil, fmt.Errorf("unknown enrichment provider %q", cfg.Provider)
	}
}

// Start performs any startup work required before serving traffic.
func (a *Application) Start() error {
	a.StartupTime = time.Now().UTC()
	a.ready.Store(true)
	a.Logger.Info().
		Time("startupTime", a.StartupTime).
		Msg("Text pipeline service starting")
	return nil
}

// Ready reports whether the service accepts traffic.
func (a *Application) Ready() bool {
	return a.ready.Load()
}

// Shutdown stops accepting traffic and releases clients.
func (a *Application) Shutdown() {
	a.ready.Store(false)
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Error().Err(err).Msg("Error during shutdown")
		}
	}
	a.Logger.Info().Msg("Text pipeline service shut down")
}
