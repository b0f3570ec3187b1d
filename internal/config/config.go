// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the complete service configuration.
type Config struct {
	Service       ServiceConfig
	Kafka         KafkaConfig
	Enrich        EnrichConfig
	Pipeline      PipelineConfig
	Observability ObservabilityConfig
}

// ServiceConfig holds listener and identity settings.
type ServiceConfig struct {
	Principal   string
	HTTPPort    string
	GRPCPort    string
	MetricsPort string
}

// KafkaConfig holds outbound sink settings.
type KafkaConfig struct {
	Enabled        bool
	Brokers        []string
	TopicTurns     string
	TopicAnalytics string
	TopicAudit     string
	Principal      string
}

// EnrichConfig selects and configures the language/NLP backend.
type EnrichConfig struct {
	Provider           string // mock, remote, google
	RemoteURL          string
	DefaultLanguage    string
	SupportedLanguages []string
	RetryMaxElapsed    time.Duration
	RequestTimeout     time.Duration
}

// PipelineConfig holds request limits and the role alias file.
type PipelineConfig struct {
	RoleAliasesFile    string
	MaxTranscriptBytes int
	MaxTurns           int
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string
}

// LoadDotEnv loads variables from the given .env files (".env" when none are
// given) without overriding variables already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Load reads configuration from the environment.
func Load() *Config {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-text-pipeline")

	return &Config{
		Service: ServiceConfig{
			Principal:   principal,
			HTTPPort:    envOrDefault("HTTP_PORT", "8080"),
			GRPCPort:    envOrDefault("GRPC_PORT", "50051"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
		},
		Kafka: KafkaConfig{
			Enabled:        envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:        envOrDefaultList("KAFKA_BROKERS", nil),
			TopicTurns:     envOrDefault("KAFKA_TOPIC_TURNS", "conversation.turns"),
			TopicAnalytics: envOrDefault("KAFKA_TOPIC_ANALYTICS", "conversation.analytics"),
			TopicAudit:     envOrDefault("KAFKA_TOPIC_AUDIT", "conversation.audit"),
			Principal:      envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Enrich: EnrichConfig{
			Provider:           strings.ToLower(envOrDefault("ENRICH_PROVIDER", "mock")),
			RemoteURL:          envOrDefault("ENRICH_REMOTE_URL", "http://localhost:8000"),
			DefaultLanguage:    envOrDefault("ENRICH_DEFAULT_LANGUAGE", "en"),
			SupportedLanguages: envOrDefaultList("ENRICH_SUPPORTED_LANGUAGES", []string{"en", "hi", "zh", "fr", "de", "es", "ar", "ja"}),
			RetryMaxElapsed:    envOrDefaultDuration("ENRICH_RETRY_MAX_ELAPSED", 10*time.Second),
			RequestTimeout:     envOrDefaultDuration("ENRICH_REQUEST_TIMEOUT", 15*time.Second),
		},
		Pipeline: PipelineConfig{
			RoleAliasesFile:    envOrDefault("ROLE_ALIASES_FILE", ""),
			MaxTranscriptBytes: envOrDefaultInt("MAX_TRANSCRIPT_BYTES", 1<<20),
			MaxTurns:           envOrDefaultInt("MAX_TURNS", 2000),
		},
		Observability: ObservabilityConfig{
			LogLevel:  envOrDefault("LOG_LEVEL", "info"),
			LogFormat: envOrDefault("LOG_FORMAT", "json"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// envOrDefaultList splits a comma-separated value, dropping empty items.
func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
