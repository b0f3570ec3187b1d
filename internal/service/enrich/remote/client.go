// Package remote talks to an HTTP model service that hosts language detection
// and per-language NLP models.
//
// Endpoints:
//
//	POST /detect              {"text"}            -> {"language","confidence"}
//	POST /dominant            {"texts"}           -> {"language"}
//	POST /models/{lang}/load  {}                  -> {"language","model"}
//	POST /process             {"text","language"} -> {"lemmatized_text","tokens","entities"}
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"convi-text-pipeline/internal/models"
	"convi-text-pipeline/internal/service/enrich"
)

// Config holds model service client configuration.
type Config struct {
	BaseURL         string
	Timeout         time.Duration // per HTTP request
	RetryMaxElapsed time.Duration // total retry budget per call
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:         "http://localhost:8000",
		Timeout:         15 * time.Second,
		RetryMaxElapsed: 10 * time.Second,
	}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("model service returned %d: %s", e.Code, e.Body)
}

type detectRequest struct {
	Text string `json:"text"`
}

type dominantRequest struct {
	Texts []string `json:"texts"`
}

type dominantResponse struct {
	Language string `json:"language"`
}

type loadResponse struct {
	Language string `json:"language"`
	Model    string `json:"model"`
}

type processRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Model    string `json:"model,omitempty"`
}

type processResponse struct {
	LemmatizedText string               `json:"lemmatized_text"`
	Tokens         []string             `json:"tokens"`
	Entities       []models.NamedEntity `json:"entities"`
}

// Client implements enrich.LanguageDetector and enrich.Processor.
type Client struct {
	cfg    Config
	http   *http.Client
	models *enrich.ModelCache[string]
}

// New creates a model service client. observer may be nil.
func New(cfg Config, observer enrich.LoadObserver) *Client {
	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
	c.models = enrich.NewModelCache(c.load, observer)
	return c
}

// Detect identifies the language of text.
func (c *Client) Detect(ctx context.Context, text string) (enrich.Detection, error) {
	var out enrich.Detection
	if err := c.post(ctx, "/detect", detectRequest{Text: text}, &out); err != nil {
		return enrich.Detection{}, err
	}
	return out, nil
}

// Dominant identifies the language of all texts together.
func (c *Client) Dominant(ctx context.Context, texts []string) (string, error) {
	var out dominantResponse
	if err := c.post(ctx, "/dominant", dominantRequest{Texts: texts}, &out); err != nil {
		return "", err
	}
	if out.Language == "" {
		return "", fmt.Errorf("model service returned no language")
	}
	return out.Language, nil
}

// Process loads the model for language on first use and analyses text.
func (c *Client) Process(ctx context.Context, text, language string) (enrich.Result, error) {
	model, err := c.models.GetOrLoad(ctx, language)
	if err != nil {
		return enrich.Result{}, fmt.Errorf("load model %s: %w", language, err)
	}

	var out processResponse
	req := processRequest{Text: text, Language: language, Model: model}
	if err := c.post(ctx, "/process", req, &out); err != nil {
		return enrich.Result{}, err
	}
	return enrich.Result{
		CleanedText:    text,
		LemmatizedText: out.LemmatizedText,
		Tokens:         out.Tokens,
		Entities:       out.Entities,
	}, nil
}

// LoadedLanguages returns the languages whose models have been loaded.
func (c *Client) LoadedLanguages() []string {
	return c.models.Languages()
}

func (c *Client) load(ctx context.Context, language string) (string, error) {
	var out loadResponse
	path := "/models/" + url.PathEscape(language) + "/load"
	if err := c.post(ctx, path, struct{}{}, &out); err != nil {
		return "", err
	}
	if out.Model == "" {
		out.Model = language
	}
	return out.Model, nil
}

// post sends body as JSON and decodes the response into target, retrying
// transport errors and 5xx responses with exponential backoff.
func (c *Client) post(ctx context.Context, path string, body, target any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + path

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 500 {
			return &StatusError{Code: resp.StatusCode, Body: string(b)}
		}
		if resp.StatusCode >= 300 {
			return backoff.Permanent(&StatusError{Code: resp.StatusCode, Body: string(b)})
		}
		if err := json.Unmarshal(b, target); err != nil {
			return backoff.Permanent(fmt.Errorf("decode %s response: %w", path, err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = c.cfg.RetryMaxElapsed
	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}
