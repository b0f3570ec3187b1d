// Package mock provides an in-process NLP processor for running the pipeline
// without a model service. It tokenizes on whitespace and punctuation,
// lower-cases tokens as lemmas, and recognises entities from a gazetteer.
package mock

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode"

	"convi-text-pipeline/internal/models"
	"convi-text-pipeline/internal/service/enrich"
)

// DefaultGazetteer lists the entities recognised out of the box.
var DefaultGazetteer = map[string]string{
	"XYZ Bank":    "ORG",
	"RBI":         "ORG",
	"UPI":         "PRODUCT",
	"Rahul Menon": "PERSON",
	"Priya":       "PERSON",
	"Mumbai":      "GPE",
	"Kochi":       "GPE",
	"Bangalore":   "GPE",
	"Monday":      "DATE",
	"today":       "DATE",
}

// irregular maps English inflections to their lemma.
var irregular = map[string]string{
	"am": "be", "is": "be", "are": "be", "was": "be", "were": "be",
	"has": "have", "had": "have",
	"did": "do", "does": "do",
	"lost": "lose", "paid": "pay", "sent": "send", "got": "get",
}

// Config holds processor configuration.
type Config struct {
	Gazetteer map[string]string // entity text -> label
	LoadDelay time.Duration     // simulated per-language model load time
}

// DefaultConfig returns the default mock configuration.
func DefaultConfig() Config {
	return Config{Gazetteer: DefaultGazetteer}
}

type entry struct {
	pattern []rune
	label   string
}

// model is the per-language state built on first use.
type model struct {
	language string
	entries  []entry
}

// Processor implements enrich.Processor.
type Processor struct {
	models *enrich.ModelCache[*model]
}

// New creates a mock processor. observer may be nil.
func New(cfg Config, observer enrich.LoadObserver) *Processor {
	gaz := cfg.Gazetteer
	delay := cfg.LoadDelay
	load := func(ctx context.Context, language string) (*model, error) {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return buildModel(language, gaz), nil
	}
	return &Processor{models: enrich.NewModelCache(load, observer)}
}

// Process tokenizes text and recognises gazetteer entities.
func (p *Processor) Process(ctx context.Context, text, language string) (enrich.Result, error) {
	m, err := p.models.GetOrLoad(ctx, language)
	if err != nil {
		return enrich.Result{}, err
	}

	tokens := Tokenize(text)
	lemmas := make([]string, len(tokens))
	for i, tok := range tokens {
		lemmas[i] = m.lemma(tok)
	}

	return enrich.Result{
		CleanedText:    text,
		LemmatizedText: strings.Join(lemmas, " "),
		Tokens:         tokens,
		Entities:       m.find(text),
	}, nil
}

// LoadedLanguages returns the languages whose models have been built.
func (p *Processor) LoadedLanguages() []string {
	return p.models.Languages()
}

// Tokenize splits text on whitespace and peels punctuation off word edges.
func Tokenize(text string) []string {
	tokens := []string{}
	for _, field := range strings.Fields(text) {
		runes := []rune(field)
		start, end := 0, len(runes)
		for start < end && unicode.IsPunct(runes[start]) {
			tokens = append(tokens, string(runes[start]))
			start++
		}
		var trailing []string
		for end > start && unicode.IsPunct(runes[end-1]) {
			trailing = append(trailing, string(runes[end-1]))
			end--
		}
		if start < end {
			tokens = append(tokens, string(runes[start:end]))
		}
		for i := len(trailing) - 1; i >= 0; i-- {
			tokens = append(tokens, trailing[i])
		}
	}
	return tokens
}

func buildModel(language string, gazetteer map[string]string) *model {
	m := &model{language: language}
	for text, label := range gazetteer {
		m.entries = append(m.entries, entry{pattern: lowerRunes(text), label: label})
	}
	// longest first so overlapping names resolve to the longest match
	sort.Slice(m.entries, func(i, j int) bool {
		if len(m.entries[i].pattern) != len(m.entries[j].pattern) {
			return len(m.entries[i].pattern) > len(m.entries[j].pattern)
		}
		return string(m.entries[i].pattern) < string(m.entries[j].pattern)
	})
	return m
}

func (m *model) lemma(token string) string {
	lower := strings.ToLower(token)
	if m.language == "en" {
		if l, ok := irregular[lower]; ok {
			return l
		}
	}
	return lower
}

// find returns non-overlapping gazetteer matches ordered by position.
// Offsets are rune offsets into text.
func (m *model) find(text string) []models.NamedEntity {
	runes := []rune(text)
	lower := lowerRunes(text)
	taken := make([]bool, len(runes))
	entities := []models.NamedEntity{}

	for _, e := range m.entries {
		n := len(e.pattern)
		if n == 0 {
			continue
		}
		for i := 0; i+n <= len(lower); i++ {
			if !matchAt(lower, e.pattern, i) || !isBoundary(runes, i, i+n) || overlaps(taken, i, i+n) {
				continue
			}
			for k := i; k < i+n; k++ {
				taken[k] = true
			}
			entities = append(entities, models.NamedEntity{
				Text:      string(runes[i : i+n]),
				Label:     e.label,
				StartChar: i,
				EndChar:   i + n,
			})
			i += n - 1
		}
	}

	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].StartChar < entities[j].StartChar
	})
	return entities
}

func lowerRunes(s string) []rune {
	runes := []rune(s)
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return runes
}

func matchAt(text, pattern []rune, at int) bool {
	for k, r := range pattern {
		if text[at+k] != r {
			return false
		}
	}
	return true
}

func isBoundary(runes []rune, start, end int) bool {
	if start > 0 && isWordRune(runes[start-1]) {
		return false
	}
	if end < len(runes) && isWordRune(runes[end]) {
		return false
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func overlaps(taken []bool, start, end int) bool {
	for k := start; k < end; k++ {
		if taken[k] {
			return true
		}
	}
	return false
}
