// Package google provides a Google Cloud Natural Language processor.
package google

import (
	"context"
	"sort"
	"strings"

	language "cloud.google.com/go/language/apiv1"
	"cloud.google.com/go/language/apiv1/languagepb"
	"github.com/googleapis/gax-go/v2"

	"convi-text-pipeline/internal/models"
	"convi-text-pipeline/internal/service/enrich"
)

// client is the subset of the Natural Language API the processor calls.
type client interface {
	AnalyzeSyntax(ctx context.Context, req *languagepb.AnalyzeSyntaxRequest, opts ...gax.CallOption) (*languagepb.AnalyzeSyntaxResponse, error)
	AnalyzeEntities(ctx context.Context, req *languagepb.AnalyzeEntitiesRequest, opts ...gax.CallOption) (*languagepb.AnalyzeEntitiesResponse, error)
	Close() error
}

// Processor implements enrich.Processor using Google Cloud Natural Language.
type Processor struct {
	client client
}

// New creates a new Google NL processor.
// Requires GOOGLE_APPLICATION_CREDENTIALS environment variable to be set.
func New(ctx context.Context) (*Processor, error) {
	c, err := language.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &Processor{client: c}, nil
}

// Close releases the underlying client.
func (p *Processor) Close() error {
	return p.client.Close()
}

// Process runs syntax and entity analysis on text.
// Offsets are requested in UTF-32 code units so they are character offsets.
func (p *Processor) Process(ctx context.Context, text, lang string) (enrich.Result, error) {
	doc := &languagepb.Document{
		Source:   &languagepb.Document_Content{Content: text},
		Type:     languagepb.Document_PLAIN_TEXT,
		Language: lang,
	}

	syntax, err := p.client.AnalyzeSyntax(ctx, &languagepb.AnalyzeSyntaxRequest{
		Document:     doc,
		EncodingType: languagepb.EncodingType_UTF32,
	})
	if err != nil {
		return enrich.Result{}, err
	}

	ents, err := p.client.AnalyzeEntities(ctx, &languagepb.AnalyzeEntitiesRequest{
		Document:     doc,
		EncodingType: languagepb.EncodingType_UTF32,
	})
	if err != nil {
		return enrich.Result{}, err
	}

	tokens := make([]string, 0, len(syntax.GetTokens()))
	lemmas := make([]string, 0, len(syntax.GetTokens()))
	for _, tok := range syntax.GetTokens() {
		tokens = append(tokens, tok.GetText().GetContent())
		lemma := tok.GetLemma()
		if lemma == "" {
			lemma = tok.GetText().GetContent()
		}
		lemmas = append(lemmas, strings.ToLower(lemma))
	}

	return enrich.Result{
		CleanedText:    text,
		LemmatizedText: strings.Join(lemmas, " "),
		Tokens:         tokens,
		Entities:       entities(ents.GetEntities()),
	}, nil
}

// entities flattens proper-noun mentions into spans ordered by offset.
func entities(in []*languagepb.Entity) []models.NamedEntity {
	out := []models.NamedEntity{}
	for _, e := range in {
		label := entityLabel(e.GetType())
		for _, m := range e.GetMentions() {
			if m.GetType() != languagepb.EntityMention_PROPER {
				continue
			}
			content := m.GetText().GetContent()
			start := int(m.GetText().GetBeginOffset())
			out = append(out, models.NamedEntity{
				Text:      content,
				Label:     label,
				StartChar: start,
				EndChar:   start + len([]rune(content)),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartChar < out[j].StartChar
	})
	return out
}

// entityLabel maps Natural Language entity types onto the label set used by
// the rest of the pipeline.
func entityLabel(t languagepb.Entity_Type) string {
	switch t {
	case languagepb.Entity_PERSON:
		return "PERSON"
	case languagepb.Entity_LOCATION:
		return "LOC"
	case languagepb.Entity_ADDRESS:
		return "GPE"
	case languagepb.Entity_ORGANIZATION:
		return "ORG"
	case languagepb.Entity_EVENT:
		return "EVENT"
	case languagepb.Entity_WORK_OF_ART:
		return "WORK_OF_ART"
	case languagepb.Entity_CONSUMER_GOOD:
		return "PRODUCT"
	case languagepb.Entity_DATE:
		return "DATE"
	case languagepb.Entity_PRICE:
		return "MONEY"
	case languagepb.Entity_NUMBER:
		return "CARDINAL"
	case languagepb.Entity_PHONE_NUMBER:
		return "PHONE"
	default:
		return "MISC"
	}
}
