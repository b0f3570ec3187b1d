// Package langid detects the language of a turn with trigram language
// profiles, falling back to Unicode script counting when no profile matches.
package langid

import (
	"context"
	"sort"
	"strings"

	"github.com/abadojack/whatlanggo"

	"convi-text-pipeline/internal/service/enrich"
	"convi-text-pipeline/internal/service/enrich/script"
)

// codes maps the ISO 639-1 codes the detector can report to their profiles.
var codes = map[string]whatlanggo.Lang{
	"en": whatlanggo.Eng,
	"fr": whatlanggo.Fra,
	"de": whatlanggo.Deu,
	"es": whatlanggo.Spa,
	"it": whatlanggo.Ita,
	"pt": whatlanggo.Por,
	"nl": whatlanggo.Nld,
	"hi": whatlanggo.Hin,
	"zh": whatlanggo.Cmn,
	"ja": whatlanggo.Jpn,
	"ko": whatlanggo.Kor,
	"ar": whatlanggo.Arb,
	"ru": whatlanggo.Rus,
}

// Detector implements enrich.LanguageDetector.
type Detector struct {
	options  whatlanggo.Options
	langs    map[whatlanggo.Lang]string
	fallback *script.Detector
}

// New creates a detector choosing among candidates (ISO 639-1). Unknown codes
// are ignored; an empty list selects every language the detector knows.
// Latin text no profile matches is reported as defaultLanguage.
func New(defaultLanguage string, candidates []string) *Detector {
	if len(candidates) == 0 {
		candidates = Languages()
	}
	d := &Detector{
		options:  whatlanggo.Options{Whitelist: make(map[whatlanggo.Lang]bool)},
		langs:    make(map[whatlanggo.Lang]string),
		fallback: script.New(defaultLanguage),
	}
	for _, c := range candidates {
		code := strings.ToLower(strings.TrimSpace(c))
		lang, ok := codes[code]
		if !ok {
			continue
		}
		d.options.Whitelist[lang] = true
		d.langs[lang] = code
	}
	return d
}

// Languages returns the codes the detector has profiles for, sorted.
func Languages() []string {
	out := make([]string, 0, len(codes))
	for c := range codes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Detect returns the best matching profile and its confidence, the relative
// margin over the runner-up.
func (d *Detector) Detect(ctx context.Context, text string) (enrich.Detection, error) {
	if lang, conf, ok := d.detect(text); ok {
		return enrich.Detection{Language: lang, Confidence: conf}, nil
	}
	return d.fallback.Detect(ctx, text)
}

// Dominant detects the language of all texts taken together.
func (d *Detector) Dominant(ctx context.Context, texts []string) (string, error) {
	if lang, _, ok := d.detect(strings.Join(texts, "\n")); ok {
		return lang, nil
	}
	return d.fallback.Dominant(ctx, texts)
}

func (d *Detector) detect(text string) (string, float64, bool) {
	if len(d.langs) == 0 {
		return "", 0, false
	}
	info := whatlanggo.DetectWithOptions(text, d.options)
	code, ok := d.langs[info.Lang]
	if !ok || info.Confidence <= 0 {
		return "", 0, false
	}
	return code, info.Confidence, true
}
