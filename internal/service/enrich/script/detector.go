// Package script provides an offline language detector that identifies a
// language from the Unicode script its letters are written in.
package script

import (
	"context"
	"errors"
	"unicode"

	"convi-text-pipeline/internal/service/enrich"
)

// ErrNoLetters is returned for text without any letters.
var ErrNoLetters = errors.New("no letters to detect language from")

// table maps scripts to the language reported for them, checked in order.
var table = []struct {
	script   *unicode.RangeTable
	language string
}{
	{unicode.Devanagari, "hi"},
	{unicode.Malayalam, "ml"},
	{unicode.Tamil, "ta"},
	{unicode.Telugu, "te"},
	{unicode.Kannada, "kn"},
	{unicode.Bengali, "bn"},
	{unicode.Gujarati, "gu"},
	{unicode.Gurmukhi, "pa"},
	{unicode.Arabic, "ar"},
	{unicode.Hiragana, "ja"},
	{unicode.Katakana, "ja"},
	{unicode.Han, "zh"},
	{unicode.Hangul, "ko"},
	{unicode.Cyrillic, "ru"},
	{unicode.Greek, "el"},
	{unicode.Latin, "en"},
}

// Detector implements enrich.LanguageDetector by letter-script majority.
// Latin text is reported as LatinLanguage.
type Detector struct {
	LatinLanguage string
}

// New creates a detector reporting latinLanguage for Latin-script text.
func New(latinLanguage string) *Detector {
	if latinLanguage == "" {
		latinLanguage = "en"
	}
	return &Detector{LatinLanguage: latinLanguage}
}

// Detect returns the language with the most letters in text. Confidence is
// that language's share of all letters.
func (d *Detector) Detect(ctx context.Context, text string) (enrich.Detection, error) {
	counts, total := d.count(text)
	if total == 0 {
		return enrich.Detection{}, ErrNoLetters
	}
	lang, n := best(counts)
	return enrich.Detection{Language: lang, Confidence: float64(n) / float64(total)}, nil
}

// Dominant returns the language with the most letters across all texts.
func (d *Detector) Dominant(ctx context.Context, texts []string) (string, error) {
	merged := make(map[string]int)
	var order []string
	total := 0
	for _, t := range texts {
		counts, n := d.count(t)
		total += n
		for _, c := range counts {
			if _, ok := merged[c.language]; !ok {
				order = append(order, c.language)
			}
			merged[c.language] += c.n
		}
	}
	if total == 0 {
		return "", ErrNoLetters
	}
	counts := make([]langCount, 0, len(order))
	for _, l := range order {
		counts = append(counts, langCount{language: l, n: merged[l]})
	}
	lang, _ := best(counts)
	return lang, nil
}

type langCount struct {
	language string
	n        int
}

// count tallies letters per language in first-seen order.
func (d *Detector) count(text string) ([]langCount, int) {
	var counts []langCount
	index := make(map[string]int)
	total := 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		lang := d.languageOf(r)
		if lang == "" {
			continue
		}
		total++
		if i, ok := index[lang]; ok {
			counts[i].n++
			continue
		}
		index[lang] = len(counts)
		counts = append(counts, langCount{language: lang, n: 1})
	}
	return mergeKanji(counts, index), total
}

// mergeKanji attributes Han letters to Japanese when kana are present.
func mergeKanji(counts []langCount, index map[string]int) []langCount {
	ja, hasKana := index["ja"]
	zh, hasHan := index["zh"]
	if !hasKana || !hasHan {
		return counts
	}
	counts[ja].n += counts[zh].n
	return append(counts[:zh], counts[zh+1:]...)
}

func (d *Detector) languageOf(r rune) string {
	for _, e := range table {
		if unicode.Is(e.script, r) {
			if e.language == "en" {
				return d.LatinLanguage
			}
			return e.language
		}
	}
	return ""
}

// best returns the highest count; ties go to the earliest entry.
func best(counts []langCount) (string, int) {
	lang, n := "", -1
	for _, c := range counts {
		if c.n > n {
			lang, n = c.language, c.n
		}
	}
	return lang, n
}
