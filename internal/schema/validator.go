// Package schema describes and checks the pipeline output contract.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"convi-text-pipeline/internal/models"
)

// ErrInvalidOutput wraps every contract violation reported by Validate.
var ErrInvalidOutput = errors.New("invalid pipeline output")

// Validator checks the invariants of a TextPipelineOutput.
type Validator struct{}

// New returns a Validator.
func New() *Validator {
	return &Validator{}
}

// Validate returns nil when out satisfies the output contract, otherwise an
// error wrapping ErrInvalidOutput that lists every violation found.
func (v *Validator) Validate(out *models.TextPipelineOutput) error {
	if out == nil {
		return fmt.Errorf("%w: nil output", ErrInvalidOutput)
	}

	var problems []error
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	labelIds := make(map[string]string)
	idLabels := make(map[string]string)
	for i, pt := range out.Turns {
		if pt.TurnIndex != i {
			add("turn %d has turn_index %d", i, pt.TurnIndex)
		}
		if pt.LanguageConfidence < 0 || pt.LanguageConfidence > 1 {
			add("turn %d language_confidence %v out of range", i, pt.LanguageConfidence)
		}
		if pt.Entities == nil || pt.Tokens == nil {
			add("turn %d has null entities or tokens", i)
		}
		if id, ok := labelIds[pt.SpeakerLabel]; ok && id != pt.SpeakerID {
			add("label %q mapped to %s and %s", pt.SpeakerLabel, id, pt.SpeakerID)
		}
		if label, ok := idLabels[pt.SpeakerID]; ok && label != pt.SpeakerLabel {
			add("speaker id %s shared by %q and %q", pt.SpeakerID, label, pt.SpeakerLabel)
		}
		labelIds[pt.SpeakerLabel] = pt.SpeakerID
		idLabels[pt.SpeakerID] = pt.SpeakerLabel
	}

	if out.SpeakerCount != len(labelIds) {
		add("speaker_count %d but %d distinct labels", out.SpeakerCount, len(labelIds))
	}

	seen := make(map[[2]string]bool)
	for _, e := range out.AllEntities {
		key := [2]string{strings.ToLower(e.Text), e.Label}
		if seen[key] {
			add("duplicate entity %q (%s)", e.Text, e.Label)
		}
		seen[key] = true
	}

	if len(problems) == 0 {
		return nil
	}
	err := fmt.Errorf("%w: %w", ErrInvalidOutput, errors.Join(problems...))
	log.Debug().Err(err).Int("violations", len(problems)).Msg("Output validation failed")
	return err
}
