// Package models defines the data structures produced by the text pipeline.
package models

// RawTurn is one speaker turn as split from the transcript, before enrichment.
type RawTurn struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// NamedEntity is a labelled span recognised by the NLP collaborator.
// StartChar and EndChar are character offsets into the turn's cleaned text.
type NamedEntity struct {
	Text      string `json:"text"`
	Label     string `json:"label"`
	StartChar int    `json:"start_char"`
	EndChar   int    `json:"end_char"`
}

// ProcessedTurn is a fully enriched conversation turn.
type ProcessedTurn struct {
	TurnIndex          int           `json:"turn_index"`
	SpeakerLabel       string        `json:"speaker_label"`
	SpeakerID          string        `json:"speaker_id"`
	Role               Role          `json:"role"`
	OriginalText       string        `json:"original_text"`
	CleanedText        string        `json:"cleaned_text"`
	LemmatizedText     string        `json:"lemmatized_text"`
	Language           string        `json:"language"`
	LanguageConfidence float64       `json:"language_confidence" jsonschema:"minimum=0,maximum=1"`
	Entities           []NamedEntity `json:"entities"`
	Tokens             []string      `json:"tokens"`
}

// TextPipelineOutput is the result of one pipeline run.
type TextPipelineOutput struct {
	SessionID        string          `json:"session_id,omitempty"`
	RawTranscript    string          `json:"raw_transcript"`
	DominantLanguage string          `json:"dominant_language"`
	Turns            []ProcessedTurn `json:"turns"`
	AllEntities      []NamedEntity   `json:"all_entities"`
	SpeakerCount     int             `json:"speaker_count"`
}
