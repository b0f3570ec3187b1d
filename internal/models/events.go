package models

// Event types written to the outbound sink topics.
const (
	EventTurnsSaved     = "conversation.turns.saved"
	EventAnalyticsSaved = "conversation.analytics.saved"
	EventAudit          = "conversation.audit"
)

// TurnsRecord carries the processed turns of one session.
type TurnsRecord struct {
	EventType string          `json:"eventType"`
	SessionID string          `json:"sessionId"`
	Timestamp int64           `json:"timestamp"`
	Turns     []ProcessedTurn `json:"turns"`
}

// RunSummary is the structured record stored as a session's analytics entry.
type RunSummary struct {
	DominantLanguage string         `json:"dominant_language"`
	SpeakerCount     int            `json:"speaker_count"`
	TurnCount        int            `json:"turn_count"`
	TurnsByRole      map[string]int `json:"turns_by_role"`
	EntitiesByLabel  map[string]int `json:"entities_by_label"`
}

// AnalyticsRecord wraps an analytics entry for one session.
type AnalyticsRecord struct {
	EventType string `json:"eventType"`
	SessionID string `json:"sessionId"`
	Timestamp int64  `json:"timestamp"`
	Analysis  any    `json:"analysis"`
}

// AuditEvent is an immutable entry in a session's event log.
type AuditEvent struct {
	EventType string `json:"eventType"`
	SessionID string `json:"sessionId"`
	Timestamp int64  `json:"timestamp"`
	Event     string `json:"event"`
	Detail    string `json:"detail,omitempty"`
}
