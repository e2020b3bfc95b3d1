package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event being emitted
type EventType string

const (
	// Eligibility events
	EventEligibilityScored EventType = "eligibility_scored"
	EventOwnershipConflict EventType = "ownership_conflict"
	EventSourceFetchFailed EventType = "source_fetch_failed"

	// Claim events
	EventClaimSigned      EventType = "claim_signed"
	EventChangeNameSigned EventType = "change_name_signed"
	EventMessageSigned    EventType = "message_signed"
)

// EventSeverity indicates the importance/severity of an event
type EventSeverity string

const (
	SeverityDebug   EventSeverity = "debug"
	SeverityInfo    EventSeverity = "info"
	SeverityWarning EventSeverity = "warning"
	SeverityError   EventSeverity = "error"
)

// Event represents a system event with metadata and payload
type Event struct {
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	Severity  EventSeverity `json:"severity"`
	Timestamp time.Time     `json:"timestamp"`

	Component string `json:"component"`
	Wallet    string `json:"wallet,omitempty"`

	Payload json.RawMessage `json:"payload"`

	Error    string            `json:"error,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// EligibilityPayload is attached to eligibility_scored events
type EligibilityPayload struct {
	Total      int64    `json:"total"`
	Uncapped   int64    `json:"uncapped"`
	Credited   []string `json:"credited_object_ids,omitempty"`
	Conflicted []string `json:"conflicting_object_ids,omitempty"`
	Preview    bool     `json:"preview,omitempty"`
}

// ConflictPayload is attached to ownership_conflict events
type ConflictPayload struct {
	ObjectIDs []string `json:"object_ids"`
	Stage     string   `json:"stage"` // "check" or "commit"
}

// SourceFailurePayload is attached to source_fetch_failed events
type SourceFailurePayload struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// SignedPayload is attached to *_signed events
type SignedPayload struct {
	Message   string `json:"message"`
	PublicKey string `json:"public_key"`
	Nonce     uint64 `json:"nonce"`
	Amount    string `json:"amount,omitempty"`
}

// String returns a string representation of the event
func (e *Event) String() string {
	return fmt.Sprintf("[%s] %s: %s (component=%s, wallet=%s)",
		e.Timestamp.Format(time.RFC3339),
		e.Severity,
		e.Type,
		e.Component,
		e.Wallet,
	)
}

// ToJSON serializes the event to JSON
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// NewEvent creates a new event with the given parameters
func NewEvent(eventType EventType, severity EventSeverity, component, wallet string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Severity:  severity,
		Timestamp: time.Now().UTC(),
		Component: component,
		Wallet:    wallet,
		Payload:   payloadBytes,
		Metadata:  make(map[string]string),
	}, nil
}
