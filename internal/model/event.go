package model

import (
	"time"
)

// EventType represents the type of diagnostics event.
type EventType string

const (
	EventTypeTurnCompleted     EventType = "turn_completed"
	EventTypeToolInvoked       EventType = "tool_invoked"
	EventTypeContractViolation EventType = "contract_violation"
	EventTypeRemoteFault       EventType = "remote_fault"
)

// DiagnosticEvent is published to the events bus as a byproduct of a turn.
type DiagnosticEvent struct {
	ID        string         `json:"id"`
	Username  string         `json:"username"`
	Type      EventType      `json:"type"`
	Reason    string         `json:"reason,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
