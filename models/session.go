package models

import (
	"time"
)

// DialogueStage is the per-session conversation state machine position.
type DialogueStage string

const (
	// StageReady accepts any message and routes it through full scoring.
	StageReady DialogueStage = "ready"
	// StageAwaitingChoice means a clarification question is pending and the
	// next message is first checked against the offered options.
	StageAwaitingChoice DialogueStage = "awaiting_choice"
	// StageGenerating means an action was dispatched and has not reported back.
	StageGenerating DialogueStage = "generating"
)

// DialogueState is the mutable conversation position stored per session.
type DialogueState struct {
	Stage          DialogueStage `json:"stage"`
	Category       Category      `json:"category,omitempty"`
	PendingRequest string        `json:"pending_request,omitempty"`
	Options        []string      `json:"options,omitempty"`
	SuggestedAt    time.Time     `json:"suggested_at,omitempty"`
}

// ActionRecord is one completed dispatch, kept in the session's recent-action
// ring so later messages can refer back to what was produced.
type ActionRecord struct {
	ID        string    `json:"id"`
	Category  Category  `json:"category"`
	Summary   string    `json:"summary"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
}

// IsArtifact reports whether the record produced something the user can refer
// back to (an image, an edit, a vector file).
func (r ActionRecord) IsArtifact() bool {
	if !r.Success {
		return false
	}
	switch r.Category {
	case CategoryImageGeneration, CategoryImageEditing, CategoryVectorization:
		return true
	}
	return false
}
