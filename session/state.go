// Package session holds per-session conversation state: the dialogue state
// machine position, a bounded history of dispatched actions, and auxiliary
// goal/topic counters. State is a volatile cache, not a system of record.
package session

import (
	"time"

	"github.com/Lumora-Labs/lumora-go-router/models"
)

// HistorySize caps the recent-action ring.
const HistorySize = 10

// State is one session's mutable state. Stores hand out the whole value;
// callers mutate it through its methods and hand it back via Save.
type State struct {
	ID        string                `json:"id"`
	Dialogue  models.DialogueState  `json:"dialogue"`
	History   []models.ActionRecord `json:"history,omitempty"`
	Goals     map[string]int        `json:"goals,omitempty"`
	Topics    map[string]int        `json:"topics,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
	LastSeen  time.Time             `json:"last_seen"`
}

func NewState(id string) *State {
	now := time.Now()
	return &State{
		ID:        id,
		Dialogue:  models.DialogueState{Stage: models.StageReady},
		CreatedAt: now,
		LastSeen:  now,
	}
}

// Touch refreshes the idle timer.
func (s *State) Touch() {
	s.LastSeen = time.Now()
}

// PushAction prepends a record, evicting the oldest once the ring is full.
func (s *State) PushAction(rec models.ActionRecord) {
	s.History = append([]models.ActionRecord{rec}, s.History...)
	if len(s.History) > HistorySize {
		s.History = s.History[:HistorySize]
	}
}

// HasRecentArtifact reports whether any recorded action produced an artifact
// the user can refer back to.
func (s *State) HasRecentArtifact() bool {
	for _, rec := range s.History {
		if rec.IsArtifact() {
			return true
		}
	}
	return false
}

// LastArtifact returns the newest artifact-producing record.
func (s *State) LastArtifact() (models.ActionRecord, bool) {
	for _, rec := range s.History {
		if rec.IsArtifact() {
			return rec, true
		}
	}
	return models.ActionRecord{}, false
}

// ResetDialogue drops any pending clarification and returns to ready.
func (s *State) ResetDialogue() {
	s.Dialogue = models.DialogueState{Stage: models.StageReady}
}

func (s *State) NoteGoal(goal string) {
	if goal == "" {
		return
	}
	if s.Goals == nil {
		s.Goals = make(map[string]int)
	}
	s.Goals[goal]++
}

func (s *State) NoteTopic(topic string) {
	if topic == "" {
		return
	}
	if s.Topics == nil {
		s.Topics = make(map[string]int)
	}
	s.Topics[topic]++
}
