package models

// Category identifies one of the supported downstream actions.
type Category string

const (
	CategoryImageGeneration Category = "image_generation"
	CategoryImageEditing    Category = "image_editing"
	CategoryVectorization   Category = "vectorization"
	CategoryImageAnalysis   Category = "image_analysis"
	CategoryWebSearch       Category = "web_search"
	CategorySiteAnalysis    Category = "website_analysis"
	CategoryMemoryCommand   Category = "memory_command"
	CategoryConversation    Category = "conversation"
)

// DialogueAction tells the dispatcher what to do with a classified message.
type DialogueAction string

const (
	// ActionExecute means the category is confident enough to act on directly.
	ActionExecute DialogueAction = "execute"
	// ActionClarify means the request was ambiguous and the result carries a
	// clarification prompt instead of work to dispatch.
	ActionClarify DialogueAction = "clarify"
	// ActionResumeChoice means the message answered a pending clarification
	// and the result carries the merged request.
	ActionResumeChoice DialogueAction = "resume_choice"
)

// Tense is the grammatical tense detected in a message.
type Tense string

const (
	TensePast    Tense = "past"
	TensePresent Tense = "present"
	TenseFuture  Tense = "future"
)

// GrammarSignal is the pure lexical/grammatical reading of a single message.
type GrammarSignal struct {
	IsQuestion    bool
	IsCommand     bool
	Tense         Tense
	QuestionWords []string
	CommandWords  []string
	TenseMarkers  []string
	Confidence    int // 0..100
}

// EmotionSignal is the pure emotional reading of a single message. It only
// ever selects a response template; it never changes the chosen category.
type EmotionSignal struct {
	Dominant    string
	Scores      map[string]int
	Punctuation string
	OverallTone string
}

// ScoredIntent is the per-category scoring outcome for one message. Ephemeral:
// one per category, discarded once a winner is chosen.
type ScoredIntent struct {
	Category         Category
	Confidence       int // 0..100
	Matches          int // raw keyword hits before any penalty
	MatchedKeywords  []string
	MatchedNegatives []string
}

// Env is the caller-supplied context for one message.
type Env struct {
	HasRecentArtifact bool
	ArtifactSummary   string
}

// ClassificationResult is the sole output handed to the action dispatcher.
type ClassificationResult struct {
	Category         Category
	Confidence       int // 0..100
	Threshold        int // 0..100
	Action           DialogueAction
	Grammar          GrammarSignal
	Emotion          EmotionSignal
	MatchedKeywords  []string
	MatchedNegatives []string

	// Forced is set when a pre-check bypassed scoring entirely.
	Forced bool
	// FallbackUsed is set when the external classifier resolved a
	// below-threshold result.
	FallbackUsed bool

	// Clarification payload, present when Action == ActionClarify.
	Prompt  string
	Options []string

	// Resumed-choice payload, present when Action == ActionResumeChoice.
	Style          string
	ResolvedPrompt string
}

// DispatchOutcome is what an action executor reports back. The coordinator
// uses it only to decide the generating -> ready transition.
type DispatchOutcome struct {
	Success        bool
	ShouldFallback bool
}
