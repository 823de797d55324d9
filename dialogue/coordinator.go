// Package dialogue owns the per-session state machine around ambiguous
// requests: ready -> awaiting_choice -> generating -> ready. It decides when
// to ask the user for a style instead of dispatching, and whether a short
// follow-up message is the answer to a pending clarification.
package dialogue

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Lumora-Labs/lumora-go-router/models"
	"github.com/Lumora-Labs/lumora-go-router/session"
)

const (
	clarifyConfidence = 85
	resumeConfidence  = 95
	dialogueThreshold = 5

	// DefaultClarifyTTL bounds how long an unanswered clarification stays
	// armed. Checked lazily on the next message, not by a timer.
	DefaultClarifyTTL = 5 * time.Minute
)

// maxShortRequestWords is the significant-word cutoff below which a
// style-less image request is considered ambiguous.
const maxShortRequestWords = 4

type styleRule struct {
	stem  string
	style string
}

// Style stems are matched as substrings of the lowercased message. Default
// when nothing matches is realistic.
var styleRules = []styleRule{
	{"принт", "print"},
	{"print", "print"},
	{"художествен", "artistic"},
	{"живопис", "artistic"},
	{"artistic", "artistic"},
	{"мульт", "cartoon"},
	{"аниме", "cartoon"},
	{"cartoon", "cartoon"},
	{"реалистичн", "realistic"},
	{"realistic", "realistic"},
	{"фото", "realistic"},
}

// Ready indicators are split in two: short tokens must match a whole word so
// "да" does not fire inside "когда", longer phrases match as substrings.
var readyTokens = []string{"да", "го", "ок", "yes", "go", "ok"}

var readyPhrases = []string{"давай", "поехали", "хочу", "сделай", "генерируй", "do it", "let's"}

// denyPhrases look like answers to some other question, not a style choice.
var denyPhrases = []string{
	"не знаю", "не надо", "не хочу", "не то", "потом", "позже",
	"отмена", "стоп", "другое", "забудь", "cancel", "stop", "never mind",
}

var clarifyOptions = []string{
	"принт — чёткие линии и плоские цвета",
	"художественный — живописные мазки",
	"мультяшный — яркий и контурный",
	"реалистичный — детальная прорисовка",
}

// Coordinator applies the dialogue transitions to session state. It never
// touches the store itself; the caller saves the mutated state.
type Coordinator struct {
	clarifyTTL time.Duration
}

func NewCoordinator() *Coordinator {
	ttl := DefaultClarifyTTL
	if v := os.Getenv("CLARIFY_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			zap.L().Warn("ignoring invalid CLARIFY_TTL", zap.String("value", v))
		} else {
			ttl = d
		}
	}
	return &Coordinator{clarifyTTL: ttl}
}

// MaybeClarify intercepts a short style-less image request before dispatch.
// On interception the session moves to awaiting_choice and the returned
// result carries the option menu instead of work to execute.
func (c *Coordinator) MaybeClarify(text string, scored models.ClassificationResult, st *session.State) (models.ClassificationResult, bool) {
	if st.Dialogue.Stage != models.StageReady || scored.Category != models.CategoryImageGeneration {
		return scored, false
	}
	lower := strings.ToLower(text)
	if _, explicit := inferStyle(lower); explicit {
		return scored, false
	}
	if significantWords(lower) > maxShortRequestWords {
		return scored, false
	}

	st.Dialogue = models.DialogueState{
		Stage:          models.StageAwaitingChoice,
		Category:       models.CategoryImageGeneration,
		PendingRequest: text,
		Options:        clarifyOptions,
		SuggestedAt:    time.Now(),
	}

	res := scored
	res.Confidence = clarifyConfidence
	res.Threshold = dialogueThreshold
	res.Action = models.ActionClarify
	res.Prompt = "Уточни, в каком стиле нарисовать:"
	res.Options = clarifyOptions
	return res, true
}

// ResolveChoice inspects the next message while a clarification is pending.
// Recognized choices move the session to generating and return a merged
// request; anything else resets the session to ready and the caller scores
// the message as a fresh request.
func (c *Coordinator) ResolveChoice(text string, g models.GrammarSignal, e models.EmotionSignal, st *session.State) (models.ClassificationResult, bool) {
	if st.Dialogue.Stage != models.StageAwaitingChoice {
		return models.ClassificationResult{}, false
	}
	if time.Since(st.Dialogue.SuggestedAt) > c.clarifyTTL {
		zap.L().Debug("clarification expired", zap.String("session_id", st.ID))
		st.ResetDialogue()
		return models.ClassificationResult{}, false
	}

	lower := strings.ToLower(text)
	if !recognizeChoice(lower) {
		st.ResetDialogue()
		return models.ClassificationResult{}, false
	}

	style := chooseStyle(lower)
	pending := st.Dialogue.PendingRequest
	category := st.Dialogue.Category

	st.Dialogue = models.DialogueState{
		Stage:    models.StageGenerating,
		Category: category,
	}

	return models.ClassificationResult{
		Category:       category,
		Confidence:     resumeConfidence,
		Threshold:      dialogueThreshold,
		Action:         models.ActionResumeChoice,
		Grammar:        g,
		Emotion:        e,
		Style:          style,
		ResolvedPrompt: fmt.Sprintf("%s (стиль: %s)", pending, style),
	}, true
}

// ResetStaleDispatch handles a fresh user message arriving while the
// session still sits in generating: the dispatch report was lost, or the
// caller has no report channel at all (the one-shot REST surface). The
// unexpected input resets the machine to ready so the message scores
// normally and clarification stays reachable.
func (c *Coordinator) ResetStaleDispatch(st *session.State) bool {
	if st.Dialogue.Stage != models.StageGenerating {
		return false
	}
	zap.L().Debug("resetting unreported dispatch", zap.String("session_id", st.ID))
	st.ResetDialogue()
	return true
}

// BeginDispatch marks the session as busy with an action.
func (c *Coordinator) BeginDispatch(st *session.State, category models.Category) {
	st.Dialogue = models.DialogueState{
		Stage:    models.StageGenerating,
		Category: category,
	}
}

// CompleteDispatch returns the session to ready. Success and failure land in
// the same place; retries belong to the dispatcher, not this layer.
func (c *Coordinator) CompleteDispatch(st *session.State, outcome models.DispatchOutcome) {
	if !outcome.Success {
		zap.L().Debug("dispatch failed, resetting dialogue", zap.String("session_id", st.ID))
	}
	st.ResetDialogue()
}

func recognizeChoice(lower string) bool {
	for _, p := range denyPhrases {
		if strings.Contains(lower, p) {
			return false
		}
	}
	if _, ok := inferStyle(lower); ok {
		return true
	}
	for _, p := range readyPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	for _, tok := range tokens(lower) {
		for _, r := range readyTokens {
			if tok == r {
				return true
			}
		}
	}
	return false
}

func inferStyle(lower string) (string, bool) {
	for _, r := range styleRules {
		if strings.Contains(lower, r.stem) {
			return r.style, true
		}
	}
	return "", false
}

func chooseStyle(lower string) string {
	if style, ok := inferStyle(lower); ok {
		return style
	}
	return "realistic"
}

var stopwords = map[string]bool{
	"и": true, "в": true, "на": true, "с": true, "по": true, "для": true,
	"а": true, "но": true, "же": true, "ли": true, "не": true, "о": true,
	"об": true, "у": true, "к": true, "от": true, "до": true, "из": true,
	"за": true, "под": true, "над": true, "мне": true, "пожалуйста": true,
	"a": true, "an": true, "the": true, "of": true, "in": true, "on": true,
	"for": true, "to": true, "and": true, "with": true, "at": true,
	"please": true, "me": true,
}

func tokens(lower string) []string {
	fields := strings.Fields(lower)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ",.!?:;()\"'«»-")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func significantWords(lower string) int {
	n := 0
	for _, tok := range tokens(lower) {
		if !stopwords[tok] {
			n++
		}
	}
	return n
}
